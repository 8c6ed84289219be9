package game

import "strings"

// ActionKind is one of the free-form chip actions a seated identity may
// issue at any time. There is no turn order.
type ActionKind string

const (
	ActionBet       ActionKind = "bet"
	ActionTake      ActionKind = "take"
	ActionFold      ActionKind = "fold"
	ActionCheck     ActionKind = "check"
	ActionHeartbeat ActionKind = "heartbeat"
)

func ParseActionKind(v string) (ActionKind, error) {
	switch k := ActionKind(strings.ToLower(strings.TrimSpace(v))); k {
	case ActionBet, ActionTake, ActionFold, ActionCheck, ActionHeartbeat:
		return k, nil
	default:
		return "", ErrInvalidAction
	}
}

// MovesChips reports whether the action transfers chips between a stack and
// the pot.
func (k ActionKind) MovesChips() bool {
	return k == ActionBet || k == ActionTake
}

// Logged reports whether the action produces an activity record.
func (k ActionKind) Logged() bool {
	return k != ActionHeartbeat
}

// Move describes the effect of an applied action. PotBefore/PotAfter and
// StackBefore/StackAfter are equal for actions that move no chips.
type Move struct {
	Kind        ActionKind
	Amount      int64
	PotBefore   int64
	PotAfter    int64
	StackBefore int64
	StackAfter  int64
}
