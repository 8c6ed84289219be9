package game

import (
	"time"

	"chiptable/internal/apperr"
	"chiptable/internal/store"
)

var (
	ErrInvalidAction = apperr.New(apperr.KindValidation, "invalid_action", "Invalid action")
	ErrInvalidBet    = apperr.New(apperr.KindValidation, "invalid_bet_amount", "Invalid bet amount")
	ErrInvalidTake   = apperr.New(apperr.KindValidation, "invalid_take_amount", "Invalid take amount")
	ErrStackTooSmall = apperr.New(apperr.KindBusinessRule, "insufficient_stack", "Insufficient chips")
	ErrPotTooSmall   = apperr.New(apperr.KindBusinessRule, "insufficient_pot", "Not enough chips in pot")
	ErrSeatNotSeated = apperr.New(apperr.KindBusinessRule, "not_seated", "Player is not seated")
)

// Apply runs kind against seat and table in memory. Nothing is modified
// when an error is returned. The caller persists both rows.
func Apply(kind ActionKind, seat *store.Seat, table *store.Table, amount int64, now time.Time) (Move, error) {
	if !seat.Seated {
		return Move{}, ErrSeatNotSeated
	}
	switch kind {
	case ActionBet:
		return applyBet(seat, table, amount, now)
	case ActionTake:
		return applyTake(seat, table, amount, now)
	case ActionFold:
		seat.Folded = true
		seat.CurrentBet = 0
		return still(kind, seat, table), nil
	case ActionCheck:
		seat.Checked = true
		return still(kind, seat, table), nil
	case ActionHeartbeat:
		seat.Online = true
		seat.LastSeen = now
		return still(kind, seat, table), nil
	default:
		return Move{}, ErrInvalidAction
	}
}

func applyBet(seat *store.Seat, table *store.Table, amount int64, now time.Time) (Move, error) {
	if amount <= 0 {
		return Move{}, ErrInvalidBet
	}
	if amount > seat.Stack {
		return Move{}, ErrStackTooSmall
	}
	m := Move{Kind: ActionBet, Amount: amount, PotBefore: table.Pot, StackBefore: seat.Stack}
	seat.Stack -= amount
	seat.CurrentBet = amount
	table.Pot += amount
	table.LastActivity = now
	m.PotAfter, m.StackAfter = table.Pot, seat.Stack
	return m, nil
}

func applyTake(seat *store.Seat, table *store.Table, amount int64, now time.Time) (Move, error) {
	if amount <= 0 {
		return Move{}, ErrInvalidTake
	}
	if amount > table.Pot {
		return Move{}, ErrPotTooSmall
	}
	m := Move{Kind: ActionTake, Amount: amount, PotBefore: table.Pot, StackBefore: seat.Stack}
	table.Pot -= amount
	seat.Stack += amount
	table.LastActivity = now
	m.PotAfter, m.StackAfter = table.Pot, seat.Stack
	return m, nil
}

func still(kind ActionKind, seat *store.Seat, table *store.Table) Move {
	return Move{
		Kind:        kind,
		PotBefore:   table.Pot,
		PotAfter:    table.Pot,
		StackBefore: seat.Stack,
		StackAfter:  seat.Stack,
	}
}
