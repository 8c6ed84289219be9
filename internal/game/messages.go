package game

import "fmt"

// Activity kinds beyond the table actions.
const (
	KindJoin      = "join"
	KindLeave     = "leave"
	KindReconnect = "reconnect"
)

func ActionMessage(name string, m Move) string {
	switch m.Kind {
	case ActionBet:
		return fmt.Sprintf("%s bet %d chips", name, m.Amount)
	case ActionTake:
		return fmt.Sprintf("%s took %d chips from pot", name, m.Amount)
	case ActionFold:
		return name + " folded"
	case ActionCheck:
		return name + " checked"
	default:
		return ""
	}
}

func JoinMessage(name string) string      { return name + " joined the table" }
func LeaveMessage(name string) string     { return name + " left the table" }
func ReconnectMessage(name string) string { return name + " reconnected" }
