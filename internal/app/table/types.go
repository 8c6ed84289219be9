package table

import "time"

type CreateResult struct {
	TableID  string `json:"table_id"`
	RoomCode string `json:"room_code"`
}

type JoinInput struct {
	IdentityID  string
	RoomCode    string
	DisplayName string
}

type JoinResult struct {
	TableID  string `json:"table_id"`
	RoomCode string `json:"room_code"`
	SeatID   string `json:"seat_id"`
	Rejoined bool   `json:"rejoined"`
}

type LeaveResult struct {
	TableID     string `json:"table_id"`
	SeatID      string `json:"seat_id"`
	EndingChips int64  `json:"ending_chips"`
	NetChange   int64  `json:"net_change"`
	Credited    int64  `json:"credited"`
}

type ActionInput struct {
	Action     string
	SeatID     string
	IdentityID string
	Amount     int64
}

type ActionResult struct {
	Action     string `json:"action"`
	SeatID     string `json:"seat_id"`
	Stack      int64  `json:"stack"`
	CurrentBet int64  `json:"current_bet"`
	Pot        int64  `json:"pot"`
}

type SeatView struct {
	SeatID      string    `json:"seat_id"`
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Stack       int64     `json:"stack"`
	CurrentBet  int64     `json:"current_bet"`
	Folded      bool      `json:"folded"`
	Checked     bool      `json:"checked"`
	Online      bool      `json:"online"`
	LastSeen    time.Time `json:"last_seen"`
}

type ActivityView struct {
	ID          string    `json:"id"`
	IdentityID  string    `json:"identity_id,omitempty"`
	DisplayName string    `json:"display_name"`
	Kind        string    `json:"kind"`
	Amount      *int64    `json:"amount,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// StateView is what a polling client renders: the table, its seats with
// effective presence, and the most recent activity first.
type StateView struct {
	TableID      string         `json:"table_id"`
	RoomCode     string         `json:"room_code"`
	Pot          int64          `json:"pot"`
	LastActivity time.Time      `json:"last_activity"`
	OnlineCount  int            `json:"online_count"`
	MaxSeats     int            `json:"max_seats"`
	Seats        []SeatView     `json:"seats"`
	Activity     []ActivityView `json:"activity"`
	You          *SeatView      `json:"you,omitempty"`
}

// AuditReport compares the chips on a table with what entered and left it.
// InPlay must equal BoughtIn minus CashedOut.
type AuditReport struct {
	TableID   string `json:"table_id"`
	RoomCode  string `json:"room_code"`
	Pot       int64  `json:"pot"`
	Stacks    int64  `json:"stacks"`
	InPlay    int64  `json:"in_play"`
	BoughtIn  int64  `json:"bought_in"`
	CashedOut int64  `json:"cashed_out"`
	Balanced  bool   `json:"balanced"`
}
