package store

import "time"

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

type Account struct {
	ID          string
	DisplayName string
	Balance     int64
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Table struct {
	ID           string
	RoomCode     string
	Pot          int64
	CreatedBy    string
	Version      int64
	LastActivity time.Time
	CreatedAt    time.Time
}

// Seat is one identity's occupancy of a table. Seated is false once the
// identity has left; the row is reused if they come back.
type Seat struct {
	ID          string
	TableID     string
	IdentityID  string
	DisplayName string
	Stack       int64
	CurrentBet  int64
	Folded      bool
	Checked     bool
	Online      bool
	Seated      bool
	LastSeen    time.Time
	Version     int64
	CreatedAt   time.Time
}

type Activity struct {
	ID          string
	TableID     string
	IdentityID  string
	DisplayName string
	Kind        string
	Amount      *int64
	Message     string
	CreatedAt   time.Time
}

type GameSession struct {
	ID              string
	IdentityID      string
	TableID         string
	RoomCode        string
	DisplayName     string
	StartingChips   int64
	EndingChips     int64
	NetChange       int64
	TotalBets       int64
	TotalTaken      int64
	DurationSeconds int64
	Active          bool
	JoinedAt        time.Time
	LeftAt          *time.Time
	Version         int64
}

type BettingEntry struct {
	ID          string
	IdentityID  string
	SessionID   string
	RoomCode    string
	Action      string
	Amount      int64
	PotBefore   int64
	PotAfter    int64
	StackBefore int64
	StackAfter  int64
	CreatedAt   time.Time
}

type Payment struct {
	ID            string
	IdentityID    string
	CheckoutRef   string
	PaymentIntent string
	PackageID     string
	AmountCents   int64
	Chips         int64
	Currency      string
	Status        string
	Method        string
	Metadata      map[string]string
	Version       int64
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

type PaymentHistory struct {
	ID          string
	IdentityID  string
	Action      string
	AmountCents int64
	Chips       int64
	Description string
	CreatedAt   time.Time
}

type Achievement struct {
	ID          string
	IdentityID  string
	Kind        string
	Name        string
	Description string
	Value       int64
	UnlockedAt  time.Time
}
