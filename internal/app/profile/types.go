package profile

import "time"

type AccountView struct {
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Balance     int64     `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

type Stats struct {
	TotalGames       int   `json:"total_games"`
	NetProfit        int64 `json:"net_profit"`
	WinRate          int   `json:"win_rate"`
	TotalTimePlayed  int64 `json:"total_time_played_seconds"`
	ActiveSessions   int   `json:"active_sessions"`
	CompletedPayment int   `json:"completed_payments"`
}

type SessionView struct {
	ID              string     `json:"id"`
	RoomCode        string     `json:"room_code"`
	DisplayName     string     `json:"display_name"`
	StartingChips   int64      `json:"starting_chips"`
	EndingChips     int64      `json:"ending_chips"`
	NetChange       int64      `json:"net_change"`
	TotalBets       int64      `json:"total_bets"`
	TotalTaken      int64      `json:"total_taken"`
	DurationSeconds int64      `json:"duration_seconds"`
	Active          bool       `json:"active"`
	JoinedAt        time.Time  `json:"joined_at"`
	LeftAt          *time.Time `json:"left_at,omitempty"`
}

type BetView struct {
	RoomCode    string    `json:"room_code"`
	Action      string    `json:"action"`
	Amount      int64     `json:"amount"`
	PotBefore   int64     `json:"pot_before"`
	PotAfter    int64     `json:"pot_after"`
	StackBefore int64     `json:"stack_before"`
	StackAfter  int64     `json:"stack_after"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaymentView struct {
	CheckoutRef string     `json:"checkout_ref"`
	PackageID   string     `json:"package_id"`
	AmountCents int64      `json:"amount_cents"`
	Chips       int64      `json:"chips"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type AchievementView struct {
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Value       int64     `json:"value"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

type Profile struct {
	Account      AccountView       `json:"account"`
	Stats        Stats             `json:"stats"`
	Sessions     []SessionView     `json:"sessions"`
	Bets         []BetView         `json:"bets"`
	Payments     []PaymentView     `json:"payments"`
	Achievements []AchievementView `json:"achievements"`
}
