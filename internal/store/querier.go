package store

import "context"

// Querier is the row-level surface of the ledger store. Update* methods
// are compare-and-set on the row's Version: they fail with ErrConflict when
// the stored version differs and bump the in-memory Version on success.
type Querier interface {
	GetAccount(ctx context.Context, id string) (*Account, error)
	InsertAccount(ctx context.Context, a Account) error
	UpdateAccount(ctx context.Context, a *Account) error

	GetTable(ctx context.Context, id string) (*Table, error)
	GetTableByCode(ctx context.Context, roomCode string) (*Table, error)
	InsertTable(ctx context.Context, t Table) error
	UpdateTable(ctx context.Context, t *Table) error

	GetSeat(ctx context.Context, id string) (*Seat, error)
	FindSeat(ctx context.Context, tableID, identityID string) (*Seat, error)
	ListSeats(ctx context.Context, tableID string) ([]Seat, error)
	ListSeatedByIdentity(ctx context.Context, identityID string) ([]Seat, error)
	InsertSeat(ctx context.Context, s Seat) error
	UpdateSeat(ctx context.Context, s *Seat) error

	InsertActivity(ctx context.Context, a Activity) error
	ListActivity(ctx context.Context, tableID string, limit int) ([]Activity, error)

	InsertGameSession(ctx context.Context, gs GameSession) error
	FindActiveSession(ctx context.Context, identityID, tableID string) (*GameSession, error)
	UpdateGameSession(ctx context.Context, gs *GameSession) error
	ListGameSessions(ctx context.Context, identityID string) ([]GameSession, error)
	ListTableSessions(ctx context.Context, tableID string) ([]GameSession, error)

	InsertBettingEntry(ctx context.Context, e BettingEntry) error
	ListBettingEntries(ctx context.Context, identityID string, limit int) ([]BettingEntry, error)

	InsertPayment(ctx context.Context, p Payment) error
	GetPaymentByCheckoutRef(ctx context.Context, checkoutRef string) (*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, identityID string) ([]Payment, error)
	CountCompletedPayments(ctx context.Context, identityID string) (int, error)
	InsertPaymentHistory(ctx context.Context, h PaymentHistory) error

	InsertAchievement(ctx context.Context, a Achievement) error
	HasAchievement(ctx context.Context, identityID, kind string) (bool, error)
	ListAchievements(ctx context.Context, identityID string) ([]Achievement, error)
}

// TxRunner runs a unit of work. Everything fn writes is applied together or
// not at all.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Querier) error) error
}

var (
	_ TxRunner = (*Store)(nil)
	_ TxRunner = (*MemStore)(nil)
)

var (
	_ Querier = (*queries)(nil)
	_ Querier = (*memQueries)(nil)
)
