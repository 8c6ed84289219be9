package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemStore keeps the ledger in process memory. A unit of work reads a
// private snapshot taken under the lock and runs without it. At commit every
// row it wrote must still carry the version it was read at, and every row it
// inserted must still be unique; otherwise the unit is discarded with
// ErrConflict so the caller's retry runs it again from fresh reads.
type MemStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	accounts     map[string]Account
	tables       map[string]Table
	seats        map[string]Seat
	activity     []Activity
	sessions     map[string]GameSession
	betting      []BettingEntry
	payments     map[string]Payment
	payHistory   []PaymentHistory
	achievements []Achievement
}

// memWrites records which keyed rows a unit of work touched. The value is
// the version the row had in the snapshot; zero marks a row the unit
// inserted.
type memWrites struct {
	accounts map[string]int64
	tables   map[string]int64
	seats    map[string]int64
	sessions map[string]int64
	payments map[string]int64

	activityFrom     int
	bettingFrom      int
	payHistoryFrom   int
	achievementsFrom int
}

func newMemWrites(s *memState) *memWrites {
	return &memWrites{
		accounts:         map[string]int64{},
		tables:           map[string]int64{},
		seats:            map[string]int64{},
		sessions:         map[string]int64{},
		payments:         map[string]int64{},
		activityFrom:     len(s.activity),
		bettingFrom:      len(s.betting),
		payHistoryFrom:   len(s.payHistory),
		achievementsFrom: len(s.achievements),
	}
}

func touch(w map[string]int64, id string, version int64) {
	if _, ok := w[id]; !ok {
		w[id] = version
	}
}

func NewMemStore() *MemStore {
	return &MemStore{state: &memState{
		accounts: map[string]Account{},
		tables:   map[string]Table{},
		seats:    map[string]Seat{},
		sessions: map[string]GameSession{},
		payments: map[string]Payment{},
	}}
}

func (m *MemStore) InTx(ctx context.Context, fn func(Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	work := m.state.clone()
	m.mu.Unlock()

	q := &memQueries{s: work, w: newMemWrites(work)}
	if err := fn(q); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.state.validate(work, q.w); err != nil {
		return err
	}
	m.state.apply(work, q.w)
	return nil
}

func (m *MemStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func checkVersions[T any](live map[string]T, written map[string]int64, version func(T) int64) error {
	for id, base := range written {
		cur, ok := live[id]
		if base == 0 {
			if ok {
				return ErrConflict
			}
			continue
		}
		if !ok || version(cur) != base {
			return ErrConflict
		}
	}
	return nil
}

// validate checks a finished unit of work against the live state. A unique
// key taken since the snapshot reports ErrConflict: on retry the unit sees
// the competing row and decides again.
func (s *memState) validate(work *memState, w *memWrites) error {
	if err := checkVersions(s.accounts, w.accounts, func(a Account) int64 { return a.Version }); err != nil {
		return err
	}
	if err := checkVersions(s.tables, w.tables, func(t Table) int64 { return t.Version }); err != nil {
		return err
	}
	if err := checkVersions(s.seats, w.seats, func(st Seat) int64 { return st.Version }); err != nil {
		return err
	}
	if err := checkVersions(s.sessions, w.sessions, func(gs GameSession) int64 { return gs.Version }); err != nil {
		return err
	}
	if err := checkVersions(s.payments, w.payments, func(p Payment) int64 { return p.Version }); err != nil {
		return err
	}

	live := &memQueries{s: s}
	for id, base := range w.tables {
		if base == 0 {
			if _, err := live.GetTableByCode(context.Background(), work.tables[id].RoomCode); err == nil {
				return ErrConflict
			}
		}
	}
	for id, base := range w.seats {
		if base == 0 {
			st := work.seats[id]
			if _, err := live.FindSeat(context.Background(), st.TableID, st.IdentityID); err == nil {
				return ErrConflict
			}
		}
	}
	for id := range w.sessions {
		gs := work.sessions[id]
		if !gs.Active {
			continue
		}
		if other, err := live.FindActiveSession(context.Background(), gs.IdentityID, gs.TableID); err == nil && other.ID != id {
			return ErrConflict
		}
	}
	for id, base := range w.payments {
		if base == 0 {
			if _, err := live.GetPaymentByCheckoutRef(context.Background(), work.payments[id].CheckoutRef); err == nil {
				return ErrConflict
			}
		}
	}
	for _, a := range work.achievements[w.achievementsFrom:] {
		if ok, _ := live.HasAchievement(context.Background(), a.IdentityID, a.Kind); ok {
			return ErrConflict
		}
	}
	return nil
}

func (s *memState) apply(work *memState, w *memWrites) {
	for id := range w.accounts {
		s.accounts[id] = work.accounts[id]
	}
	for id := range w.tables {
		s.tables[id] = work.tables[id]
	}
	for id := range w.seats {
		s.seats[id] = work.seats[id]
	}
	for id := range w.sessions {
		s.sessions[id] = work.sessions[id]
	}
	for id := range w.payments {
		s.payments[id] = work.payments[id]
	}
	s.activity = append(s.activity, work.activity[w.activityFrom:]...)
	s.betting = append(s.betting, work.betting[w.bettingFrom:]...)
	s.payHistory = append(s.payHistory, work.payHistory[w.payHistoryFrom:]...)
	s.achievements = append(s.achievements, work.achievements[w.achievementsFrom:]...)
}

func (s *memState) clone() *memState {
	out := &memState{
		accounts:     maps.Clone(s.accounts),
		tables:       maps.Clone(s.tables),
		seats:        maps.Clone(s.seats),
		activity:     slices.Clone(s.activity),
		sessions:     maps.Clone(s.sessions),
		betting:      slices.Clone(s.betting),
		payments:     make(map[string]Payment, len(s.payments)),
		payHistory:   slices.Clone(s.payHistory),
		achievements: slices.Clone(s.achievements),
	}
	for id, p := range s.payments {
		p.Metadata = maps.Clone(p.Metadata)
		out.payments[id] = p
	}
	return out
}

type memQueries struct {
	s *memState
	w *memWrites
}

func (q *memQueries) GetAccount(_ context.Context, id string) (*Account, error) {
	a, ok := q.s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (q *memQueries) InsertAccount(_ context.Context, a Account) error {
	if _, ok := q.s.accounts[a.ID]; ok {
		return ErrDuplicate
	}
	if a.Balance < 0 {
		return ErrConstraint
	}
	a.Version = 1
	a.CreatedAt = nowOr(a.CreatedAt)
	a.UpdatedAt = a.CreatedAt
	q.s.accounts[a.ID] = a
	touch(q.w.accounts, a.ID, 0)
	return nil
}

func (q *memQueries) UpdateAccount(_ context.Context, a *Account) error {
	cur, ok := q.s.accounts[a.ID]
	if !ok || cur.Version != a.Version {
		return ErrConflict
	}
	if a.Balance < 0 {
		return ErrConstraint
	}
	touch(q.w.accounts, a.ID, cur.Version)
	a.Version++
	a.UpdatedAt = time.Now().UTC()
	next := *a
	next.CreatedAt = cur.CreatedAt
	q.s.accounts[a.ID] = next
	return nil
}

func (q *memQueries) GetTable(_ context.Context, id string) (*Table, error) {
	t, ok := q.s.tables[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (q *memQueries) GetTableByCode(_ context.Context, roomCode string) (*Table, error) {
	for _, t := range q.s.tables {
		if t.RoomCode == roomCode {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) InsertTable(_ context.Context, t Table) error {
	if _, ok := q.s.tables[t.ID]; ok {
		return ErrDuplicate
	}
	for _, other := range q.s.tables {
		if other.RoomCode == t.RoomCode {
			return ErrDuplicate
		}
	}
	if t.Pot < 0 {
		return ErrConstraint
	}
	t.Version = 1
	t.CreatedAt = nowOr(t.CreatedAt)
	t.LastActivity = t.CreatedAt
	q.s.tables[t.ID] = t
	touch(q.w.tables, t.ID, 0)
	return nil
}

func (q *memQueries) UpdateTable(_ context.Context, t *Table) error {
	cur, ok := q.s.tables[t.ID]
	if !ok || cur.Version != t.Version {
		return ErrConflict
	}
	if t.Pot < 0 {
		return ErrConstraint
	}
	touch(q.w.tables, t.ID, cur.Version)
	t.Version++
	next := cur
	next.Pot = t.Pot
	next.LastActivity = t.LastActivity
	next.Version = t.Version
	q.s.tables[t.ID] = next
	return nil
}

func (q *memQueries) GetSeat(_ context.Context, id string) (*Seat, error) {
	s, ok := q.s.seats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (q *memQueries) FindSeat(_ context.Context, tableID, identityID string) (*Seat, error) {
	for _, s := range q.s.seats {
		if s.TableID == tableID && s.IdentityID == identityID {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) ListSeats(_ context.Context, tableID string) ([]Seat, error) {
	out := []Seat{}
	for _, s := range q.s.seats {
		if s.TableID == tableID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (q *memQueries) ListSeatedByIdentity(_ context.Context, identityID string) ([]Seat, error) {
	out := []Seat{}
	for _, s := range q.s.seats {
		if s.IdentityID == identityID && s.Seated {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func validSeat(s Seat) bool {
	return s.Stack >= 0 && s.CurrentBet >= 0
}

func (q *memQueries) InsertSeat(_ context.Context, s Seat) error {
	if _, ok := q.s.seats[s.ID]; ok {
		return ErrDuplicate
	}
	for _, other := range q.s.seats {
		if other.TableID == s.TableID && other.IdentityID == s.IdentityID {
			return ErrDuplicate
		}
	}
	if !validSeat(s) {
		return ErrConstraint
	}
	s.Version = 1
	s.CreatedAt = nowOr(s.CreatedAt)
	if s.LastSeen.IsZero() {
		s.LastSeen = s.CreatedAt
	}
	q.s.seats[s.ID] = s
	touch(q.w.seats, s.ID, 0)
	return nil
}

func (q *memQueries) UpdateSeat(_ context.Context, s *Seat) error {
	cur, ok := q.s.seats[s.ID]
	if !ok || cur.Version != s.Version {
		return ErrConflict
	}
	if !validSeat(*s) {
		return ErrConstraint
	}
	if s.LastSeen.IsZero() {
		s.LastSeen = time.Now().UTC()
	}
	touch(q.w.seats, s.ID, cur.Version)
	s.Version++
	next := *s
	next.TableID = cur.TableID
	next.IdentityID = cur.IdentityID
	next.CreatedAt = cur.CreatedAt
	q.s.seats[s.ID] = next
	return nil
}

func (q *memQueries) InsertActivity(_ context.Context, a Activity) error {
	a.CreatedAt = nowOr(a.CreatedAt)
	q.s.activity = append(q.s.activity, a)
	return nil
}

func (q *memQueries) ListActivity(_ context.Context, tableID string, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []Activity{}
	for i := len(q.s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if q.s.activity[i].TableID == tableID {
			out = append(out, q.s.activity[i])
		}
	}
	return out, nil
}

func (q *memQueries) InsertGameSession(_ context.Context, gs GameSession) error {
	if _, ok := q.s.sessions[gs.ID]; ok {
		return ErrDuplicate
	}
	if gs.Active {
		for _, other := range q.s.sessions {
			if other.Active && other.IdentityID == gs.IdentityID && other.TableID == gs.TableID {
				return ErrDuplicate
			}
		}
	}
	gs.Version = 1
	gs.JoinedAt = nowOr(gs.JoinedAt)
	q.s.sessions[gs.ID] = gs
	touch(q.w.sessions, gs.ID, 0)
	return nil
}

func (q *memQueries) FindActiveSession(_ context.Context, identityID, tableID string) (*GameSession, error) {
	for _, gs := range q.s.sessions {
		if gs.Active && gs.IdentityID == identityID && gs.TableID == tableID {
			return &gs, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) UpdateGameSession(_ context.Context, gs *GameSession) error {
	cur, ok := q.s.sessions[gs.ID]
	if !ok || cur.Version != gs.Version {
		return ErrConflict
	}
	touch(q.w.sessions, gs.ID, cur.Version)
	gs.Version++
	next := cur
	next.EndingChips = gs.EndingChips
	next.NetChange = gs.NetChange
	next.TotalBets = gs.TotalBets
	next.TotalTaken = gs.TotalTaken
	next.DurationSeconds = gs.DurationSeconds
	next.Active = gs.Active
	next.LeftAt = gs.LeftAt
	next.Version = gs.Version
	q.s.sessions[gs.ID] = next
	return nil
}

func (q *memQueries) ListGameSessions(_ context.Context, identityID string) ([]GameSession, error) {
	out := []GameSession{}
	for _, gs := range q.s.sessions {
		if gs.IdentityID == identityID {
			out = append(out, gs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (q *memQueries) ListTableSessions(_ context.Context, tableID string) ([]GameSession, error) {
	out := []GameSession{}
	for _, gs := range q.s.sessions {
		if gs.TableID == tableID {
			out = append(out, gs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *memQueries) InsertBettingEntry(_ context.Context, e BettingEntry) error {
	e.CreatedAt = nowOr(e.CreatedAt)
	q.s.betting = append(q.s.betting, e)
	return nil
}

func (q *memQueries) ListBettingEntries(_ context.Context, identityID string, limit int) ([]BettingEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []BettingEntry{}
	for i := len(q.s.betting) - 1; i >= 0 && len(out) < limit; i-- {
		if q.s.betting[i].IdentityID == identityID {
			out = append(out, q.s.betting[i])
		}
	}
	return out, nil
}

func (q *memQueries) InsertPayment(_ context.Context, p Payment) error {
	if _, ok := q.s.payments[p.ID]; ok {
		return ErrDuplicate
	}
	for _, other := range q.s.payments {
		if other.CheckoutRef == p.CheckoutRef {
			return ErrDuplicate
		}
	}
	if p.Chips <= 0 {
		return ErrConstraint
	}
	p.Version = 1
	p.CreatedAt = nowOr(p.CreatedAt)
	p.Metadata = maps.Clone(metadataParam(p.Metadata))
	q.s.payments[p.ID] = p
	touch(q.w.payments, p.ID, 0)
	return nil
}

func (q *memQueries) GetPaymentByCheckoutRef(_ context.Context, checkoutRef string) (*Payment, error) {
	for _, p := range q.s.payments {
		if p.CheckoutRef == checkoutRef {
			p.Metadata = maps.Clone(p.Metadata)
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) UpdatePayment(_ context.Context, p *Payment) error {
	cur, ok := q.s.payments[p.ID]
	if !ok || cur.Version != p.Version {
		return ErrConflict
	}
	touch(q.w.payments, p.ID, cur.Version)
	p.Version++
	next := cur
	next.PaymentIntent = p.PaymentIntent
	next.Status = p.Status
	next.Method = p.Method
	next.Metadata = maps.Clone(metadataParam(p.Metadata))
	next.CompletedAt = p.CompletedAt
	next.Version = p.Version
	q.s.payments[p.ID] = next
	return nil
}

func (q *memQueries) ListPayments(_ context.Context, identityID string) ([]Payment, error) {
	out := []Payment{}
	for _, p := range q.s.payments {
		if p.IdentityID == identityID {
			p.Metadata = maps.Clone(p.Metadata)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (q *memQueries) CountCompletedPayments(_ context.Context, identityID string) (int, error) {
	n := 0
	for _, p := range q.s.payments {
		if p.IdentityID == identityID && p.Status == PaymentCompleted {
			n++
		}
	}
	return n, nil
}

func (q *memQueries) InsertPaymentHistory(_ context.Context, h PaymentHistory) error {
	h.CreatedAt = nowOr(h.CreatedAt)
	q.s.payHistory = append(q.s.payHistory, h)
	return nil
}

func (q *memQueries) InsertAchievement(_ context.Context, a Achievement) error {
	for _, other := range q.s.achievements {
		if other.ID == a.ID || (other.IdentityID == a.IdentityID && other.Kind == a.Kind) {
			return ErrDuplicate
		}
	}
	a.UnlockedAt = nowOr(a.UnlockedAt)
	q.s.achievements = append(q.s.achievements, a)
	return nil
}

func (q *memQueries) HasAchievement(_ context.Context, identityID, kind string) (bool, error) {
	for _, a := range q.s.achievements {
		if a.IdentityID == identityID && a.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (q *memQueries) ListAchievements(_ context.Context, identityID string) ([]Achievement, error) {
	out := []Achievement{}
	for i := len(q.s.achievements) - 1; i >= 0; i-- {
		if q.s.achievements[i].IdentityID == identityID {
			out = append(out, q.s.achievements[i])
		}
	}
	return out, nil
}
