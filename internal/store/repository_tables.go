package store

import (
	"context"
	"time"
)

const tableColumns = `id, room_code, pot, created_by, version, last_activity, created_at`

const seatColumns = `id, table_id, identity_id, display_name, stack, current_bet, folded, checked, online, seated, last_seen, version, created_at`

func scanTable(row interface{ Scan(...any) error }) (*Table, error) {
	var t Table
	if err := row.Scan(&t.ID, &t.RoomCode, &t.Pot, &t.CreatedBy, &t.Version, &t.LastActivity, &t.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

func scanSeat(row interface{ Scan(...any) error }) (*Seat, error) {
	var s Seat
	if err := row.Scan(&s.ID, &s.TableID, &s.IdentityID, &s.DisplayName, &s.Stack, &s.CurrentBet,
		&s.Folded, &s.Checked, &s.Online, &s.Seated, &s.LastSeen, &s.Version, &s.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &s, nil
}

func (q *queries) GetTable(ctx context.Context, id string) (*Table, error) {
	return scanTable(q.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = $1`, id))
}

func (q *queries) GetTableByCode(ctx context.Context, roomCode string) (*Table, error) {
	return scanTable(q.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE room_code = $1`, roomCode))
}

func (q *queries) InsertTable(ctx context.Context, t Table) error {
	now := nowOr(t.CreatedAt)
	_, err := q.db.Exec(ctx, `
		INSERT INTO tables (id, room_code, pot, created_by, version, last_activity, created_at)
		VALUES ($1, $2, $3, $4, 1, $5, $5)
	`, t.ID, t.RoomCode, t.Pot, t.CreatedBy, now)
	return mapWriteErr(err)
}

func (q *queries) UpdateTable(ctx context.Context, t *Table) error {
	err := casResult(q.db.Exec(ctx, `
		UPDATE tables
		SET pot = $3, last_activity = $4, version = version + 1
		WHERE id = $1 AND version = $2
	`, t.ID, t.Version, t.Pot, t.LastActivity))
	if err != nil {
		return err
	}
	t.Version++
	return nil
}

func (q *queries) GetSeat(ctx context.Context, id string) (*Seat, error) {
	return scanSeat(q.db.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = $1`, id))
}

func (q *queries) FindSeat(ctx context.Context, tableID, identityID string) (*Seat, error) {
	return scanSeat(q.db.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE table_id = $1 AND identity_id = $2`, tableID, identityID))
}

func (q *queries) ListSeats(ctx context.Context, tableID string) ([]Seat, error) {
	return q.listSeats(ctx, `SELECT `+seatColumns+` FROM seats WHERE table_id = $1 ORDER BY created_at ASC, id ASC`, tableID)
}

func (q *queries) ListSeatedByIdentity(ctx context.Context, identityID string) ([]Seat, error) {
	return q.listSeats(ctx, `SELECT `+seatColumns+` FROM seats WHERE identity_id = $1 AND seated ORDER BY id ASC`, identityID)
}

func (q *queries) listSeats(ctx context.Context, sql string, arg string) ([]Seat, error) {
	rows, err := q.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Seat{}
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (q *queries) InsertSeat(ctx context.Context, s Seat) error {
	now := nowOr(s.CreatedAt)
	lastSeen := s.LastSeen
	if lastSeen.IsZero() {
		lastSeen = now
	}
	_, err := q.db.Exec(ctx, `
		INSERT INTO seats (id, table_id, identity_id, display_name, stack, current_bet, folded, checked, online, seated, last_seen, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12)
	`, s.ID, s.TableID, s.IdentityID, s.DisplayName, s.Stack, s.CurrentBet, s.Folded, s.Checked, s.Online, s.Seated, lastSeen, now)
	return mapWriteErr(err)
}

func (q *queries) UpdateSeat(ctx context.Context, s *Seat) error {
	if s.LastSeen.IsZero() {
		s.LastSeen = time.Now().UTC()
	}
	err := casResult(q.db.Exec(ctx, `
		UPDATE seats
		SET display_name = $3, stack = $4, current_bet = $5, folded = $6, checked = $7,
		    online = $8, seated = $9, last_seen = $10, version = version + 1
		WHERE id = $1 AND version = $2
	`, s.ID, s.Version, s.DisplayName, s.Stack, s.CurrentBet, s.Folded, s.Checked, s.Online, s.Seated, s.LastSeen))
	if err != nil {
		return err
	}
	s.Version++
	return nil
}
