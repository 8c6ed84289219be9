package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const gameSessionColumns = `id, identity_id, table_id, room_code, display_name, starting_chips, ending_chips, net_change,
	total_bets, total_taken, duration_seconds, active, joined_at, left_at, version`

func scanGameSession(row interface{ Scan(...any) error }) (*GameSession, error) {
	var (
		gs     GameSession
		leftAt pgtype.Timestamptz
	)
	if err := row.Scan(&gs.ID, &gs.IdentityID, &gs.TableID, &gs.RoomCode, &gs.DisplayName, &gs.StartingChips,
		&gs.EndingChips, &gs.NetChange, &gs.TotalBets, &gs.TotalTaken, &gs.DurationSeconds, &gs.Active,
		&gs.JoinedAt, &leftAt, &gs.Version); err != nil {
		return nil, mapNotFound(err)
	}
	gs.LeftAt = timePtrVal(leftAt)
	return &gs, nil
}

func (q *queries) InsertGameSession(ctx context.Context, gs GameSession) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO game_sessions (id, identity_id, table_id, room_code, display_name, starting_chips, ending_chips,
			net_change, total_bets, total_taken, duration_seconds, active, joined_at, left_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
	`, gs.ID, gs.IdentityID, gs.TableID, gs.RoomCode, gs.DisplayName, gs.StartingChips, gs.EndingChips,
		gs.NetChange, gs.TotalBets, gs.TotalTaken, gs.DurationSeconds, gs.Active, nowOr(gs.JoinedAt), timeParam(gs.LeftAt))
	return mapWriteErr(err)
}

func (q *queries) FindActiveSession(ctx context.Context, identityID, tableID string) (*GameSession, error) {
	return scanGameSession(q.db.QueryRow(ctx, `
		SELECT `+gameSessionColumns+`
		FROM game_sessions
		WHERE identity_id = $1 AND table_id = $2 AND active
	`, identityID, tableID))
}

func (q *queries) UpdateGameSession(ctx context.Context, gs *GameSession) error {
	err := casResult(q.db.Exec(ctx, `
		UPDATE game_sessions
		SET ending_chips = $3, net_change = $4, total_bets = $5, total_taken = $6, duration_seconds = $7,
		    active = $8, left_at = $9, version = version + 1
		WHERE id = $1 AND version = $2
	`, gs.ID, gs.Version, gs.EndingChips, gs.NetChange, gs.TotalBets, gs.TotalTaken, gs.DurationSeconds,
		gs.Active, timeParam(gs.LeftAt)))
	if err != nil {
		return err
	}
	gs.Version++
	return nil
}

func (q *queries) ListGameSessions(ctx context.Context, identityID string) ([]GameSession, error) {
	return q.listGameSessions(ctx, `SELECT `+gameSessionColumns+` FROM game_sessions WHERE identity_id = $1 ORDER BY id DESC`, identityID)
}

func (q *queries) ListTableSessions(ctx context.Context, tableID string) ([]GameSession, error) {
	return q.listGameSessions(ctx, `SELECT `+gameSessionColumns+` FROM game_sessions WHERE table_id = $1 ORDER BY id ASC`, tableID)
}

func (q *queries) listGameSessions(ctx context.Context, sql, arg string) ([]GameSession, error) {
	rows, err := q.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GameSession{}
	for rows.Next() {
		gs, err := scanGameSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *gs)
	}
	return out, rows.Err()
}

func (q *queries) InsertBettingEntry(ctx context.Context, e BettingEntry) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO betting_history (id, identity_id, session_id, room_code, action, amount, pot_before, pot_after,
			stack_before, stack_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.IdentityID, e.SessionID, e.RoomCode, e.Action, e.Amount, e.PotBefore, e.PotAfter,
		e.StackBefore, e.StackAfter, nowOr(e.CreatedAt))
	return mapWriteErr(err)
}

func (q *queries) ListBettingEntries(ctx context.Context, identityID string, limit int) ([]BettingEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.Query(ctx, `
		SELECT id, identity_id, session_id, room_code, action, amount, pot_before, pot_after, stack_before, stack_after, created_at
		FROM betting_history
		WHERE identity_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, identityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []BettingEntry{}
	for rows.Next() {
		var e BettingEntry
		if err := rows.Scan(&e.ID, &e.IdentityID, &e.SessionID, &e.RoomCode, &e.Action, &e.Amount, &e.PotBefore,
			&e.PotAfter, &e.StackBefore, &e.StackAfter, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
