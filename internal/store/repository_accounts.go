package store

import (
	"context"
	"time"
)

const accountColumns = `id, display_name, balance, version, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.DisplayName, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &a, nil
}

func (q *queries) GetAccount(ctx context.Context, id string) (*Account, error) {
	return scanAccount(q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (q *queries) InsertAccount(ctx context.Context, a Account) error {
	now := nowOr(a.CreatedAt)
	_, err := q.db.Exec(ctx, `
		INSERT INTO accounts (id, display_name, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
	`, a.ID, a.DisplayName, a.Balance, now)
	return mapWriteErr(err)
}

func (q *queries) UpdateAccount(ctx context.Context, a *Account) error {
	now := time.Now().UTC()
	err := casResult(q.db.Exec(ctx, `
		UPDATE accounts
		SET display_name = $3, balance = $4, version = version + 1, updated_at = $5
		WHERE id = $1 AND version = $2
	`, a.ID, a.Version, a.DisplayName, a.Balance, now))
	if err != nil {
		return err
	}
	a.Version++
	a.UpdatedAt = now
	return nil
}
