package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

func (q *queries) InsertActivity(ctx context.Context, a Activity) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO activity (id, table_id, identity_id, display_name, kind, amount, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.TableID, textParam(a.IdentityID), a.DisplayName, a.Kind, int8PtrParam(a.Amount), a.Message, nowOr(a.CreatedAt))
	return mapWriteErr(err)
}

// ListActivity returns the newest records first.
func (q *queries) ListActivity(ctx context.Context, tableID string, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.Query(ctx, `
		SELECT id, table_id, identity_id, display_name, kind, amount, message, created_at
		FROM activity
		WHERE table_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Activity{}
	for rows.Next() {
		var (
			a        Activity
			identity pgtype.Text
			amount   pgtype.Int8
		)
		if err := rows.Scan(&a.ID, &a.TableID, &identity, &a.DisplayName, &a.Kind, &amount, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.IdentityID = textVal(identity)
		a.Amount = int64PtrVal(amount)
		out = append(out, a)
	}
	return out, rows.Err()
}
