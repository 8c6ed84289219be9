package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, identity_id, checkout_ref, payment_intent, package_id, amount_cents, chips, currency,
	status, method, metadata, version, created_at, completed_at`

func scanPayment(row interface{ Scan(...any) error }) (*Payment, error) {
	var (
		p           Payment
		completedAt pgtype.Timestamptz
	)
	if err := row.Scan(&p.ID, &p.IdentityID, &p.CheckoutRef, &p.PaymentIntent, &p.PackageID, &p.AmountCents,
		&p.Chips, &p.Currency, &p.Status, &p.Method, &p.Metadata, &p.Version, &p.CreatedAt, &completedAt); err != nil {
		return nil, mapNotFound(err)
	}
	p.CompletedAt = timePtrVal(completedAt)
	return &p, nil
}

func metadataParam(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func (q *queries) InsertPayment(ctx context.Context, p Payment) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO payments (id, identity_id, checkout_ref, payment_intent, package_id, amount_cents, chips, currency,
			status, method, metadata, version, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
	`, p.ID, p.IdentityID, p.CheckoutRef, p.PaymentIntent, p.PackageID, p.AmountCents, p.Chips, p.Currency,
		p.Status, p.Method, metadataParam(p.Metadata), nowOr(p.CreatedAt), timeParam(p.CompletedAt))
	return mapWriteErr(err)
}

func (q *queries) GetPaymentByCheckoutRef(ctx context.Context, checkoutRef string) (*Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE checkout_ref = $1`, checkoutRef))
}

func (q *queries) UpdatePayment(ctx context.Context, p *Payment) error {
	err := casResult(q.db.Exec(ctx, `
		UPDATE payments
		SET payment_intent = $3, status = $4, method = $5, metadata = $6, completed_at = $7, version = version + 1
		WHERE id = $1 AND version = $2
	`, p.ID, p.Version, p.PaymentIntent, p.Status, p.Method, metadataParam(p.Metadata), timeParam(p.CompletedAt)))
	if err != nil {
		return err
	}
	p.Version++
	return nil
}

func (q *queries) ListPayments(ctx context.Context, identityID string) ([]Payment, error) {
	rows, err := q.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE identity_id = $1 ORDER BY id DESC`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (q *queries) CountCompletedPayments(ctx context.Context, identityID string) (int, error) {
	var c int
	err := q.db.QueryRow(ctx, `SELECT COUNT(1) FROM payments WHERE identity_id = $1 AND status = 'completed'`, identityID).Scan(&c)
	return c, err
}

func (q *queries) InsertPaymentHistory(ctx context.Context, h PaymentHistory) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO payment_history (id, identity_id, action, amount_cents, chips, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, h.ID, h.IdentityID, h.Action, h.AmountCents, h.Chips, h.Description, nowOr(h.CreatedAt))
	return mapWriteErr(err)
}

func (q *queries) InsertAchievement(ctx context.Context, a Achievement) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO achievements (id, identity_id, kind, name, description, value, unlocked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.IdentityID, a.Kind, a.Name, a.Description, a.Value, nowOr(a.UnlockedAt))
	return mapWriteErr(err)
}

func (q *queries) HasAchievement(ctx context.Context, identityID, kind string) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM achievements WHERE identity_id = $1 AND kind = $2)`, identityID, kind).Scan(&ok)
	return ok, err
}

func (q *queries) ListAchievements(ctx context.Context, identityID string) ([]Achievement, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, identity_id, kind, name, description, value, unlocked_at
		FROM achievements
		WHERE identity_id = $1
		ORDER BY unlocked_at DESC, id DESC
	`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Achievement{}
	for rows.Next() {
		var a Achievement
		if err := rows.Scan(&a.ID, &a.IdentityID, &a.Kind, &a.Name, &a.Description, &a.Value, &a.UnlockedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
