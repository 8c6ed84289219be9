package payment

import (
	"context"
	"errors"

	"chiptable/internal/store"
)

const (
	AchievementFirstPurchase = "first_purchase"
	AchievementBigSpender    = "big_spender"

	bigSpenderChips = 10000
)

type achievementRule struct {
	kind        string
	name        string
	description string
	applies     func(ctx context.Context, q store.Querier, p *store.Payment) (bool, error)
}

var achievementRules = []achievementRule{
	{
		kind:        AchievementFirstPurchase,
		name:        "First Purchase",
		description: "Made your first chip purchase",
		applies: func(ctx context.Context, q store.Querier, p *store.Payment) (bool, error) {
			n, err := q.CountCompletedPayments(ctx, p.IdentityID)
			return n == 1, err
		},
	},
	{
		kind:        AchievementBigSpender,
		name:        "Big Spender",
		description: "Purchased 10,000+ chips in a single transaction",
		applies: func(_ context.Context, _ store.Querier, p *store.Payment) (bool, error) {
			return p.Chips >= bigSpenderChips, nil
		},
	},
}

// grantAchievements runs after the payment is marked completed. Each rule
// is checked against the rows already granted, so a redelivered or replayed
// notification never grants twice.
func grantAchievements(ctx context.Context, q store.Querier, p *store.Payment) ([]string, error) {
	var granted []string
	for _, rule := range achievementRules {
		has, err := q.HasAchievement(ctx, p.IdentityID, rule.kind)
		if err != nil {
			return nil, err
		}
		if has {
			continue
		}
		ok, err := rule.applies(ctx, q, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		err = q.InsertAchievement(ctx, store.Achievement{
			ID:          store.NewID(),
			IdentityID:  p.IdentityID,
			Kind:        rule.kind,
			Name:        rule.name,
			Description: rule.description,
			Value:       p.Chips,
		})
		if errors.Is(err, store.ErrDuplicate) {
			return nil, store.ErrConflict
		}
		if err != nil {
			return nil, err
		}
		granted = append(granted, rule.kind)
	}
	return granted, nil
}
