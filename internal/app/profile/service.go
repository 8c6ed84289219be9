package profile

import (
	"context"
	"math"

	"chiptable/internal/apperr"
	"chiptable/internal/ledger"
	"chiptable/internal/store"

	"github.com/samber/lo"
)

var ErrMissingIdentity = apperr.New(apperr.KindValidation, "missing_fields", "Missing required fields")

const defaultHistoryLimit = 100

type Service struct {
	ledger          *ledger.Ledger
	startingBalance int64
	historyLimit    int
}

func NewService(l *ledger.Ledger, startingBalance int64, historyLimit int) *Service {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Service{ledger: l, startingBalance: startingBalance, historyLimit: historyLimit}
}

// Me returns the caller's account, opening it on first sight.
func (s *Service) Me(ctx context.Context, identityID, displayName string) (*AccountView, error) {
	if identityID == "" {
		return nil, ErrMissingIdentity
	}
	var out AccountView
	err := s.ledger.Update(ctx, "me", func(q store.Querier) error {
		a, err := ledger.EnsureAccount(ctx, q, identityID, displayName, s.startingBalance)
		if err != nil {
			return err
		}
		out = accountView(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Profile(ctx context.Context, identityID string) (*Profile, error) {
	if identityID == "" {
		return nil, ErrMissingIdentity
	}
	var out Profile
	err := s.ledger.Update(ctx, "profile", func(q store.Querier) error {
		a, err := ledger.EnsureAccount(ctx, q, identityID, "", s.startingBalance)
		if err != nil {
			return err
		}
		sessions, err := q.ListGameSessions(ctx, identityID)
		if err != nil {
			return err
		}
		bets, err := q.ListBettingEntries(ctx, identityID, s.historyLimit)
		if err != nil {
			return err
		}
		pays, err := q.ListPayments(ctx, identityID)
		if err != nil {
			return err
		}
		achievements, err := q.ListAchievements(ctx, identityID)
		if err != nil {
			return err
		}

		out = Profile{
			Account: accountView(a),
			Stats:   ComputeStats(sessions),
			Sessions: lo.Map(sessions, func(gs store.GameSession, _ int) SessionView {
				return SessionView{
					ID:              gs.ID,
					RoomCode:        gs.RoomCode,
					DisplayName:     gs.DisplayName,
					StartingChips:   gs.StartingChips,
					EndingChips:     gs.EndingChips,
					NetChange:       gs.NetChange,
					TotalBets:       gs.TotalBets,
					TotalTaken:      gs.TotalTaken,
					DurationSeconds: gs.DurationSeconds,
					Active:          gs.Active,
					JoinedAt:        gs.JoinedAt,
					LeftAt:          gs.LeftAt,
				}
			}),
			Bets: lo.Map(bets, func(b store.BettingEntry, _ int) BetView {
				return BetView{
					RoomCode:    b.RoomCode,
					Action:      b.Action,
					Amount:      b.Amount,
					PotBefore:   b.PotBefore,
					PotAfter:    b.PotAfter,
					StackBefore: b.StackBefore,
					StackAfter:  b.StackAfter,
					CreatedAt:   b.CreatedAt,
				}
			}),
			Payments: lo.Map(pays, func(p store.Payment, _ int) PaymentView {
				return PaymentView{
					CheckoutRef: p.CheckoutRef,
					PackageID:   p.PackageID,
					AmountCents: p.AmountCents,
					Chips:       p.Chips,
					Status:      p.Status,
					CreatedAt:   p.CreatedAt,
					CompletedAt: p.CompletedAt,
				}
			}),
			Achievements: lo.Map(achievements, func(x store.Achievement, _ int) AchievementView {
				return AchievementView{Kind: x.Kind, Name: x.Name, Description: x.Description, Value: x.Value, UnlockedAt: x.UnlockedAt}
			}),
		}
		out.Stats.CompletedPayment = lo.CountBy(pays, func(p store.Payment) bool { return p.Status == store.PaymentCompleted })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ComputeStats summarizes game sessions. A session counts as a win when it
// ended above its buy-in; the win rate is a rounded percentage.
func ComputeStats(sessions []store.GameSession) Stats {
	st := Stats{
		TotalGames:      len(sessions),
		NetProfit:       lo.SumBy(sessions, func(gs store.GameSession) int64 { return gs.NetChange }),
		TotalTimePlayed: lo.SumBy(sessions, func(gs store.GameSession) int64 { return gs.DurationSeconds }),
		ActiveSessions:  lo.CountBy(sessions, func(gs store.GameSession) bool { return gs.Active }),
	}
	wins := lo.CountBy(sessions, func(gs store.GameSession) bool { return gs.NetChange > 0 })
	if st.TotalGames > 0 {
		st.WinRate = int(math.Round(float64(wins) / float64(st.TotalGames) * 100))
	}
	return st
}

func accountView(a *store.Account) AccountView {
	return AccountView{IdentityID: a.ID, DisplayName: a.DisplayName, Balance: a.Balance, CreatedAt: a.CreatedAt}
}
