package table

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"chiptable/internal/config"
	"chiptable/internal/game"
	"chiptable/internal/ledger"
	"chiptable/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var displayNamePattern = regexp.MustCompile(`^[A-Za-z0-9]{2,20}$`)

type Service struct {
	ledger   *ledger.Ledger
	cfg      config.TableConfig
	presence game.Presence
	now      func() time.Time
	newCode  func() (string, error)
}

func NewService(l *ledger.Ledger, cfg config.TableConfig) *Service {
	s := &Service{
		ledger:   l,
		cfg:      cfg,
		presence: game.Presence{Timeout: cfg.PresenceTimeout},
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.newCode = func() (string, error) { return game.GenerateRoomCode(nil, cfg.RoomCodeLength) }
	return s
}

func ValidDisplayName(name string) bool {
	return displayNamePattern.MatchString(name)
}

func normalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateTable opens a table with an empty pot under a fresh room code. The
// creator is not seated; they join like everyone else.
func (s *Service) CreateTable(ctx context.Context, identityID, displayName string) (*CreateResult, error) {
	if identityID == "" || displayName == "" {
		return nil, ErrMissingFields
	}
	if !ValidDisplayName(displayName) {
		return nil, ErrInvalidDisplayName
	}
	attempts := s.cfg.RoomCodeTries
	if attempts <= 0 {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		var out CreateResult
		err = s.ledger.Update(ctx, "create_table", func(q store.Querier) error {
			acct, err := ledger.EnsureAccount(ctx, q, identityID, displayName, s.cfg.StartingBalance)
			if err != nil {
				return err
			}
			if acct.DisplayName != displayName {
				acct.DisplayName = displayName
				if err := q.UpdateAccount(ctx, acct); err != nil {
					return err
				}
			}
			t := store.Table{ID: store.NewID(), RoomCode: code, CreatedBy: identityID, CreatedAt: s.now()}
			if err := q.InsertTable(ctx, t); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return errRoomCodeTaken
				}
				return err
			}
			out = CreateResult{TableID: t.ID, RoomCode: code}
			return nil
		})
		if errors.Is(err, errRoomCodeTaken) {
			log.Debug().Str("room_code", code).Int("attempt", i+1).Msg("room_code_collision")
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Info().Str("table_id", out.TableID).Str("room_code", code).Str("identity_id", identityID).Msg("table_created")
		return &out, nil
	}
	log.Error().Int("attempts", attempts).Msg("room_code_exhausted")
	return nil, ErrCodeExhausted
}

// Join seats identityID at the table behind roomCode. An identity that is
// still seated reconnects without paying again; otherwise the entry fee is
// moved from the account into a new stack.
func (s *Service) Join(ctx context.Context, in JoinInput) (*JoinResult, error) {
	code := normalizeRoomCode(in.RoomCode)
	if in.IdentityID == "" || code == "" || in.DisplayName == "" {
		return nil, ErrMissingFields
	}
	if !ValidDisplayName(in.DisplayName) {
		return nil, ErrInvalidDisplayName
	}

	var out JoinResult
	err := s.ledger.Update(ctx, "join", func(q store.Querier) error {
		now := s.now()
		t, err := q.GetTableByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		acct, err := ledger.EnsureAccount(ctx, q, in.IdentityID, in.DisplayName, s.cfg.StartingBalance)
		if err != nil {
			return err
		}
		seat, err := q.FindSeat(ctx, t.ID, in.IdentityID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			seat = nil
		case err != nil:
			return err
		}

		if seat != nil && seat.Seated {
			if err := s.reconnect(ctx, q, t, seat, now); err != nil {
				return err
			}
			out = JoinResult{TableID: t.ID, RoomCode: t.RoomCode, SeatID: seat.ID, Rejoined: true}
			return nil
		}

		if acct.Balance < s.cfg.EntryFee {
			return ErrInsufficientChips.WithMessage(fmt.Sprintf(
				"Insufficient chips. You need at least %s chips to join a table.", game.FormatChips(s.cfg.EntryFee)))
		}
		seatID := ""
		if seat != nil {
			seatID = seat.ID
		}
		if err := s.checkCapacity(ctx, q, t.ID, seatID, now); err != nil {
			return err
		}

		if seat != nil {
			seat.DisplayName = in.DisplayName
			seat.Stack = s.cfg.EntryFee
			seat.CurrentBet = 0
			seat.Folded = false
			seat.Checked = false
			seat.Online = true
			seat.Seated = true
			seat.LastSeen = now
			if err := q.UpdateSeat(ctx, seat); err != nil {
				return err
			}
		} else {
			fresh := store.Seat{
				ID:          store.NewID(),
				TableID:     t.ID,
				IdentityID:  in.IdentityID,
				DisplayName: in.DisplayName,
				Stack:       s.cfg.EntryFee,
				Online:      true,
				Seated:      true,
				LastSeen:    now,
				CreatedAt:   now,
			}
			if err := q.InsertSeat(ctx, fresh); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return store.ErrConflict
				}
				return err
			}
			seat = &fresh
		}
		t.LastActivity = now
		if err := q.UpdateTable(ctx, t); err != nil {
			return err
		}
		acct.DisplayName = in.DisplayName
		if err := ledger.Debit(ctx, q, acct, s.cfg.EntryFee); err != nil {
			return err
		}

		if err := q.InsertGameSession(ctx, store.GameSession{
			ID:            store.NewID(),
			IdentityID:    in.IdentityID,
			TableID:       t.ID,
			RoomCode:      t.RoomCode,
			DisplayName:   in.DisplayName,
			StartingChips: s.cfg.EntryFee,
			EndingChips:   s.cfg.EntryFee,
			Active:        true,
			JoinedAt:      now,
		}); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return store.ErrConflict
			}
			return err
		}
		if err := q.InsertActivity(ctx, store.Activity{
			ID:          store.NewID(),
			TableID:     t.ID,
			IdentityID:  in.IdentityID,
			DisplayName: in.DisplayName,
			Kind:        game.KindJoin,
			Message:     game.JoinMessage(in.DisplayName),
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		out = JoinResult{TableID: t.ID, RoomCode: t.RoomCode, SeatID: seat.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("table_id", out.TableID).
		Str("seat_id", out.SeatID).
		Str("identity_id", in.IdentityID).
		Bool("rejoined", out.Rejoined).
		Msg("seat_joined")
	return &out, nil
}

func (s *Service) reconnect(ctx context.Context, q store.Querier, t *store.Table, seat *store.Seat, now time.Time) error {
	returning := !s.presence.Online(*seat, now)
	if returning {
		if err := s.checkCapacity(ctx, q, t.ID, seat.ID, now); err != nil {
			return err
		}
	}
	seat.Online = true
	seat.LastSeen = now
	if err := q.UpdateSeat(ctx, seat); err != nil {
		return err
	}
	if returning {
		t.LastActivity = now
		if err := q.UpdateTable(ctx, t); err != nil {
			return err
		}
	}
	return q.InsertActivity(ctx, store.Activity{
		ID:          store.NewID(),
		TableID:     t.ID,
		IdentityID:  seat.IdentityID,
		DisplayName: seat.DisplayName,
		Kind:        game.KindReconnect,
		Message:     game.ReconnectMessage(seat.DisplayName),
		CreatedAt:   now,
	})
}

// checkCapacity fails when seatID cannot come online without exceeding the
// seat limit. Callers that admit the seat must also write the table row in
// the same unit, so two admissions racing for the last seat cannot both
// commit. Rows are written seat first, then table, then session, then
// account.
func (s *Service) checkCapacity(ctx context.Context, q store.Querier, tableID, seatID string, now time.Time) error {
	seats, err := q.ListSeats(ctx, tableID)
	if err != nil {
		return err
	}
	if s.presence.CountOnline(seats, seatID, now) >= s.maxSeats() {
		return ErrTableFull.WithMessage(fmt.Sprintf("Table is full (%d players maximum)", s.maxSeats()))
	}
	return nil
}

func (s *Service) maxSeats() int {
	if s.cfg.MaxSeats <= 0 {
		return 8
	}
	return s.cfg.MaxSeats
}

// Leave cashes the seat's stack out to the account, closes the open game
// session and frees the seat for reuse.
func (s *Service) Leave(ctx context.Context, identityID, tableID string) (*LeaveResult, error) {
	if identityID == "" || tableID == "" {
		return nil, ErrMissingFields
	}
	var out LeaveResult
	err := s.ledger.Update(ctx, "leave", func(q store.Querier) error {
		now := s.now()
		seat, err := q.FindSeat(ctx, tableID, identityID)
		if errors.Is(err, store.ErrNotFound) {
			if _, terr := q.GetTable(ctx, tableID); errors.Is(terr, store.ErrNotFound) {
				return ErrRoomNotFound
			}
			return ErrPlayerNotFound
		}
		if err != nil {
			return err
		}
		if !seat.Seated {
			return ErrPlayerNotFound
		}
		t, err := q.GetTable(ctx, tableID)
		if err != nil {
			return err
		}
		acct, err := q.GetAccount(ctx, identityID)
		if err != nil {
			return err
		}

		ending := seat.Stack
		name := seat.DisplayName
		seat.Stack = 0
		seat.CurrentBet = 0
		seat.Folded = false
		seat.Checked = false
		seat.Online = false
		seat.Seated = false
		seat.LastSeen = now
		if err := q.UpdateSeat(ctx, seat); err != nil {
			return err
		}
		t.LastActivity = now
		if err := q.UpdateTable(ctx, t); err != nil {
			return err
		}

		out = LeaveResult{TableID: tableID, SeatID: seat.ID, EndingChips: ending, Credited: ending}
		gs, err := q.FindActiveSession(ctx, identityID, tableID)
		switch {
		case err == nil:
			gs.EndingChips = ending
			gs.NetChange = ending - gs.StartingChips
			gs.DurationSeconds = int64(now.Sub(gs.JoinedAt).Seconds())
			gs.Active = false
			gs.LeftAt = &now
			if err := q.UpdateGameSession(ctx, gs); err != nil {
				return err
			}
			out.NetChange = gs.NetChange
		case errors.Is(err, store.ErrNotFound):
			// The stack was never booked in by a session. Record a closed
			// one that books it in and out so the credit is accounted for.
			log.Warn().Str("table_id", tableID).Str("identity_id", identityID).Int64("ending_chips", ending).Msg("leave_without_session")
			if err := q.InsertGameSession(ctx, store.GameSession{
				ID:            store.NewID(),
				IdentityID:    identityID,
				TableID:       tableID,
				RoomCode:      t.RoomCode,
				DisplayName:   name,
				StartingChips: ending,
				EndingChips:   ending,
				Active:        false,
				JoinedAt:      now,
				LeftAt:        &now,
			}); err != nil {
				return err
			}
		default:
			return err
		}

		if err := ledger.Credit(ctx, q, acct, ending); err != nil {
			return err
		}
		return q.InsertActivity(ctx, store.Activity{
			ID:          store.NewID(),
			TableID:     tableID,
			IdentityID:  identityID,
			DisplayName: name,
			Kind:        game.KindLeave,
			Message:     game.LeaveMessage(name),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("table_id", tableID).
		Str("identity_id", identityID).
		Int64("ending_chips", out.EndingChips).
		Int64("net_change", out.NetChange).
		Msg("seat_left")
	return &out, nil
}

// LeaveAll leaves every table the identity is seated at; used on sign-out.
// Each table is settled in its own unit of work.
func (s *Service) LeaveAll(ctx context.Context, identityID string) ([]LeaveResult, error) {
	if identityID == "" {
		return nil, ErrMissingFields
	}
	var seats []store.Seat
	if err := s.ledger.View(ctx, func(q store.Querier) error {
		var err error
		seats, err = q.ListSeatedByIdentity(ctx, identityID)
		return err
	}); err != nil {
		return nil, err
	}
	out := make([]LeaveResult, 0, len(seats))
	for _, seat := range seats {
		res, err := s.Leave(ctx, identityID, seat.TableID)
		if errors.Is(err, ErrPlayerNotFound) {
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, *res)
	}
	return out, nil
}

// Act applies one of the five seat actions on behalf of the seat's owner.
func (s *Service) Act(ctx context.Context, in ActionInput) (*ActionResult, error) {
	if in.Action == "" || in.SeatID == "" || in.IdentityID == "" {
		return nil, ErrMissingFields
	}
	kind, err := game.ParseActionKind(in.Action)
	if err != nil {
		return nil, err
	}

	var out ActionResult
	err = s.ledger.Update(ctx, "action_"+string(kind), func(q store.Querier) error {
		now := s.now()
		seat, err := q.GetSeat(ctx, in.SeatID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrPlayerNotFound
		}
		if err != nil {
			return err
		}
		if seat.IdentityID != in.IdentityID {
			return ErrPlayerNotFound
		}
		t, err := q.GetTable(ctx, seat.TableID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		returning := kind == game.ActionHeartbeat && seat.Seated && !s.presence.Online(*seat, now)
		if returning {
			if err := s.checkCapacity(ctx, q, t.ID, seat.ID, now); err != nil {
				return err
			}
		}

		move, err := game.Apply(kind, seat, t, in.Amount, now)
		if err != nil {
			return err
		}
		if err := q.UpdateSeat(ctx, seat); err != nil {
			return err
		}
		if kind.MovesChips() || returning {
			if err := q.UpdateTable(ctx, t); err != nil {
				return err
			}
		}
		if kind.MovesChips() {
			if err := s.recordMove(ctx, q, seat, t, move, now); err != nil {
				return err
			}
		}
		if kind.Logged() {
			act := store.Activity{
				ID:          store.NewID(),
				TableID:     t.ID,
				IdentityID:  seat.IdentityID,
				DisplayName: seat.DisplayName,
				Kind:        string(kind),
				Message:     game.ActionMessage(seat.DisplayName, move),
				CreatedAt:   now,
			}
			if kind.MovesChips() {
				act.Amount = lo.ToPtr(move.Amount)
			}
			if err := q.InsertActivity(ctx, act); err != nil {
				return err
			}
		}
		out = ActionResult{Action: string(kind), SeatID: seat.ID, Stack: seat.Stack, CurrentBet: seat.CurrentBet, Pot: t.Pot}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if kind != game.ActionHeartbeat {
		log.Debug().Str("seat_id", in.SeatID).Str("action", string(kind)).Int64("amount", in.Amount).Int64("pot", out.Pot).Msg("seat_action")
	}
	return &out, nil
}

// recordMove appends the betting-history entry for a chip move and keeps the
// open session's running totals.
func (s *Service) recordMove(ctx context.Context, q store.Querier, seat *store.Seat, t *store.Table, m game.Move, now time.Time) error {
	gs, err := q.FindActiveSession(ctx, seat.IdentityID, t.ID)
	if errors.Is(err, store.ErrNotFound) {
		log.Error().Str("seat_id", seat.ID).Str("table_id", t.ID).Msg("chip_move_without_session")
		return ErrNoActiveSession
	}
	if err != nil {
		return err
	}
	switch m.Kind {
	case game.ActionBet:
		gs.TotalBets += m.Amount
	case game.ActionTake:
		gs.TotalTaken += m.Amount
	}
	gs.EndingChips = seat.Stack
	gs.NetChange = seat.Stack - gs.StartingChips
	if err := q.UpdateGameSession(ctx, gs); err != nil {
		return err
	}
	return q.InsertBettingEntry(ctx, store.BettingEntry{
		ID:          store.NewID(),
		IdentityID:  seat.IdentityID,
		SessionID:   gs.ID,
		RoomCode:    t.RoomCode,
		Action:      string(m.Kind),
		Amount:      m.Amount,
		PotBefore:   m.PotBefore,
		PotAfter:    m.PotAfter,
		StackBefore: m.StackBefore,
		StackAfter:  m.StackAfter,
		CreatedAt:   now,
	})
}

// State returns the polling view of a table. identityID may be empty.
func (s *Service) State(ctx context.Context, roomCode, identityID string) (*StateView, error) {
	code := normalizeRoomCode(roomCode)
	if code == "" {
		return nil, ErrMissingFields
	}
	var out StateView
	err := s.ledger.View(ctx, func(q store.Querier) error {
		now := s.now()
		t, err := q.GetTableByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		seats, err := q.ListSeats(ctx, t.ID)
		if err != nil {
			return err
		}
		activity, err := q.ListActivity(ctx, t.ID, s.cfg.ActivityLimit)
		if err != nil {
			return err
		}

		seated := lo.Filter(seats, func(seat store.Seat, _ int) bool { return seat.Seated })
		out = StateView{
			TableID:      t.ID,
			RoomCode:     t.RoomCode,
			Pot:          t.Pot,
			LastActivity: t.LastActivity,
			OnlineCount:  s.presence.CountOnline(seats, "", now),
			MaxSeats:     s.maxSeats(),
			Seats: lo.Map(seated, func(seat store.Seat, _ int) SeatView {
				return s.seatView(seat, now)
			}),
			Activity: lo.Map(activity, func(a store.Activity, _ int) ActivityView {
				return ActivityView{
					ID:          a.ID,
					IdentityID:  a.IdentityID,
					DisplayName: a.DisplayName,
					Kind:        a.Kind,
					Amount:      a.Amount,
					Message:     a.Message,
					CreatedAt:   a.CreatedAt,
				}
			}),
		}
		if me, ok := lo.Find(seated, func(seat store.Seat) bool { return identityID != "" && seat.IdentityID == identityID }); ok {
			view := s.seatView(me, now)
			out.You = &view
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) seatView(seat store.Seat, now time.Time) SeatView {
	return SeatView{
		SeatID:      seat.ID,
		IdentityID:  seat.IdentityID,
		DisplayName: seat.DisplayName,
		Stack:       seat.Stack,
		CurrentBet:  seat.CurrentBet,
		Folded:      seat.Folded,
		Checked:     seat.Checked,
		Online:      s.presence.Online(seat, now),
		LastSeen:    seat.LastSeen,
	}
}

// Audit checks conservation for one table: every chip bought in is either
// still on the table or was cashed out by a leave.
func (s *Service) Audit(ctx context.Context, tableID string) (*AuditReport, error) {
	if tableID == "" {
		return nil, ErrMissingFields
	}
	var out AuditReport
	err := s.ledger.View(ctx, func(q store.Querier) error {
		t, err := q.GetTable(ctx, tableID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		seats, err := q.ListSeats(ctx, tableID)
		if err != nil {
			return err
		}
		sessions, err := q.ListTableSessions(ctx, tableID)
		if err != nil {
			return err
		}
		stacks := lo.SumBy(seats, func(seat store.Seat) int64 { return seat.Stack })
		boughtIn := lo.SumBy(sessions, func(gs store.GameSession) int64 { return gs.StartingChips })
		cashedOut := lo.SumBy(sessions, func(gs store.GameSession) int64 {
			if gs.Active {
				return 0
			}
			return gs.EndingChips
		})
		out = AuditReport{
			TableID:   t.ID,
			RoomCode:  t.RoomCode,
			Pot:       t.Pot,
			Stacks:    stacks,
			InPlay:    t.Pot + stacks,
			BoughtIn:  boughtIn,
			CashedOut: cashedOut,
		}
		out.Balanced = out.InPlay == boughtIn-cashedOut
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Balanced {
		log.Error().Str("table_id", tableID).Int64("in_play", out.InPlay).Int64("bought_in", out.BoughtIn).Int64("cashed_out", out.CashedOut).Msg("table_audit_mismatch")
	}
	return &out, nil
}
