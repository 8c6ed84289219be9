package httptransport

import (
	"net/http"

	apptable "chiptable/internal/app/table"
	"chiptable/internal/auth"
	"chiptable/internal/game"
	"chiptable/internal/ratelimit"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type TableHandlers struct {
	tables  *apptable.Service
	limiter ratelimit.Limiter
}

func NewTableHandlers(tables *apptable.Service, limiter ratelimit.Limiter) *TableHandlers {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	return &TableHandlers{tables: tables, limiter: limiter}
}

type createTableRequest struct {
	DisplayName string `json:"display_name"`
}

type joinTableRequest struct {
	RoomCode    string `json:"room_code"`
	DisplayName string `json:"display_name"`
}

type actionRequest struct {
	Action string `json:"action"`
	SeatID string `json:"seat_id"`
	Amount int64  `json:"amount"`
}

// displayName prefers the name sent with the request and falls back to the
// one carried by the token.
func displayName(requested string, id auth.Identity) string {
	if requested != "" {
		return requested
	}
	return id.Name
}

func (h *TableHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		var req createTableRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		metricTableCreateTotal.Add(1)
		resp, err := h.tables.CreateTable(r.Context(), id.ID, displayName(req.DisplayName, id))
		if err != nil {
			metricTableCreateErrors.Add(1)
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *TableHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		var req joinTableRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !h.allow(w, r, id.ID, ratelimit.ClassJoin) {
			return
		}
		metricJoinTotal.Add(1)
		resp, err := h.tables.Join(r.Context(), apptable.JoinInput{
			IdentityID:  id.ID,
			RoomCode:    req.RoomCode,
			DisplayName: displayName(req.DisplayName, id),
		})
		if err != nil {
			metricJoinErrors.Add(1)
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *TableHandlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		resp, err := h.tables.State(r.Context(), chi.URLParam(r, "room_code"), id.ID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *TableHandlers) Leave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		resp, err := h.tables.Leave(r.Context(), id.ID, chi.URLParam(r, "table_id"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *TableHandlers) Act() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		var req actionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if kind, err := game.ParseActionKind(req.Action); err == nil && kind != game.ActionHeartbeat {
			if !h.allow(w, r, id.ID, ratelimit.ClassAction) {
				return
			}
		}
		metricActionSubmitTotal.Add(1)
		resp, err := h.tables.Act(r.Context(), apptable.ActionInput{
			Action:     req.Action,
			SeatID:     req.SeatID,
			IdentityID: id.ID,
			Amount:     req.Amount,
		})
		if err != nil {
			metricActionSubmitErrors.Add(1)
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// SignOut vacates every seat the caller still holds.
func (h *TableHandlers) SignOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		left, err := h.tables.LeaveAll(r.Context(), id.ID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "left": left})
	}
}

// allow fails open when the limiter itself is unavailable.
func (h *TableHandlers) allow(w http.ResponseWriter, r *http.Request, identityID string, class ratelimit.Class) bool {
	ok, err := h.limiter.Allow(r.Context(), identityID, class)
	if err != nil {
		log.Warn().Err(err).Str("class", string(class)).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metricRateLimitedTotal.Add(1)
		writeAppError(w, r, ratelimit.ErrLimited)
		return false
	}
	return true
}
