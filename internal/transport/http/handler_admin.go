package httptransport

import (
	"context"
	"net/http"

	apptable "chiptable/internal/app/table"

	"github.com/go-chi/chi/v5"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type AdminHandlers struct {
	store  Pinger
	tables *apptable.Service
}

func NewAdminHandlers(st Pinger, tables *apptable.Service) *AdminHandlers {
	return &AdminHandlers{store: st, tables: tables}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) Audit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := h.tables.Audit(r.Context(), chi.URLParam(r, "table_id"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
