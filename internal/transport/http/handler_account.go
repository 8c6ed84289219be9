package httptransport

import (
	"net/http"

	appprofile "chiptable/internal/app/profile"
	"chiptable/internal/auth"
)

type AccountHandlers struct {
	profiles *appprofile.Service
}

func NewAccountHandlers(profiles *appprofile.Service) *AccountHandlers {
	return &AccountHandlers{profiles: profiles}
}

func (h *AccountHandlers) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		resp, err := h.profiles.Me(r.Context(), id.ID, id.Name)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AccountHandlers) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		resp, err := h.profiles.Profile(r.Context(), id.ID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
