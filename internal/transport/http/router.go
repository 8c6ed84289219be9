package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	apppayment "chiptable/internal/app/payment"
	appprofile "chiptable/internal/app/profile"
	apptable "chiptable/internal/app/table"
	"chiptable/internal/auth"
	"chiptable/internal/payments"
	"chiptable/internal/ratelimit"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Store       Pinger
	Tables      *apptable.Service
	Payments    *apppayment.Service
	Profiles    *appprofile.Service
	Identity    *auth.Verifier
	Webhooks    *payments.Verifier
	Limiter     ratelimit.Limiter
	AdminAPIKey string
}

func NewRouter(d Deps) *chi.Mux {
	tableHandlers := NewTableHandlers(d.Tables, d.Limiter)
	accountHandlers := NewAccountHandlers(d.Profiles)
	paymentHandlers := NewPaymentHandlers(d.Payments, d.Webhooks)
	adminHandlers := NewAdminHandlers(d.Store, d.Tables)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/webhooks/payments", paymentHandlers.Webhook())

		r.Group(func(r chi.Router) {
			r.Use(IdentityMiddleware(d.Identity))
			r.Post("/tables", tableHandlers.Create())
			r.Post("/tables/join", tableHandlers.Join())
			r.Get("/tables/{room_code}", tableHandlers.State())
			r.Post("/tables/{table_id}/leave", tableHandlers.Leave())
			r.Post("/actions", tableHandlers.Act())
			r.Post("/signout", tableHandlers.SignOut())
			r.Get("/me", accountHandlers.Me())
			r.Get("/profile", accountHandlers.Profile())
			r.Get("/packages", paymentHandlers.Packages())
			r.Post("/checkout", paymentHandlers.Checkout())
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(d.AdminAPIKey))
			r.Get("/admin/tables/{table_id}/audit", adminHandlers.Audit())

			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
