package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apppayment "chiptable/internal/app/payment"
	appprofile "chiptable/internal/app/profile"
	apptable "chiptable/internal/app/table"
	"chiptable/internal/auth"
	"chiptable/internal/config"
	"chiptable/internal/ledger"
	"chiptable/internal/payments"
	"chiptable/internal/ratelimit"
	"chiptable/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testJWTSecret     = "jwt-secret"
	testWebhookSecret = "whsec_test"
	testAdminKey      = "admin-key"
)

type testEnv struct {
	router   *chi.Mux
	store    *store.MemStore
	identity *auth.Verifier
}

func newTestEnv(t *testing.T, limiter ratelimit.Limiter) *testEnv {
	t.Helper()
	ms := store.NewMemStore()
	tableCfg := config.TableConfig{
		EntryFee:        1000,
		MaxSeats:        8,
		PresenceTimeout: 30 * time.Second,
		StartingBalance: 1000,
		ActivityLimit:   50,
		HistoryLimit:    100,
		MaxAttempts:     5,
		RoomCodeLength:  5,
		RoomCodeTries:   10,
	}
	l := ledger.New(ms, tableCfg.MaxAttempts)
	payCfg := config.PaymentConfig{PublicURL: "http://localhost:8080"}
	idv := auth.NewVerifier(testJWTSecret, "")
	router := NewRouter(Deps{
		Store:       ms,
		Tables:      apptable.NewService(l, tableCfg),
		Payments:    apppayment.NewService(l, payments.LocalCheckout{PublicURL: payCfg.PublicURL}, payCfg, tableCfg.StartingBalance),
		Profiles:    appprofile.NewService(l, tableCfg.StartingBalance, tableCfg.HistoryLimit),
		Identity:    idv,
		Webhooks:    payments.NewVerifier(testWebhookSecret, 0),
		Limiter:     limiter,
		AdminAPIKey: testAdminKey,
	})
	return &testEnv{router: router, store: ms, identity: idv}
}

func (e *testEnv) token(t *testing.T, id, name string) string {
	t.Helper()
	tok, err := e.identity.Issue(id, name, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d body=%s", want, w.Code, w.Body.String())
	}
}

func (e *testEnv) fund(t *testing.T, id string, balance int64) {
	t.Helper()
	err := e.store.InTx(context.Background(), func(q store.Querier) error {
		a, err := ledger.EnsureAccount(context.Background(), q, id, id, 1000)
		if err != nil {
			return err
		}
		a.Balance = balance
		return q.UpdateAccount(context.Background(), a)
	})
	if err != nil {
		t.Fatalf("fund %s: %v", id, err)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[map[string]any](t, w); got["ok"] != true {
		t.Fatalf("unexpected health body %v", got)
	}
}

func TestAPIRequiresIdentity(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/api/me", "/api/profile", "/api/packages", "/api/tables/ABCDE"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		expectStatus(t, w, http.StatusUnauthorized)
		if got := decode[map[string]string](t, w); got["code"] != "unauthorized" {
			t.Fatalf("%s: unexpected body %v", path, got)
		}
	}
	w := env.do(t, http.MethodGet, "/api/me", "garbage", nil)
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestTableFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.token(t, "alice", "Alice")
	bob := env.token(t, "bob", "Bob")
	env.fund(t, "bob", 2500)

	w := env.do(t, http.MethodPost, "/api/tables", alice, map[string]string{})
	expectStatus(t, w, http.StatusOK)
	created := decode[apptable.CreateResult](t, w)
	if len(created.RoomCode) != 5 {
		t.Fatalf("unexpected room code %q", created.RoomCode)
	}

	w = env.do(t, http.MethodPost, "/api/tables/join", alice, map[string]string{"room_code": created.RoomCode})
	expectStatus(t, w, http.StatusOK)
	aliceSeat := decode[apptable.JoinResult](t, w)

	w = env.do(t, http.MethodPost, "/api/tables/join", bob, map[string]string{"room_code": created.RoomCode, "display_name": "Bobby"})
	expectStatus(t, w, http.StatusOK)
	bobSeat := decode[apptable.JoinResult](t, w)

	w = env.do(t, http.MethodPost, "/api/actions", alice, map[string]any{"action": "bet", "seat_id": aliceSeat.SeatID, "amount": 300})
	expectStatus(t, w, http.StatusOK)
	if got := decode[apptable.ActionResult](t, w); got.Pot != 300 || got.Stack != 700 {
		t.Fatalf("unexpected bet result %+v", got)
	}

	w = env.do(t, http.MethodPost, "/api/actions", bob, map[string]any{"action": "take", "seat_id": bobSeat.SeatID, "amount": 500})
	expectStatus(t, w, http.StatusBadRequest)
	if got := decode[map[string]string](t, w); got["code"] == "" || got["error"] == "" {
		t.Fatalf("expected error body, got %v", got)
	}

	w = env.do(t, http.MethodPost, "/api/actions", bob, map[string]any{"action": "bet", "seat_id": aliceSeat.SeatID, "amount": 10})
	if w.Code < 400 {
		t.Fatalf("acting on another player's seat should fail, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/tables/"+created.RoomCode, bob, nil)
	expectStatus(t, w, http.StatusOK)
	state := decode[apptable.StateView](t, w)
	if state.Pot != 300 || len(state.Seats) != 2 || state.You == nil || state.You.DisplayName != "Bobby" {
		t.Fatalf("unexpected state %+v", state)
	}
	if len(state.Activity) == 0 || state.Activity[0].Kind != "bet" {
		t.Fatalf("expected newest activity first, got %+v", state.Activity)
	}

	w = env.do(t, http.MethodPost, "/api/tables/"+created.TableID+"/leave", alice, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[apptable.LeaveResult](t, w); got.EndingChips != 700 || got.NetChange != -300 {
		t.Fatalf("unexpected leave result %+v", got)
	}

	w = env.do(t, http.MethodGet, "/api/admin/tables/"+created.TableID+"/audit", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/tables/"+created.TableID+"/audit", nil)
	req.Header.Set("X-Admin-Key", testAdminKey)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[apptable.AuditReport](t, rec); !got.Balanced {
		t.Fatalf("expected balanced table, got %+v", got)
	}

	w = env.do(t, http.MethodPost, "/api/signout", bob, nil)
	expectStatus(t, w, http.StatusOK)
	w = env.do(t, http.MethodGet, "/api/me", bob, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[appprofile.AccountView](t, w); got.Balance != 2500 {
		t.Fatalf("expected bob cashed out to 2500, got %+v", got)
	}
}

func TestJoinErrorsOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	carol := env.token(t, "carol", "Carol")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing code", map[string]string{}, http.StatusBadRequest, "missing_fields"},
		{"unknown room", map[string]string{"room_code": "ZZZZZ"}, http.StatusNotFound, "room_not_found"},
		{"bad name", map[string]string{"room_code": "ZZZZZ", "display_name": "x"}, http.StatusBadRequest, "invalid_display_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/tables/join", carol, tt.body)
			expectStatus(t, w, tt.status)
			if got := decode[map[string]string](t, w); got["code"] != tt.code {
				t.Fatalf("expected code %q, got %v", tt.code, got)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tables/join", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+carol)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusBadRequest)
}

type countingLimiter struct {
	limit int
	seen  map[ratelimit.Class]int
}

func (l *countingLimiter) Allow(_ context.Context, _ string, class ratelimit.Class) (bool, error) {
	l.seen[class]++
	return l.seen[class] <= l.limit, nil
}

func TestActionsAreRateLimitedExceptHeartbeat(t *testing.T) {
	limiter := &countingLimiter{limit: 1, seen: map[ratelimit.Class]int{}}
	env := newTestEnv(t, limiter)
	dave := env.token(t, "dave", "Dave")

	w := env.do(t, http.MethodPost, "/api/tables", dave, map[string]string{})
	expectStatus(t, w, http.StatusOK)
	created := decode[apptable.CreateResult](t, w)
	w = env.do(t, http.MethodPost, "/api/tables/join", dave, map[string]string{"room_code": created.RoomCode})
	expectStatus(t, w, http.StatusOK)
	seat := decode[apptable.JoinResult](t, w)

	w = env.do(t, http.MethodPost, "/api/actions", dave, map[string]any{"action": "check", "seat_id": seat.SeatID})
	expectStatus(t, w, http.StatusOK)
	w = env.do(t, http.MethodPost, "/api/actions", dave, map[string]any{"action": "check", "seat_id": seat.SeatID})
	expectStatus(t, w, http.StatusTooManyRequests)
	for i := 0; i < 3; i++ {
		w = env.do(t, http.MethodPost, "/api/actions", dave, map[string]any{"action": "heartbeat", "seat_id": seat.SeatID})
		expectStatus(t, w, http.StatusOK)
	}
	if limiter.seen[ratelimit.ClassAction] != 2 {
		t.Fatalf("heartbeats must not reach the limiter, saw %d action checks", limiter.seen[ratelimit.ClassAction])
	}
}

func completedEvent(ref, identity string, chips int64) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":%q,"payment_intent":"pi_1","amount_total":999,"payment_method_types":["card"],"metadata":{"user_id":%q,"package_id":"popular","chips":"%d"}}}}`, ref, identity, chips))
}

func (e *testEnv) webhook(t *testing.T, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payments", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(payments.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCheckoutAndWebhookSettlement(t *testing.T) {
	env := newTestEnv(t, nil)
	erin := env.token(t, "erin", "Erin")

	w := env.do(t, http.MethodGet, "/api/packages", erin, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[map[string][]apppayment.Package](t, w); len(got["items"]) != 4 {
		t.Fatalf("expected four packages, got %v", got)
	}

	w = env.do(t, http.MethodPost, "/api/checkout", erin, map[string]string{"package_id": "nope"})
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodPost, "/api/checkout", erin, map[string]string{"package_id": "popular"})
	expectStatus(t, w, http.StatusOK)
	co := decode[apppayment.CheckoutResult](t, w)

	payload := completedEvent(co.CheckoutRef, "erin", 3000)

	w = env.webhook(t, payload, "")
	expectStatus(t, w, http.StatusBadRequest)
	if got := decode[map[string]string](t, w); got["code"] != "bad_signature" {
		t.Fatalf("expected bad_signature, got %v", got)
	}
	w = env.webhook(t, payload, payments.Sign("wrong", payload, time.Now()))
	expectStatus(t, w, http.StatusBadRequest)

	for i := 0; i < 2; i++ {
		w = env.webhook(t, payload, payments.Sign(testWebhookSecret, payload, time.Now()))
		expectStatus(t, w, http.StatusOK)
	}

	w = env.do(t, http.MethodGet, "/api/profile", erin, nil)
	expectStatus(t, w, http.StatusOK)
	prof := decode[appprofile.Profile](t, w)
	if prof.Account.Balance != 4000 {
		t.Fatalf("expected a single credit of 3000 on top of 1000, got %d", prof.Account.Balance)
	}
	if len(prof.Payments) != 1 || prof.Payments[0].Status != store.PaymentCompleted {
		t.Fatalf("unexpected payments %+v", prof.Payments)
	}
	if len(prof.Achievements) != 1 || prof.Achievements[0].Kind != "first_purchase" {
		t.Fatalf("unexpected achievements %+v", prof.Achievements)
	}

	unknown := completedEvent("cs_unknown", "erin", 3000)
	w = env.webhook(t, unknown, payments.Sign(testWebhookSecret, unknown, time.Now()))
	expectStatus(t, w, http.StatusNotFound)
}

func TestDebugVarsRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/debug/vars", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = env.do(t, http.MethodGet, "/api/debug/vars", testAdminKey, nil)
	expectStatus(t, w, http.StatusOK)
	vars := decode[map[string]any](t, w)
	if _, ok := vars["action_submit_total"]; !ok {
		t.Fatalf("expected action counters in expvar output")
	}
}
