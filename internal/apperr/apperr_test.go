package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusByKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "validation", err: New(KindValidation, "missing_fields", "Missing required fields"), status: http.StatusBadRequest, code: "missing_fields"},
		{name: "not found", err: New(KindNotFound, "room_not_found", "Room not found"), status: http.StatusNotFound, code: "room_not_found"},
		{name: "business", err: New(KindBusinessRule, "table_full", "Table is full"), status: http.StatusBadRequest, code: "table_full"},
		{name: "conflict", err: New(KindConflict, "contention", "Try again"), status: http.StatusConflict, code: "contention"},
		{name: "upstream", err: New(KindUpstream, "provider_unavailable", "Payment provider unavailable"), status: http.StatusBadGateway, code: "provider_unavailable"},
		{name: "override", err: New(KindUpstream, "bad_signature", "Bad signature").WithStatus(http.StatusBadRequest), status: http.StatusBadRequest, code: "bad_signature"},
		{name: "wrapped", err: fmt.Errorf("join: %w", New(KindBusinessRule, "insufficient_balance", "x")), status: http.StatusBadRequest, code: "insufficient_balance"},
		{name: "plain", err: errors.New("boom"), status: http.StatusInternalServerError, code: "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := HTTPStatus(tt.err)
			if status != tt.status || code != tt.code {
				t.Fatalf("HTTPStatus() = %d %q, want %d %q", status, code, tt.status, tt.code)
			}
		})
	}
}

func TestWithStatusStillMatchesSentinel(t *testing.T) {
	sentinel := New(KindUpstream, "bad_signature", "Webhook signature verification failed")
	err := fmt.Errorf("verify: %w", sentinel.WithStatus(http.StatusBadRequest))
	if !errors.Is(err, sentinel) {
		t.Fatal("expected errors.Is to match the sentinel")
	}
	if Message(err) != "Webhook signature verification failed" {
		t.Fatalf("unexpected message %q", Message(err))
	}
	if Message(errors.New("x")) != "Internal server error" {
		t.Fatal("unclassified errors must not leak their text")
	}
}
