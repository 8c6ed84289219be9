package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifierRoundTrip(t *testing.T) {
	v := NewVerifier("secret", "idp")
	tok, err := v.Issue("u1", "Ann", jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := v.Identity(tok)
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if id.ID != "u1" || id.Name != "Ann" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestVerifierRejects(t *testing.T) {
	v := NewVerifier("secret", "idp")
	expired, _ := v.Issue("u1", "", jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})
	otherKey, _ := NewVerifier("other", "idp").Issue("u1", "", jwt.RegisteredClaims{})
	otherIssuer, _ := NewVerifier("secret", "elsewhere").Issue("u1", "", jwt.RegisteredClaims{})
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "idp"}}).SignedString([]byte("secret"))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: "idp"}}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"wrong key", otherKey, ErrInvalidToken},
		{"wrong issuer", otherIssuer, ErrInvalidToken},
		{"no subject", noSubject, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Identity(tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("Identity() err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := BearerToken(r); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
	r.Header.Set("Authorization", "Bearer abc")
	if got := BearerToken(r); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	r.Header.Set("Authorization", "Basic abc")
	if got := BearerToken(r); got != "" {
		t.Fatalf("expected empty token for basic auth, got %q", got)
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no identity")
	}
	ctx := WithIdentity(context.Background(), Identity{ID: "u1"})
	if id, ok := FromContext(ctx); !ok || id.ID != "u1" {
		t.Fatalf("unexpected identity %+v ok=%v", id, ok)
	}
}
