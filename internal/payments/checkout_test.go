package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStripeCheckoutCreatesSession(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Errorf("missing api key header")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_remote","object":"checkout.session","url":"https://pay.example/cs_remote"}`))
	}))
	defer srv.Close()

	c := NewStripeCheckout("sk_test", srv.URL+"/", 0)
	sess, err := c.CreateCheckout(context.Background(), CheckoutRequest{
		IdentityID:  "u1",
		PackageID:   "starter",
		Name:        "Starter Pack",
		AmountCents: 499,
		SuccessURL:  "http://localhost/?payment_status=success",
		CancelURL:   "http://localhost/?payment_status=cancelled",
		Metadata:    map[string]string{"user_id": "u1", "package_id": "starter", "chips": "1000"},
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if sess.Ref != "cs_remote" || sess.URL != "https://pay.example/cs_remote" {
		t.Fatalf("unexpected session %+v", sess)
	}
	want := map[string]string{
		"mode":                                   "payment",
		"client_reference_id":                    "u1",
		"line_items[0][price_data][unit_amount]": "499",
		"line_items[0][price_data][currency]":    "usd",
		"metadata[package_id]":                   "starter",
		"metadata[chips]":                        "1000",
	}
	for k, v := range want {
		if form[k] != v {
			t.Fatalf("form[%s] = %q, want %q", k, form[k], v)
		}
	}
}

func TestStripeCheckoutFailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad amount"}}`))
	}))
	defer srv.Close()

	_, err := NewStripeCheckout("sk_test", srv.URL, 0).CreateCheckout(context.Background(), CheckoutRequest{})
	if err == nil || !strings.Contains(err.Error(), "bad amount") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestLocalCheckoutIssuesUniqueRefs(t *testing.T) {
	c := LocalCheckout{PublicURL: "http://localhost:8080/"}
	a, _ := c.CreateCheckout(context.Background(), CheckoutRequest{PackageID: "starter"})
	b, _ := c.CreateCheckout(context.Background(), CheckoutRequest{PackageID: "starter"})
	if a.Ref == b.Ref || !strings.HasPrefix(a.Ref, "cs_") {
		t.Fatalf("unexpected refs %q %q", a.Ref, b.Ref)
	}
	if !strings.HasPrefix(a.URL, "http://localhost:8080/checkout/cs_") {
		t.Fatalf("unexpected url %q", a.URL)
	}
}
