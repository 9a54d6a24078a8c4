package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m10djcompany/ledgerlink/internal/config"
	"github.com/m10djcompany/ledgerlink/internal/providers/stripe/domain"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) domain.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.Config{
		StripeAPIBase:   srv.URL,
		StripeSecretKey: "sk_test_123",
	}, zap.NewNop())
}

func TestGetConfirmation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents/pi_abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{
			"id": "pi_abc",
			"status": "succeeded",
			"amount": 50000,
			"currency": "usd",
			"created": 1767225600,
			"metadata": {"lead_id": "1069", "payment_type": "deposit"}
		}`))
	})

	conf, err := c.GetConfirmation(context.Background(), "pi_abc")
	if err != nil {
		t.Fatalf("GetConfirmation: %v", err)
	}
	if conf.ID != "pi_abc" || conf.Amount != 50000 {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if !conf.Succeeded() {
		t.Fatal("expected succeeded confirmation")
	}
	if conf.LeadID() != "1069" {
		t.Fatalf("LeadID() = %q", conf.LeadID())
	}
	if conf.PaymentType() != "deposit" {
		t.Fatalf("PaymentType() = %q", conf.PaymentType())
	}
	if conf.Created.Unix() != 1767225600 {
		t.Fatalf("Created = %v", conf.Created)
	}
}

func TestGetConfirmationNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetConfirmation(context.Background(), "pi_missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetConfirmationServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetConfirmation(context.Background(), "pi_abc")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearchSucceeded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		want := "metadata['lead_id']:'1069' AND status:'succeeded'"
		if got := r.URL.Query().Get("query"); got != want {
			t.Errorf("query = %q, want %q", got, want)
		}
		w.Write([]byte(`{"data": [
			{"id": "pi_new", "status": "succeeded", "amount": 50000, "currency": "usd", "created": 1767312000, "metadata": {"lead_id": "1069"}},
			{"id": "pi_old", "status": "succeeded", "amount": 50000, "currency": "usd", "created": 1767225600, "metadata": {"lead_id": "1069"}}
		], "has_more": false}`))
	})

	got, err := c.SearchSucceeded(context.Background(), "1069", 10)
	if err != nil {
		t.Fatalf("SearchSucceeded: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 confirmations, got %d", len(got))
	}
	if got[0].ID != "pi_new" {
		t.Fatalf("expected most recent first, got %s", got[0].ID)
	}
}

func TestListRecent(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("created[gte]"); got != "1767225600" {
			t.Errorf("created[gte] = %q", got)
		}
		w.Write([]byte(`{"data": [
			{"id": "pi_1", "status": "succeeded", "amount": 150000, "currency": "usd", "created": 1767312000, "metadata": {}}
		], "has_more": false}`))
	})

	got, err := c.ListRecent(context.Background(), since, 100)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 1 || got[0].ID != "pi_1" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestMissingSecretKey(t *testing.T) {
	c := NewClient(config.Config{StripeAPIBase: "http://127.0.0.1:1"}, zap.NewNop())

	_, err := c.GetConfirmation(context.Background(), "pi_abc")
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
