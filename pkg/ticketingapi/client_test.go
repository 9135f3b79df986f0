package ticketingapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "tenant-1")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestListEventsDecodesCatalog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("tenant-id"); got != "tenant-1" {
			t.Fatalf("missing tenant header, got %q", got)
		}
		_, _ = w.Write([]byte(`[{"id":"ev1","name":"Show","startsAt":"2026-10-01T20:00:00Z","isPublished":true,
			"sections":[{"id":"s1","name":"Pista","batches":[{"id":"b1","name":"Early Bird","price":100.50,"ticketsLimit":10}]}]}]`))
	})

	events, err := client.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || len(events[0].Sections) != 1 {
		t.Fatalf("unexpected events %+v", events)
	}
	batch := events[0].Sections[0].Batches[0]
	if batch.Price.String() != "100.5" {
		t.Fatalf("unexpected price %s", batch.Price)
	}
}

func TestCreateCartSendsPairsAndDecodesReservation(t *testing.T) {
	expires := time.Date(2026, 10, 1, 20, 30, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cart" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer acc" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		var body struct {
			Tickets []CartTicket `json:"tickets"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Tickets) != 2 || body.Tickets[0].BatchID != "b1" || body.Tickets[0].Quantity != 2 {
			t.Fatalf("unexpected payload %+v", body.Tickets)
		}
		_ = json.NewEncoder(w).Encode(RemoteCart{ID: "cart-1", ExpiresAt: expires})
	})

	cart, err := client.CreateCart(context.Background(), "acc", []CartTicket{
		{BatchID: "b1", Quantity: 2},
		{BatchID: "b2", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if cart.ID != "cart-1" || !cart.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected cart %+v", cart)
	}
}

func TestCreateCartValidatesInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be reached")
	})

	if _, err := client.CreateCart(context.Background(), "", []CartTicket{{BatchID: "b1", Quantity: 1}}); err == nil {
		t.Fatal("expected missing token to error")
	}
	if _, err := client.CreateCart(context.Background(), "acc", nil); err == nil {
		t.Fatal("expected empty tickets to error")
	}
	if _, err := client.CreateCart(context.Background(), "acc", []CartTicket{{BatchID: "b1", Quantity: 0}}); err == nil {
		t.Fatal("expected zero quantity to error")
	}
}

func TestGetEventMapsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such event", http.StatusNotFound)
	})

	_, err := client.GetEvent(context.Background(), "missing")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestGetUserTicketsRequiresToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be reached")
	})

	_, err := client.GetUserTickets(context.Background(), " ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
