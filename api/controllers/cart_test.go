package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ticketeira/storefront/api/middleware"
	cartsvc "github.com/ticketeira/storefront/internal/cart"
	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/ticketingapi"
)

type stubCartService struct {
	cart *cartsvc.Cart
	err  error
}

func (s stubCartService) Get(context.Context, string) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s stubCartService) AddItem(_ context.Context, _ string, item cartsvc.LineItem) (*cartsvc.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.cart.AddItem(item)
	return s.cart, nil
}

func (s stubCartService) UpdateQuantity(_ context.Context, _, batchID string, quantity int) (*cartsvc.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.cart.UpdateQuantity(batchID, quantity)
	return s.cart, nil
}

func (s stubCartService) RemoveItem(_ context.Context, _, batchID string) (*cartsvc.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.cart.RemoveItem(batchID)
	return s.cart, nil
}

func (s stubCartService) Clear(context.Context, string) (*cartsvc.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.cart.Clear()
	return s.cart, nil
}

func (s stubCartService) AttachRemote(context.Context, string, string, time.Time) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s stubCartService) DetachRemote(context.Context, string) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

type stubEventsService struct {
	event *ticketingapi.Event
	err   error
}

func (s stubEventsService) ListEvents(context.Context) ([]ticketingapi.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []ticketingapi.Event{*s.event}, nil
}

func (s stubEventsService) GetEvent(context.Context, string) (*ticketingapi.Event, error) {
	return s.event, s.err
}

func sessionRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithSessionID(req.Context(), "sid-1"))
}

func TestCartFetchSuccess(t *testing.T) {
	c := &cartsvc.Cart{}
	c.AddItem(cartsvc.LineItem{BatchID: "b1", Quantity: 2, UnitPrice: decimal.RequireFromString("50.00")})
	handler := CartFetch(stubCartService{cart: c}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalQuantity != 2 {
		t.Fatalf("unexpected total quantity %d", envelope.Data.TotalQuantity)
	}
	if !envelope.Data.Total.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("unexpected total %s", envelope.Data.Total)
	}
}

func TestCartFetchMissingSession(t *testing.T) {
	handler := CartFetch(stubCartService{cart: &cartsvc.Cart{}}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemResolvesBatchFromCatalog(t *testing.T) {
	event := &ticketingapi.Event{
		ID: "e1",
		Sections: []ticketingapi.Section{{
			ID:   "s1",
			Name: "Pista",
			Batches: []ticketingapi.Batch{{
				ID:    "b1",
				Name:  "Early Bird",
				Price: decimal.RequireFromString("80.00"),
			}},
		}},
	}
	handler := CartAddItem(stubCartService{cart: &cartsvc.Cart{}}, stubEventsService{event: event}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/items",
		`{"eventId":"e1","batchId":"b1","quantity":2}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("expected one line item, got %+v", envelope.Data.Items)
	}
	item := envelope.Data.Items[0]
	if item.BatchName != "Early Bird" || item.SectionName != "Pista" {
		t.Fatalf("catalog naming not applied: %+v", item)
	}
	if !item.UnitPrice.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("catalog price not applied: %s", item.UnitPrice)
	}
}

func TestCartAddItemUnknownBatch(t *testing.T) {
	event := &ticketingapi.Event{ID: "e1"}
	handler := CartAddItem(stubCartService{cart: &cartsvc.Cart{}}, stubEventsService{event: event}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/items",
		`{"eventId":"e1","batchId":"missing","quantity":1}`))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddItemRejectsBadPayload(t *testing.T) {
	handler := CartAddItem(stubCartService{cart: &cartsvc.Cart{}}, stubEventsService{event: &ticketingapi.Event{}}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/items",
		`{"eventId":"e1","batchId":"b1","quantity":0}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClearPropagatesDependencyError(t *testing.T) {
	handler := CartClear(stubCartService{err: pkgerrors.New(pkgerrors.CodeDependency, "redis down")}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodDelete, "/api/v1/cart", ""))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
