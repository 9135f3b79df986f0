package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ticketeira/storefront/api/middleware"
	"github.com/ticketeira/storefront/api/responses"
	"github.com/ticketeira/storefront/api/validators"
	cartsvc "github.com/ticketeira/storefront/internal/cart"
	"github.com/ticketeira/storefront/internal/events"
	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/logger"
	"github.com/ticketeira/storefront/pkg/ticketingapi"
)

type addCartItemPayload struct {
	EventID  string `json:"eventId" validate:"required"`
	BatchID  string `json:"batchId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type updateCartItemPayload struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type cartResponse struct {
	Items           []cartsvc.LineItem `json:"items"`
	Total           decimal.Decimal    `json:"total"`
	TotalQuantity   int                `json:"totalQuantity"`
	RemoteCartID    *string            `json:"remoteCartId"`
	RemoteExpiresAt *time.Time         `json:"remoteExpiresAt"`
}

func toCartResponse(c *cartsvc.Cart) cartResponse {
	return cartResponse{
		Items:           c.Items,
		Total:           c.Total(),
		TotalQuantity:   c.TotalQuantity(),
		RemoteCartID:    c.RemoteCartID,
		RemoteExpiresAt: c.RemoteExpiresAt,
	}
}

// CartFetch returns the session's cart with its derived total.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "cart")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		current, err := svc.Get(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(current))
	}
}

// CartAddItem resolves the batch against the catalog and merges it into the
// cart. Price and naming come from the catalog, never from the request.
func CartAddItem(svc cartsvc.Service, catalog events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil && catalog != nil, "cart")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		event, err := catalog.GetEvent(ctx, payload.EventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, found := lineItemFromEvent(event, payload.BatchID, payload.Quantity)
		if !found {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found in event"))
			return
		}

		current, err := svc.AddItem(ctx, sessionID, item)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(current))
	}
}

// CartUpdateItem rewrites one line's quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "cart")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		current, err := svc.UpdateQuantity(ctx, sessionID, chi.URLParam(r, "batchId"), payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(current))
	}
}

// CartRemoveItem drops one line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "cart")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		current, err := svc.RemoveItem(ctx, sessionID, chi.URLParam(r, "batchId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(current))
	}
}

// CartClear empties the cart and forgets any remote reservation.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "cart")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		current, err := svc.Clear(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(current))
	}
}

func lineItemFromEvent(event *ticketingapi.Event, batchID string, quantity int) (cartsvc.LineItem, bool) {
	for _, section := range event.Sections {
		for _, batch := range section.Batches {
			if batch.ID != batchID {
				continue
			}
			return cartsvc.LineItem{
				BatchID:     batch.ID,
				Quantity:    quantity,
				UnitPrice:   batch.Price,
				BatchName:   batch.Name,
				SectionName: section.Name,
				SectionID:   section.ID,
			}, true
		}
	}
	return cartsvc.LineItem{}, false
}

func requireSession(ctx context.Context, wired bool, name string) (string, error) {
	if !wired {
		return "", pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
	}
	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing")
	}
	return sessionID, nil
}
