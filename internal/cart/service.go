package cart

import (
	"context"
	"strings"
	"time"

	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
)

type cartStore interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// Service exposes cart mutations for one browser session. The cart model
// itself cannot fail; errors here come from request validation or from the
// persistence layer.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	AddItem(ctx context.Context, sessionID string, item LineItem) (*Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, batchID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, sessionID, batchID string) (*Cart, error)
	Clear(ctx context.Context, sessionID string) (*Cart, error)
	AttachRemote(ctx context.Context, sessionID, remoteID string, expiresAt time.Time) (*Cart, error)
	DetachRemote(ctx context.Context, sessionID string) (*Cart, error)
}

type service struct {
	store cartStore
}

// NewService builds the cart service on top of the session-scoped store.
func NewService(store cartStore) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart store is required")
	}
	return &service{store: store}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	return s.load(ctx, sessionID)
}

// AddItem merges the line item into the cart and persists the result.
func (s *service) AddItem(ctx context.Context, sessionID string, item LineItem) (*Cart, error) {
	if strings.TrimSpace(item.BatchID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id is required")
	}
	if item.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	return s.mutate(ctx, sessionID, func(cart *Cart) {
		cart.AddItem(item)
	})
}

// UpdateQuantity rewrites one item's quantity; zero or below removes it.
func (s *service) UpdateQuantity(ctx context.Context, sessionID, batchID string, quantity int) (*Cart, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id is required")
	}
	return s.mutate(ctx, sessionID, func(cart *Cart) {
		cart.UpdateQuantity(batchID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, batchID string) (*Cart, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id is required")
	}
	return s.mutate(ctx, sessionID, func(cart *Cart) {
		cart.RemoveItem(batchID)
	})
}

// Clear empties the cart and forgets any remote reservation.
func (s *service) Clear(ctx context.Context, sessionID string) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *Cart) {
		cart.Clear()
	})
}

// AttachRemote records a freshly created server-side reservation.
func (s *service) AttachRemote(ctx context.Context, sessionID, remoteID string, expiresAt time.Time) (*Cart, error) {
	if strings.TrimSpace(remoteID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote cart id is required")
	}
	return s.mutate(ctx, sessionID, func(cart *Cart) {
		cart.SetRemote(remoteID, expiresAt)
	})
}

// DetachRemote drops the reservation identity so a fresh remote cart can be
// created, keeping the items.
func (s *service) DetachRemote(ctx context.Context, sessionID string) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *Cart) {
		cart.ClearRemote()
	})
}

func (s *service) load(ctx context.Context, sessionID string) (*Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.store.Load(ctx, sessionID)
}

func (s *service) mutate(ctx context.Context, sessionID string, apply func(*Cart)) (*Cart, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	apply(cart)
	if err := s.store.Save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}
