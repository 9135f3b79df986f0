package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
)

type stubStore struct {
	records map[string]*Cart
	loadErr error
	saveErr error
}

func newStubStore() *stubStore {
	return &stubStore{records: map[string]*Cart{}}
}

func (s *stubStore) Load(_ context.Context, sessionID string) (*Cart, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if cart, ok := s.records[sessionID]; ok {
		copied := *cart
		return &copied, nil
	}
	return &Cart{}, nil
}

func (s *stubStore) Save(_ context.Context, sessionID string, cart *Cart) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *cart
	s.records[sessionID] = &copied
	return nil
}

func (s *stubStore) Delete(_ context.Context, sessionID string) error {
	delete(s.records, sessionID)
	return nil
}

func newTestService(t *testing.T) (Service, *stubStore) {
	t.Helper()
	store := newStubStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestServiceAddItemPersistsMergedCart(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "sid", item("b1", 2, "100.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := svc.AddItem(ctx, "sid", item("b1", 3, "100.00"))
	if err != nil {
		t.Fatalf("add again: %v", err)
	}

	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("expected merged entry with quantity 5, got %+v", cart.Items)
	}
	if saved := store.records["sid"]; saved == nil || saved.Items[0].Quantity != 5 {
		t.Fatalf("expected merged cart to be persisted, got %+v", saved)
	}
}

func TestServiceAddItemValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []LineItem{
		{BatchID: "", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
		{BatchID: "b1", Quantity: 0, UnitPrice: decimal.NewFromInt(1)},
		{BatchID: "b1", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)},
	}
	for i, bad := range cases {
		_, err := svc.AddItem(ctx, "sid", bad)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestServiceAttachAndDetachRemote(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	expires := time.Now().Add(15 * time.Minute).UTC()

	if _, err := svc.AddItem(ctx, "sid", item("b1", 1, "10.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := svc.AttachRemote(ctx, "sid", "cart-1", expires)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if !cart.HasRemote() || *cart.RemoteCartID != "cart-1" || !cart.RemoteExpiresAt.Equal(expires) {
		t.Fatalf("unexpected remote state %+v", cart)
	}

	cart, err = svc.DetachRemote(ctx, "sid")
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	if cart.HasRemote() || len(cart.Items) != 1 {
		t.Fatalf("detach must keep items and drop remote identity, got %+v", cart)
	}
}

func TestServiceClearForgetsRemoteIdentity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "sid", item("b1", 1, "10.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AttachRemote(ctx, "sid", "cart-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("attach: %v", err)
	}
	cart, err := svc.Clear(ctx, "sid")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !cart.IsEmpty() || cart.HasRemote() {
		t.Fatalf("expected empty cart without remote, got %+v", cart)
	}
	if saved := store.records["sid"]; saved.HasRemote() {
		t.Fatalf("persisted record must not keep the remote id")
	}
}

func TestServicePropagatesStoreFailures(t *testing.T) {
	store := newStubStore()
	store.saveErr = pkgerrors.New(pkgerrors.CodeDependency, "redis down")
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.AddItem(context.Background(), "sid", item("b1", 1, "10.00"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceRequiresSessionID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "  ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
