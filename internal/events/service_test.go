package events

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/ticketingapi"
)

type stubCatalog struct {
	events    []ticketingapi.Event
	listCalls int
	getCalls  int
	err       error
}

func (s *stubCatalog) ListEvents(context.Context) ([]ticketingapi.Event, error) {
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func (s *stubCatalog) GetEvent(_ context.Context, eventID string) (*ticketingapi.Event, error) {
	s.getCalls++
	if s.err != nil {
		return nil, s.err
	}
	for _, event := range s.events {
		if event.ID == eventID {
			return &event, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
}

type stubCache struct {
	entries map[string]string
	getErr  error
	setErr  error
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]string{}}
}

func (s *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = value.(string)
	return nil
}

func (s *stubCache) Get(_ context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	if raw, ok := s.entries[key]; ok {
		return raw, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeNotFound, "cache miss")
}

func (s *stubCache) CacheKey(parts ...string) string {
	return "sf:cache:" + strings.Join(parts, ":")
}

func TestListEventsCachesUpstreamResponse(t *testing.T) {
	catalog := &stubCatalog{events: []ticketingapi.Event{{ID: "e1", Name: "Show"}}}
	cache := newStubCache()
	svc, err := NewService(ServiceParams{Catalog: catalog, Cache: cache, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	for i := 0; i < 2; i++ {
		events, err := svc.ListEvents(context.Background())
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if len(events) != 1 || events[0].ID != "e1" {
			t.Fatalf("unexpected events %+v", events)
		}
	}
	if catalog.listCalls != 1 {
		t.Fatalf("expected a single upstream call, got %d", catalog.listCalls)
	}
}

func TestGetEventCachesPerEvent(t *testing.T) {
	catalog := &stubCatalog{events: []ticketingapi.Event{{ID: "e1", Name: "Show"}, {ID: "e2", Name: "Other"}}}
	cache := newStubCache()
	svc, err := NewService(ServiceParams{Catalog: catalog, Cache: cache})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	for i := 0; i < 2; i++ {
		event, err := svc.GetEvent(context.Background(), "e1")
		if err != nil {
			t.Fatalf("get event: %v", err)
		}
		if event.Name != "Show" {
			t.Fatalf("unexpected event %+v", event)
		}
	}
	if catalog.getCalls != 1 {
		t.Fatalf("expected a single upstream call, got %d", catalog.getCalls)
	}
	if _, ok := cache.entries["sf:cache:events:e1"]; !ok {
		t.Fatal("expected a per-event cache entry")
	}
}

func TestCacheFailuresFallThroughToUpstream(t *testing.T) {
	catalog := &stubCatalog{events: []ticketingapi.Event{{ID: "e1"}}}
	cache := newStubCache()
	cache.getErr = pkgerrors.New(pkgerrors.CodeDependency, "redis down")
	cache.setErr = cache.getErr
	svc, err := NewService(ServiceParams{Catalog: catalog, Cache: cache})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.ListEvents(context.Background()); err != nil {
		t.Fatalf("list events must survive cache failure: %v", err)
	}
	if catalog.listCalls != 1 {
		t.Fatalf("expected the upstream to be called, got %d", catalog.listCalls)
	}
}

func TestCorruptCacheEntryIsIgnored(t *testing.T) {
	catalog := &stubCatalog{events: []ticketingapi.Event{{ID: "e1", Name: "Show"}}}
	cache := newStubCache()
	cache.entries["sf:cache:events"] = "{not json"
	svc, err := NewService(ServiceParams{Catalog: catalog, Cache: cache})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	events, err := svc.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("unexpected events %+v", events)
	}

	var refreshed []ticketingapi.Event
	if err := json.Unmarshal([]byte(cache.entries["sf:cache:events"]), &refreshed); err != nil {
		t.Fatalf("cache entry must be rewritten with valid JSON: %v", err)
	}
}

func TestGetEventRequiresID(t *testing.T) {
	svc, err := NewService(ServiceParams{Catalog: &stubCatalog{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetEvent(context.Background(), "  ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
