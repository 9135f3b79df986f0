package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/logger"
	"github.com/ticketeira/storefront/pkg/redis"
	"github.com/ticketeira/storefront/pkg/ticketingapi"
)

type catalogClient interface {
	ListEvents(ctx context.Context) ([]ticketingapi.Event, error)
	GetEvent(ctx context.Context, eventID string) (*ticketingapi.Event, error)
}

type responseCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	CacheKey(parts ...string) string
}

// Service exposes the event catalog with a short-lived Redis cache in front of
// the Ticketing API. Cache problems never fail a request; they fall through to
// the upstream.
type Service interface {
	ListEvents(ctx context.Context) ([]ticketingapi.Event, error)
	GetEvent(ctx context.Context, eventID string) (*ticketingapi.Event, error)
}

// ServiceParams groups dependencies for the events service.
type ServiceParams struct {
	Catalog  catalogClient
	Cache    responseCache
	CacheTTL time.Duration
	Logger   *logger.Logger
}

type service struct {
	catalog  catalogClient
	cache    responseCache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds the catalog service. Cache is optional; without it every
// call hits the Ticketing API.
func NewService(params ServiceParams) (Service, error) {
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog client is required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &service{
		catalog:  params.Catalog,
		cache:    params.Cache,
		cacheTTL: ttl,
		logg:     params.Logger,
	}, nil
}

func (s *service) ListEvents(ctx context.Context) ([]ticketingapi.Event, error) {
	var cached []ticketingapi.Event
	key := s.cacheKey("events")
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	events, err := s.catalog.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, events)
	return events, nil
}

func (s *service) GetEvent(ctx context.Context, eventID string) (*ticketingapi.Event, error) {
	trimmed := strings.TrimSpace(eventID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}

	var cached ticketingapi.Event
	key := s.cacheKey("events", trimmed)
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	event, err := s.catalog.GetEvent(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, event)
	return event, nil
}

func (s *service) cacheKey(parts ...string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CacheKey(parts...)
}

func (s *service) readCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil || key == "" {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) && s.logg != nil {
			s.logg.Warn(ctx, "catalog cache read failed: "+err.Error())
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "catalog cache entry corrupt: "+err.Error())
		}
		return false
	}
	return true
}

func (s *service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil || key == "" {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "catalog cache write failed: "+err.Error())
	}
}
