package session

import (
	"context"
	"strings"

	"github.com/ticketeira/storefront/pkg/authapi"
	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/logger"
)

type authClient interface {
	Login(ctx context.Context, email, password string) (*authapi.TokenPair, error)
	GetLoggedUser(ctx context.Context, accessToken string) (*authapi.User, error)
	Refresh(ctx context.Context, refreshToken string) (*authapi.TokenPair, error)
	CreateUser(ctx context.Context, req authapi.CreateUserRequest) (*authapi.User, error)
	UpdateUser(ctx context.Context, accessToken string, req authapi.UpdateUserRequest) (*authapi.User, error)
}

type tokenStore interface {
	LoadTokens(ctx context.Context, sessionID string) (access, refresh string, err error)
	SaveTokens(ctx context.Context, sessionID, access, refresh string) error
	Delete(ctx context.Context, sessionID string) error
}

// Service is the auth session holder: it owns the per-browser token pair and
// the identity derived from it.
type Service interface {
	Login(ctx context.Context, sessionID, email, password string) (*Session, error)
	Current(ctx context.Context, sessionID string) (*Session, error)
	Logout(ctx context.Context, sessionID string) error
	Register(ctx context.Context, req authapi.CreateUserRequest) (*authapi.User, error)
	UpdateProfile(ctx context.Context, sessionID string, req authapi.UpdateUserRequest) (*authapi.User, error)
}

// ServiceParams groups dependencies for the session service.
type ServiceParams struct {
	AuthClient authClient
	Store      tokenStore
	Logger     *logger.Logger
}

type service struct {
	auth  authClient
	store tokenStore
	logg  *logger.Logger
}

// NewService builds the session holder with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.AuthClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth client is required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session store is required")
	}
	return &service{
		auth:  params.AuthClient,
		store: params.Store,
		logg:  params.Logger,
	}, nil
}

// Login exchanges credentials for a token pair, persists it, and fetches the
// profile. A failed login leaves any previously stored record untouched.
func (s *service) Login(ctx context.Context, sessionID, email, password string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	pair, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTokens(ctx, sessionID, pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, err
	}

	user, err := s.auth.GetLoggedUser(ctx, pair.AccessToken)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}, nil
}

// Current restores the session from the stored tokens. On a rejected access
// token with a refresh token available, it attempts exactly one
// refresh-and-retry before giving up and clearing the record.
func (s *service) Current(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	access, refresh, err := s.store.LoadTokens(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return Anonymous(), nil
	}

	user, err := s.auth.GetLoggedUser(ctx, access)
	if err == nil {
		return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
	}
	if refresh == "" {
		s.forget(ctx, sessionID, "access token rejected and no refresh token stored")
		return Anonymous(), nil
	}

	pair, refreshErr := s.auth.Refresh(ctx, refresh)
	if refreshErr != nil {
		s.forget(ctx, sessionID, "session refresh failed")
		return Anonymous(), nil
	}
	if err := s.store.SaveTokens(ctx, sessionID, pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, err
	}

	user, err = s.auth.GetLoggedUser(ctx, pair.AccessToken)
	if err != nil {
		s.forget(ctx, sessionID, "profile fetch failed after refresh")
		return Anonymous(), nil
	}
	return &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}, nil
}

// Logout clears the stored token record.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.store.Delete(ctx, sessionID)
}

// Register creates a new account; the caller logs in separately.
func (s *service) Register(ctx context.Context, req authapi.CreateUserRequest) (*authapi.User, error) {
	return s.auth.CreateUser(ctx, req)
}

// UpdateProfile changes the authenticated user's profile.
func (s *service) UpdateProfile(ctx context.Context, sessionID string, req authapi.UpdateUserRequest) (*authapi.User, error) {
	sess, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	return s.auth.UpdateUser(ctx, sess.AccessToken, req)
}

func (s *service) forget(ctx context.Context, sessionID, reason string) {
	if err := s.store.Delete(ctx, sessionID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "failed to clear session record", err)
		return
	}
	if s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", reason), "session cleared")
	}
}
