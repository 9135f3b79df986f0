package session

import "github.com/ticketeira/storefront/pkg/authapi"

// Session is the per-browser authentication state. User is only populated when
// the stored access token was validated against the Auth API, so tokens merely
// being present never count as authenticated.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *authapi.User
}

// Authenticated reports whether the session carries a validated identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil && s.AccessToken != ""
}

// Anonymous is the zero session handed out when nothing is stored.
func Anonymous() *Session {
	return &Session{}
}
