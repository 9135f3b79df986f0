package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ticketeira/storefront/pkg/auth"
	"github.com/ticketeira/storefront/pkg/config"
	"github.com/ticketeira/storefront/pkg/logger"
)

// SessionCookieName carries the signed browser-session token. The cookie only
// identifies the browser; tokens and cart state live server-side under the
// session ID it names.
const SessionCookieName = "sf_session"

// Session resolves or mints the browser session for every request. An absent
// or invalid cookie silently gets a fresh session rather than an error: a new
// visitor is not a failure.
func Session(cfg config.SessionTokenConfig, secureCookie bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionID := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if claims, err := auth.ParseSessionToken(cfg, cookie.Value); err == nil {
					sessionID = claims.SessionID.String()
				} else if logg != nil {
					logg.Warn(ctx, "session cookie rejected, minting a new session")
				}
			}

			if sessionID == "" {
				fresh := uuid.New()
				token, err := auth.MintSessionToken(cfg, time.Now(), fresh)
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "failed to mint session token", err)
					}
					http.Error(w, `{"error":{"code":"INTERNAL_ERROR"}}`, http.StatusInternalServerError)
					return
				}
				sessionID = fresh.String()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.TTL().Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
