package controllers

import (
	"net/http"

	"github.com/ticketeira/storefront/api/responses"
	"github.com/ticketeira/storefront/api/validators"
	sessionsvc "github.com/ticketeira/storefront/internal/session"
	"github.com/ticketeira/storefront/pkg/authapi"
	"github.com/ticketeira/storefront/pkg/logger"
)

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerPayload struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type profilePayload struct {
	Name      string `json:"name,omitempty" validate:"omitempty,min=2"`
	FirstName string `json:"firstName,omitempty" validate:"omitempty,min=2"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,min=2"`
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *authapi.User `json:"user,omitempty"`
}

func toSessionResponse(sess *sessionsvc.Session) sessionResponse {
	return sessionResponse{Authenticated: sess.Authenticated(), User: sess.User}
}

// AuthLogin exchanges credentials against the Auth API and binds the identity
// to the browser session.
func AuthLogin(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "session")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload loginPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess, err := svc.Login(ctx, sessionID, payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSessionResponse(sess))
	}
}

// AuthLogout clears the session's stored tokens.
func AuthLogout(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "session")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Logout(ctx, sessionID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse{Authenticated: false})
	}
}

// AuthMe restores and reports the current identity.
func AuthMe(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "session")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess, err := svc.Current(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSessionResponse(sess))
	}
}

// AuthRegister creates a new account. The browser logs in afterwards.
func AuthRegister(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, err := requireSession(ctx, svc != nil, "session"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload registerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Register(ctx, authapi.CreateUserRequest{
			Name:     payload.Name,
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AuthProfileUpdate changes the authenticated user's profile data.
func AuthProfileUpdate(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "session")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload profilePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.UpdateProfile(ctx, sessionID, authapi.UpdateUserRequest{
			Name:      payload.Name,
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
