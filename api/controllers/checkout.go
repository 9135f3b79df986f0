package controllers

import (
	"net/http"

	"github.com/ticketeira/storefront/api/responses"
	"github.com/ticketeira/storefront/api/validators"
	checkoutsvc "github.com/ticketeira/storefront/internal/checkout"
	"github.com/ticketeira/storefront/pkg/logger"
)

type checkoutLoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type copyMyInfoPayload struct {
	Row int `json:"row" validate:"gte=0"`
}

type submitTicketsPayload struct {
	Holders []checkoutsvc.HolderAssignment `json:"holders" validate:"required"`
}

type confirmPaymentPayload struct {
	Method checkoutsvc.PaymentMethod `json:"method" validate:"required"`
}

// CheckoutState reports the session's wizard snapshot.
func CheckoutState(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "checkout")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		state, err := svc.State(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutConfirmCart leaves the cart step.
func CheckoutConfirmCart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "checkout")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		state, err := svc.ConfirmCart(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutLogin authenticates inside the wizard's auth step.
func CheckoutLogin(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "checkout")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload checkoutLoginPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		state, err := svc.CompleteAuth(ctx, sessionID, payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutRows returns the per-ticket holder form rows.
func CheckoutRows(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "checkout")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.AssignmentRows(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// CheckoutCopyMyInfo fills one holder row from the authenticated profile.
func CheckoutCopyMyInfo(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "checkout")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload copyMyInfoPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.CopyMyInfo(ctx, sessionID, payload.Row)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// CheckoutSubmitTickets validates one holder per ticket and advances to the
// payment step.
func CheckoutSubmitTickets(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "checkout")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload submitTicketsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		state, err := svc.SubmitAssignments(ctx, sessionID, payload.Holders)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutPayment confirms the payment method and classifies the terminal
// result.
func CheckoutPayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "checkout")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload confirmPaymentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		state, err := svc.ConfirmPayment(ctx, sessionID, payload.Method)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutRetry restarts the wizard from the cart step.
func CheckoutRetry(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "checkout")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		state, err := svc.Retry(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutExit discards the session's wizard state.
func CheckoutExit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, svc != nil, "checkout")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Exit(ctx, sessionID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "exited"})
	}
}
