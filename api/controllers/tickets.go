package controllers

import (
	"context"
	"net/http"

	"github.com/ticketeira/storefront/api/responses"
	sessionsvc "github.com/ticketeira/storefront/internal/session"
	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/logger"
	"github.com/ticketeira/storefront/pkg/ticketingapi"
)

type issuedTicketsClient interface {
	GetUserTickets(ctx context.Context, accessToken string) ([]ticketingapi.IssuedTicket, error)
}

// TicketsMine lists tickets already issued to the authenticated user.
func TicketsMine(sessions sessionsvc.Service, ticketing issuedTicketsClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := requireSession(ctx, sessions != nil && ticketing != nil, "tickets")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess, err := sessions.Current(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !sess.Authenticated() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required"))
			return
		}

		tickets, err := ticketing.GetUserTickets(ctx, sess.AccessToken)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, tickets)
	}
}
