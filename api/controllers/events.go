package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ticketeira/storefront/api/responses"
	"github.com/ticketeira/storefront/internal/events"
	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/logger"
)

// EventsList returns the tenant's event catalog.
func EventsList(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		list, err := svc.ListEvents(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// EventDetail returns one event with its sections and ticket batches.
func EventDetail(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		event, err := svc.GetEvent(ctx, chi.URLParam(r, "eventId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}
