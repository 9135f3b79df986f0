package controllers

import (
	"net/http"

	"github.com/ticketeira/storefront/api/responses"
	"github.com/ticketeira/storefront/pkg/config"
	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/logger"
	"github.com/ticketeira/storefront/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
