package controllers

import (
	"net/http"

	"github.com/quickplate/ordercore/api/responses"
	"github.com/quickplate/ordercore/pkg/config"
	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
	"github.com/quickplate/ordercore/pkg/logger"
	"github.com/quickplate/ordercore/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-QuickPlate-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-QuickPlate-Env", cfg.App.Env)
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
