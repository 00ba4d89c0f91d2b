package api

import (
	"context"
	"net/http"
	"time"

	"sealbin/svc/db"
	"sealbin/svc/util"
)

type Health struct {
	db  *db.SQLite
	rdb *db.Redis
}

func NewHealth(sqlDB *db.SQLite, rdb *db.Redis) *Health {
	return &Health{db: sqlDB, rdb: rdb}
}

// Live is the liveness probe: the process is up and serving.
func (h *Health) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether dependencies answer. Redis is optional capacity, so
// a failed Redis ping degrades the report but does not flip readiness.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		util.Error().Err(err).Msg("readiness: database ping failed")
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.rdb != nil {
		checks["redis"] = "ok"
		if err := h.rdb.Ping(ctx); err != nil {
			util.Warn().Err(err).Msg("readiness: redis ping failed")
			checks["redis"] = "unavailable"
		}
	}
	writeJSON(w, status, checks)
}
