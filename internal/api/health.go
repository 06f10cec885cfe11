package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports process liveness and dependency readiness.
// Postgres holds every booking, so losing it is an outright error.
// Redis only backs the per-slot booking locks, so losing it degrades
// writes while reads keep serving.
type HealthHandler struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	env     string
	version string
}

func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{
		pool:    pool,
		rdb:     rdb,
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)
	status := "ok"

	if err := pingWithin(ctx, h.pool.Ping); err != nil {
		deps["postgres"] = "down"
		status = "error"
	} else {
		deps["postgres"] = "ok"
	}

	if err := pingWithin(ctx, func(c context.Context) error { return h.rdb.Ping(c).Err() }); err != nil {
		deps["redis"] = "down"
		if status == "ok" {
			status = "degraded"
		}
	} else {
		deps["redis"] = "ok"
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}

func pingWithin(ctx context.Context, ping func(context.Context) error) error {
	pctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return ping(pctx)
}
