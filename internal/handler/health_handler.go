package handler

import (
	"context"
	"net/http"

	"go-user-auth/internal/model"
)

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db    pinger
	cache pinger
}

func NewHealthHandler(db pinger, cache pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check reports overall liveness plus the state of each dependency. A
// degraded dependency turns the status but not the HTTP code: load balancers
// only need the process to be up.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	body := model.HealthResponse{Status: "ok", Database: "ok", Cache: "ok"}

	if h.db != nil {
		if err := h.db.Health(r.Context()); err != nil {
			body.Status = "degraded"
			body.Database = "unreachable"
		}
	}
	if h.cache != nil {
		if err := h.cache.Health(r.Context()); err != nil {
			body.Status = "degraded"
			body.Cache = "unreachable"
		}
	}

	writeJSON(w, http.StatusOK, body)
}
