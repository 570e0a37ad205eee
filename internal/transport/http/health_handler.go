package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler reports service liveness and queue depth.
type HealthHandler struct {
	version string
	depth   func() int
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a health handler. depth reports the current
// job queue backlog and may be nil.
func NewHealthHandler(version string, depth func() int, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		version: version,
		depth:   depth,
		started: time.Now().UTC(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Routes returns a chi router for health endpoints.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Health)
	return r
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"version":   h.version,
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC(),
	}
	if h.depth != nil {
		response["queue_depth"] = h.depth()
	}

	render.JSON(w, r, response)
}
