package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/GravO8/mrs-dl/pkg/contracts"
)

// Progress reports how many performance records a run has produced
type Progress interface {
	Len() int
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	RunID   string `json:"run_id,omitempty"`
	Records int    `json:"records"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// StatusHandler serves liveness and version information of a running experiment
type StatusHandler struct {
	logger   *slog.Logger
	runID    string
	progress Progress
	started  time.Time
}

// NewStatusHandler creates a status handler. progress may be nil.
func NewStatusHandler(logger *slog.Logger, runID string, progress Progress) *StatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHandler{
		logger:   logger.With(slog.String("handler", "status")),
		runID:    runID,
		progress: progress,
		started:  time.Now(),
	}
}

// Health handles GET /healthz
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		RunID:   h.runID,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
		Version: contracts.Version,
	}
	if h.progress != nil {
		resp.Records = h.progress.Len()
	}
	render.JSON(w, r, resp)
}

// Version handles GET /version
func (h *StatusHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}
