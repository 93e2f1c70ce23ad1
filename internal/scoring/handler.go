package scoring

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/mediatrack/recostats/pkg/errors"
	"github.com/mediatrack/recostats/pkg/logger"
)

// Handler exposes trending scores over HTTP.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler creates a Handler backed by the scoring service.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: slog.Default().With("component", "scoring-handler"),
	}
}

// Scores handles GET /counters/scores: returns the weighted trending scores,
// highest first.
func (h *Handler) Scores(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	scores, err := h.svc.Trending(r.Context())
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("score computation failed", "error", err, "status_code", statusCode)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]string{"error": "score computation failed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(scores); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
