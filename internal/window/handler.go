package window

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/mediatrack/recostats/pkg/errors"
	"github.com/mediatrack/recostats/pkg/logger"
)

// IncrementRequest is the body of POST /counters.
type IncrementRequest struct {
	ID string `json:"id"`
}

// Handler exposes the rotating counter store over HTTP.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a Handler backed by the given store.
func NewHandler(store *Store) *Handler {
	return &Handler{
		store:  store,
		logger: slog.Default().With("component", "window-handler"),
	}
}

// Increment handles POST /counters: adds 1 to the identifier in the current
// hour and day buckets.
func (h *Handler) Increment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req IncrementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" {
		err := apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "id must not be empty")
		log.Debug("rejected increment", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Message)
		return
	}

	h.store.Increment(req.ID)
	log.Debug("counter incremented", "id", req.ID)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Counters handles GET /counters: returns all 16 named buckets as one flat
// document, the same shape that is persisted to disk.
func (h *Handler) Counters(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
