package cooccur

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mediatrack/recostats/pkg/logger"
)

// SubmitRequest is the body of POST /lists.
type SubmitRequest struct {
	Identifiers []string `json:"identifiers"`
}

// QueryResponse is the body of GET /lists/{identifier}.
type QueryResponse struct {
	TargetIdentifier string            `json:"target_identifier"`
	CoOccurrences    map[string]uint64 `json:"co_occurrences"`
}

// Handler exposes the co-occurrence counter over HTTP.
type Handler struct {
	counter *Counter
	logger  *slog.Logger
}

// NewHandler creates a Handler backed by the given counter.
func NewHandler(counter *Counter) *Handler {
	return &Handler{
		counter: counter,
		logger:  slog.Default().With("component", "cooccur-handler"),
	}
}

// Submit handles POST /lists: registers every identifier in the submitted
// list and updates pair counts.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.counter.Submit(req.Identifiers)
	log.Debug("list submitted", "size", len(req.Identifiers))
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Query handles GET /lists/{identifier}: returns every co-occurring
// identifier with its count. An unknown identifier yields an empty mapping.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	identifier := r.PathValue("identifier")
	h.writeJSON(w, http.StatusOK, QueryResponse{
		TargetIdentifier: identifier,
		CoOccurrences:    h.counter.Query(identifier),
	})
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
