package knowledge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

// Document limits for operator-submitted knowledge snippets.
const (
	maxDocuments      = 200
	maxDocumentLength = 4000
)

// Handler exposes operator CRUD for the per-topic knowledge documents that
// feed the generative prompt's additional-info block.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a knowledge handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// TopicResponse lists a topic's documents.
type TopicResponse struct {
	Topic     string   `json:"topic"`
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
}

// DocumentsRequest carries operator-submitted snippets.
type DocumentsRequest struct {
	Documents []string `json:"documents"`
}

// GetDocuments handles GET /admin/knowledge/{topic} requests
func (h *Handler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	topic, ok := h.topicParam(w, r)
	if !ok {
		return
	}

	docs, err := h.repo.GetDocuments(r.Context(), topic)
	if err != nil {
		h.logger.Error("failed to load knowledge documents", "topic", topic, "error", err)
		http.Error(w, "failed to load documents", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TopicResponse{
		Topic:     topic,
		Documents: docs,
		Count:     len(docs),
	})
}

// AppendDocuments handles POST /admin/knowledge/{topic} requests
func (h *Handler) AppendDocuments(w http.ResponseWriter, r *http.Request) {
	topic, ok := h.topicParam(w, r)
	if !ok {
		return
	}
	docs, ok := h.decodeDocuments(w, r)
	if !ok {
		return
	}

	if err := h.repo.AppendDocuments(r.Context(), topic, docs); err != nil {
		h.logger.Error("failed to append knowledge documents", "topic", topic, "error", err)
		http.Error(w, "failed to append documents", http.StatusInternalServerError)
		return
	}

	h.logger.Info("knowledge documents appended", "topic", topic, "count", len(docs))
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceDocuments handles PUT /admin/knowledge/{topic} requests. An empty
// documents list clears the topic.
func (h *Handler) ReplaceDocuments(w http.ResponseWriter, r *http.Request) {
	topic, ok := h.topicParam(w, r)
	if !ok {
		return
	}
	docs, ok := h.decodeDocuments(w, r)
	if !ok {
		return
	}

	if err := h.repo.ReplaceDocuments(r.Context(), topic, docs); err != nil {
		h.logger.Error("failed to replace knowledge documents", "topic", topic, "error", err)
		http.Error(w, "failed to replace documents", http.StatusInternalServerError)
		return
	}

	h.logger.Info("knowledge documents replaced", "topic", topic, "count", len(docs))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) topicParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	topic := strings.TrimSpace(chi.URLParam(r, "topic"))
	if topic == "" {
		http.Error(w, "missing topic", http.StatusBadRequest)
		return "", false
	}
	return topic, true
}

// decodeDocuments reads and validates the request payload. Documents come
// back trimmed; blank entries are rejected rather than silently dropped so
// the operator sees the mistake.
func (h *Handler) decodeDocuments(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req DocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if err := validateDocuments(req.Documents); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	docs := make([]string, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = strings.TrimSpace(d)
	}
	return docs, true
}

func validateDocuments(docs []string) error {
	if len(docs) > maxDocuments {
		return fmt.Errorf("too many documents: %d exceeds limit of %d", len(docs), maxDocuments)
	}
	for i, d := range docs {
		trimmed := strings.TrimSpace(d)
		if trimmed == "" {
			return fmt.Errorf("document %d is empty", i)
		}
		if len([]rune(trimmed)) > maxDocumentLength {
			return fmt.Errorf("document %d exceeds %d characters", i, maxDocumentLength)
		}
	}
	return nil
}
