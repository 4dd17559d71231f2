package conversation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

// maxRequestBody bounds inbound JSON payloads. Chat turns are short; a
// megabyte leaves generous headroom for metadata.
const maxRequestBody = 1 << 20

// Handler exposes the conversation service over HTTP.
type Handler struct {
	service Service
	logger  *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(service Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Start handles POST /conversations/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.StartConversation(r.Context(), req)
	if err != nil {
		h.logger.Error("start conversation failed", "error", err)
		h.errorJSON(w, http.StatusInternalServerError, "failed to start conversation")
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// Message handles POST /conversations/message.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.errorJSON(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := h.service.ProcessMessage(r.Context(), req)
	if err != nil {
		h.logger.Error("process message failed", "error", err, "conversation_id", req.ConversationID)
		h.errorJSON(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HistoryResponse is the transcript payload.
type HistoryResponse struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// History handles GET /conversations/{conversationID}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		h.errorJSON(w, http.StatusBadRequest, "missing conversation id")
		return
	}

	messages, err := h.service.GetHistory(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("load history failed", "error", err, "conversation_id", conversationID)
		h.errorJSON(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if messages == nil {
		messages = []Message{}
	}

	h.writeJSON(w, http.StatusOK, HistoryResponse{
		ConversationID: conversationID,
		Messages:       messages,
	})
}

// decode reads the request body into dst, answering 400 on malformed JSON.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		h.logger.Warn("malformed request body", "error", err, "path", r.URL.Path)
		h.errorJSON(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) errorJSON(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("write response failed", "error", err)
	}
}
