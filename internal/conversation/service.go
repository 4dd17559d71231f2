package conversation

import (
	"context"
	"time"
)

// Service describes how the conversation engine behaves.
type Service interface {
	StartConversation(ctx context.Context, req StartRequest) (*Response, error)
	ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error)
	GetHistory(ctx context.Context, conversationID string) ([]Message, error)
}

// Message represents a single message in a conversation transcript.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// StartRequest opens a new conversation. ConversationID may be supplied by
// the caller; when empty the engine generates one.
type StartRequest struct {
	ConversationID string            `json:"conversation_id"`
	Metadata       map[string]string `json:"metadata"`
}

// MessageRequest represents a single customer turn.
type MessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// ResponseSource labels which path produced the turn's reply.
type ResponseSource string

const (
	SourceQualification ResponseSource = "qualification"
	SourceAgreement     ResponseSource = "agreement"
	SourceCache         ResponseSource = "cache"
	SourceGenerative    ResponseSource = "generative"
	SourceApology       ResponseSource = "apology"
)

// Response is the DTO returned to the API layer.
type Response struct {
	ConversationID string         `json:"conversation_id"`
	Message        string         `json:"message"`
	Source         ResponseSource `json:"source"`
	Timestamp      time.Time      `json:"timestamp"`
}
