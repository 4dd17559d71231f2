package conversation

import "context"

// Chat roles as providers expect them on the wire.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn handed to a provider, system prompts included.
type ChatMessage struct {
	Role    string
	Content string
}

// LLMRequest describes a single completion call. Zero-valued tuning fields
// are omitted from the provider request.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// TokenUsage reports provider-side token accounting when available.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMResponse carries the completion text plus provider metadata.
type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient is the generative text provider boundary. Implementations may
// fail transiently; callers decide how to degrade.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
