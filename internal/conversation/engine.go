package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/movne-global/sales-ai-platform/internal/compliance"
	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

// apologyMessage is returned when the generative provider fails. The turn is
// still logged and persisted.
const apologyMessage = "מצטער, אירעה שגיאה. אנא נסה שוב."

const defaultHistoryLimit = 50

// LeadPublisher hands the customer utterance to the decoupled extraction
// pipeline. Publishing never affects the reply.
type LeadPublisher interface {
	Publish(ctx context.Context, conversationID, text string) error
}

// EngineMetrics records per-turn observability counters.
type EngineMetrics interface {
	ObserveTurn(source string)
	ObserveLLMFailure()
	ObserveLLMLatency(seconds float64)
	ObserveDisclaimer()
}

// EngineConfig carries the engine's collaborators. LLM, Cache and Prompts
// are required; everything else degrades gracefully when absent.
type EngineConfig struct {
	LLM          LLMClient
	Model        string
	MaxTokens    int32
	Temperature  float32
	Store        *ConversationStore
	Redis        *redis.Client
	Cache        *ResponseCache
	Prompts      *SystemPromptBuilder
	Disclaimers  *compliance.DisclaimerService
	Leads        LeadPublisher
	Metrics      EngineMetrics
	Logger       *logging.Logger
	Tracer       trace.Tracer
	HistoryLimit int
}

// Engine routes each customer turn: intent classification, the
// qualified-investor sub-dialogue, the canned response table, and finally
// the generative fallback. It implements Service.
type Engine struct {
	llm          LLMClient
	model        string
	maxTokens    int32
	temperature  float32
	store        *ConversationStore
	history      *historyStore
	cache        *ResponseCache
	prompts      *SystemPromptBuilder
	disclaimers  *compliance.DisclaimerService
	leads        LeadPublisher
	metrics      EngineMetrics
	logger       *logging.Logger
	tracer       trace.Tracer
	historyLimit int
}

// NewEngine builds the conversation engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.LLM == nil {
		panic("conversation: llm client cannot be nil")
	}
	if cfg.Cache == nil {
		panic("conversation: response cache cannot be nil")
	}
	if cfg.Prompts == nil {
		panic("conversation: prompt builder cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("movne.internal.conversation.engine")
	}
	if cfg.Disclaimers == nil {
		cfg.Disclaimers = compliance.NewDisclaimerService(compliance.DefaultDisclaimerConfig())
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}

	var history *historyStore
	if cfg.Redis != nil {
		history = newHistoryStore(cfg.Redis, cfg.Tracer)
	}

	return &Engine{
		llm:          cfg.LLM,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		store:        cfg.Store,
		history:      history,
		cache:        cfg.Cache,
		prompts:      cfg.Prompts,
		disclaimers:  cfg.Disclaimers,
		leads:        cfg.Leads,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		tracer:       cfg.Tracer,
		historyLimit: cfg.HistoryLimit,
	}
}

// StartConversation registers a new conversation and returns its identifier.
func (e *Engine) StartConversation(ctx context.Context, req StartRequest) (*Response, error) {
	id := strings.TrimSpace(req.ConversationID)
	if id == "" {
		id = uuid.NewString()
	}

	if err := e.store.EnsureConversation(ctx, id); err != nil {
		e.logger.Error("failed to ensure conversation", "error", err, "conversation_id", id)
	}

	return &Response{
		ConversationID: id,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// ProcessMessage runs one customer turn through the routing policy.
func (e *Engine) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	ctx, span := e.tracer.Start(ctx, "conversation.process_message")
	defer span.End()

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	utterance := strings.TrimSpace(req.Message)

	history := e.loadHistory(ctx, conversationID)
	status := e.resolveStatus(ctx, conversationID, history)
	intents := ClassifyIntents(utterance)

	reply, source, next := e.route(ctx, utterance, history, status, intents)
	span.SetAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.String("conversation.source", string(source)),
	)

	if next != status {
		if err := e.store.SetQualificationStatus(ctx, conversationID, next); err != nil {
			e.logger.Error("failed to persist qualification status",
				"error", err, "conversation_id", conversationID, "status", string(next))
		}
	}

	e.persistTurn(ctx, conversationID, history, utterance, reply)

	if e.leads != nil && utterance != "" {
		if err := e.leads.Publish(ctx, conversationID, utterance); err != nil {
			e.logger.Warn("failed to publish lead extraction",
				"error", err, "conversation_id", conversationID)
		}
	}

	if e.metrics != nil {
		e.metrics.ObserveTurn(string(source))
	}

	return &Response{
		ConversationID: conversationID,
		Message:        reply,
		Source:         source,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// GetHistory returns the ordered transcript for a conversation.
func (e *Engine) GetHistory(ctx context.Context, conversationID string) ([]Message, error) {
	if e.history != nil {
		if cached, found, err := e.history.Load(ctx, conversationID); err == nil && found {
			return cached, nil
		} else if err != nil {
			e.logger.Warn("history cache read failed", "error", err, "conversation_id", conversationID)
		}
	}
	return e.store.GetMessages(ctx, conversationID, 0)
}

// route selects the turn's reply. Precedence: the qualification sub-dialogue
// (a pending answer or a returns inquiry), then agreement requests, then the
// canned response table, then the generative fallback.
func (e *Engine) route(ctx context.Context, utterance string, history []Message, status QualificationStatus, intents IntentSet) (string, ResponseSource, QualificationStatus) {
	if status == QualificationAwaitingAnswer || intents.Has(IntentReturnsInquiry) {
		result := AdvanceQualification(status, utterance, history)
		if result.Handled {
			return result.Reply, SourceQualification, result.Next
		}
		// Terminal or expired status: return information stays gated behind
		// the generative fallback, which never quotes specific figures.
		reply, source := e.generate(ctx, utterance, history)
		return reply, source, result.Next
	}

	if intents.Has(IntentAgreementRequest) {
		return agreementResponse, SourceAgreement, status
	}

	if cached, ok := e.cache.Lookup(utterance); ok {
		return cached, SourceCache, status
	}

	reply, source := e.generate(ctx, utterance, history)
	return reply, source, status
}

// generate invokes the generative fallback and post-processes the reply
// with form links and the legal disclaimer. Failures degrade to the fixed
// apology string.
func (e *Engine) generate(ctx context.Context, utterance string, history []Message) (string, ResponseSource) {
	messages := make([]ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: utterance})

	started := time.Now()
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.model,
		System:      []string{e.prompts.Build(ctx, utterance, history)},
		Messages:    messages,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if e.metrics != nil {
		e.metrics.ObserveLLMLatency(time.Since(started).Seconds())
	}
	if err != nil {
		e.logger.Error("generative fallback failed", "error", err)
		if e.metrics != nil {
			e.metrics.ObserveLLMFailure()
		}
		return apologyMessage, SourceApology
	}

	reply := addFormLinks(resp.Text)
	withDisclaimer := e.disclaimers.AddDisclaimer(reply)
	if withDisclaimer != reply && e.metrics != nil {
		e.metrics.ObserveDisclaimer()
	}
	return withDisclaimer, SourceGenerative
}

// persistTurn writes the user and assistant messages to both stores.
// Persistence is best-effort; failures are logged and the reply is still
// delivered.
func (e *Engine) persistTurn(ctx context.Context, conversationID string, history []Message, utterance, reply string) {
	if err := e.store.AppendMessage(ctx, conversationID, ChatRoleUser, utterance); err != nil {
		e.logger.Error("failed to persist user message", "error", err, "conversation_id", conversationID)
	}
	if err := e.store.AppendMessage(ctx, conversationID, ChatRoleAssistant, reply); err != nil {
		e.logger.Error("failed to persist assistant message", "error", err, "conversation_id", conversationID)
	}

	if e.history != nil {
		updated := append(append([]Message{}, history...),
			Message{Role: ChatRoleUser, Content: utterance},
			Message{Role: ChatRoleAssistant, Content: reply},
		)
		if len(updated) > e.historyLimit {
			updated = updated[len(updated)-e.historyLimit:]
		}
		if err := e.history.Save(ctx, conversationID, updated); err != nil {
			e.logger.Warn("failed to cache history", "error", err, "conversation_id", conversationID)
		}
	}
}

// loadHistory prefers the Redis cache and falls back to PostgreSQL.
func (e *Engine) loadHistory(ctx context.Context, conversationID string) []Message {
	if e.history != nil {
		cached, found, err := e.history.Load(ctx, conversationID)
		if err != nil {
			e.logger.Warn("history cache read failed", "error", err, "conversation_id", conversationID)
		} else if found {
			return cached
		}
	}

	stored, err := e.store.GetMessages(ctx, conversationID, e.historyLimit)
	if err != nil {
		e.logger.Error("failed to load history", "error", err, "conversation_id", conversationID)
		return nil
	}
	return stored
}

// resolveStatus reads the persisted qualification status, falling back to
// history derivation for rows written before the column existed.
func (e *Engine) resolveStatus(ctx context.Context, conversationID string, history []Message) QualificationStatus {
	status, err := e.store.GetQualificationStatus(ctx, conversationID)
	if err != nil {
		e.logger.Error("failed to read qualification status", "error", err, "conversation_id", conversationID)
	}
	if status != "" && status != QualificationUnasked {
		return status
	}
	if status == QualificationUnasked {
		return status
	}
	return DeriveQualificationStatus(history)
}

// addFormLinks appends the relevant form URLs when the reply mentions the
// agreement or qualified-investor topics.
func addFormLinks(reply string) string {
	lowered := strings.ToLower(reply)
	for _, word := range []string{"הסכם", "חוזה", "טופס"} {
		if strings.Contains(lowered, word) {
			reply += "\n\nקישור להסכם שיווק השקעות: " + MarketingAgreementFormURL
			break
		}
	}
	if strings.Contains(lowered, "משקיע כשיר") {
		reply += "\n\nקישור להצהרת משקיע כשיר: " + QualifiedInvestorFormURL
	}
	return reply
}
