package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movne-global/sales-ai-platform/internal/compliance"
	"github.com/movne-global/sales-ai-platform/internal/knowledge"
	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

type fakeLLM struct {
	calls int
	text  string
	err   error
}

func (f *fakeLLM) Complete(_ context.Context, _ LLMRequest) (LLMResponse, error) {
	f.calls++
	if f.err != nil {
		return LLMResponse{}, f.err
	}
	return LLMResponse{Text: f.text}, nil
}

type recordingPublisher struct {
	conversationIDs []string
	texts           []string
}

func (r *recordingPublisher) Publish(_ context.Context, conversationID, text string) error {
	r.conversationIDs = append(r.conversationIDs, conversationID)
	r.texts = append(r.texts, text)
	return nil
}

type emptyProvider struct{}

func (emptyProvider) Get(string) string { return "" }

func newTestEngine(t *testing.T, llm LLMClient, opts ...func(*EngineConfig)) *Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := EngineConfig{
		LLM:         llm,
		Model:       "test-model",
		Redis:       rdb,
		Cache:       NewResponseCache(nil),
		Prompts:     NewSystemPromptBuilder(emptyProvider{}, nil),
		Disclaimers: compliance.NewDisclaimerService(compliance.DefaultDisclaimerConfig()),
		Logger:      logging.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewEngine(cfg)
}

func TestEngineGenerativeFallbackInvokedOnce(t *testing.T) {
	llm := &fakeLLM{text: "תשובה כללית על המוצרים שלנו"}
	engine := newTestEngine(t, llm)

	resp, err := engine.ProcessMessage(context.Background(), MessageRequest{
		ConversationID: "conv-1",
		Message:        "ספרו לי על עצמכם",
	})

	require.NoError(t, err)
	assert.Equal(t, SourceGenerative, resp.Source)
	assert.Equal(t, 1, llm.calls)
}

func TestEngineQualificationFlow(t *testing.T) {
	llm := &fakeLLM{text: "תשובה כללית"}
	engine := newTestEngine(t, llm)
	ctx := context.Background()

	// A returns inquiry triggers the scripted question, not the LLM.
	resp, err := engine.ProcessMessage(ctx, MessageRequest{
		ConversationID: "conv-q",
		Message:        "מה התשואה על המוצר?",
	})
	require.NoError(t, err)
	assert.Equal(t, SourceQualification, resp.Source)
	assert.Contains(t, resp.Message, qualificationMarker)
	assert.Zero(t, llm.calls)

	// An affirmative answer yields the qualified-investor form link.
	resp, err = engine.ProcessMessage(ctx, MessageRequest{
		ConversationID: "conv-q",
		Message:        "כן, אני עומד בתנאים",
	})
	require.NoError(t, err)
	assert.Equal(t, SourceQualification, resp.Source)
	assert.Contains(t, resp.Message, QualifiedInvestorFormURL)
	assert.Zero(t, llm.calls)

	// A later returns inquiry must not re-ask; the fallback takes the turn.
	resp, err = engine.ProcessMessage(ctx, MessageRequest{
		ConversationID: "conv-q",
		Message:        "אז מה התשואות?",
	})
	require.NoError(t, err)
	assert.Equal(t, SourceGenerative, resp.Source)
	assert.NotContains(t, resp.Message, qualificationMarker)
	assert.Equal(t, 1, llm.calls)
}

func TestEngineQualificationNegativeAnswer(t *testing.T) {
	llm := &fakeLLM{text: "תשובה"}
	engine := newTestEngine(t, llm)
	ctx := context.Background()

	_, err := engine.ProcessMessage(ctx, MessageRequest{
		ConversationID: "conv-n",
		Message:        "כמה ריבית אתם משלמים?",
	})
	require.NoError(t, err)

	resp, err := engine.ProcessMessage(ctx, MessageRequest{
		ConversationID: "conv-n",
		Message:        "לא, עדיין לא",
	})
	require.NoError(t, err)
	assert.Equal(t, SourceQualification, resp.Source)
	assert.Contains(t, resp.Message, MarketingAgreementFormURL)
	assert.NotContains(t, resp.Message, QualifiedInvestorFormURL)
}

func TestEngineAgreementRequest(t *testing.T) {
	llm := &fakeLLM{text: "תשובה"}
	engine := newTestEngine(t, llm)

	resp, err := engine.ProcessMessage(context.Background(), MessageRequest{
		ConversationID: "conv-a",
		Message:        "אשמח לקבל חוזה",
	})

	require.NoError(t, err)
	assert.Equal(t, SourceAgreement, resp.Source)
	assert.Contains(t, resp.Message, MarketingAgreementFormURL)
	assert.Zero(t, llm.calls)
}

func TestEngineReturnsTakesPrecedenceOverAgreement(t *testing.T) {
	llm := &fakeLLM{text: "תשובה"}
	engine := newTestEngine(t, llm)

	resp, err := engine.ProcessMessage(context.Background(), MessageRequest{
		ConversationID: "conv-p",
		Message:        "לפני שאחתום על הסכם, מה התשואה?",
	})

	require.NoError(t, err)
	assert.Equal(t, SourceQualification, resp.Source)
	assert.Contains(t, resp.Message, qualificationMarker)
}

func TestEngineCachedResponse(t *testing.T) {
	llm := &fakeLLM{text: "תשובה"}
	engine := newTestEngine(t, llm, func(cfg *EngineConfig) {
		cfg.Cache = NewResponseCache([]knowledge.PatternResponse{
			{Pattern: "שלום", Response: "DYNAMIC_GREETING! כאן מובנה גלובל."},
		})
	})

	resp, err := engine.ProcessMessage(context.Background(), MessageRequest{
		ConversationID: "conv-c",
		Message:        "שלום",
	})

	require.NoError(t, err)
	assert.Equal(t, SourceCache, resp.Source)
	assert.NotContains(t, resp.Message, "DYNAMIC_GREETING")
	assert.Contains(t, resp.Message, "כאן מובנה גלובל")
	assert.Zero(t, llm.calls)
}

func TestEngineApologyOnLLMFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("provider down")}
	engine := newTestEngine(t, llm)

	resp, err := engine.ProcessMessage(context.Background(), MessageRequest{
		ConversationID: "conv-f",
		Message:        "שאלה חופשית",
	})

	require.NoError(t, err)
	assert.Equal(t, SourceApology, resp.Source)
	assert.Equal(t, apologyMessage, resp.Message)
}

func TestEngineDisclaimerInjection(t *testing.T) {
	llm := &fakeLLM{text: "המוצר מציע רווח פוטנציאלי לצד הגנה על הקרן"}
	engine := newTestEngine(t, llm)

	resp, err := engine.ProcessMessage(context.Background(), MessageRequest{
		ConversationID: "conv-d",
		Message:        "ספרו לי עוד",
	})

	require.NoError(t, err)
	disclaimer := compliance.NewDisclaimerService(compliance.DefaultDisclaimerConfig()).GetDisclaimerText()
	assert.Contains(t, resp.Message, disclaimer)
	assert.Equal(t, 1, strings.Count(resp.Message, disclaimer), "disclaimer must appear exactly once")
}

func TestEngineFormLinkInjection(t *testing.T) {
	llm := &fakeLLM{text: "כדי להתקדם נחתום על הסכם שיווק"}
	engine := newTestEngine(t, llm)

	resp, err := engine.ProcessMessage(context.Background(), MessageRequest{
		ConversationID: "conv-l",
		Message:        "מה השלב הבא?",
	})

	require.NoError(t, err)
	assert.Contains(t, resp.Message, MarketingAgreementFormURL)
}

func TestEnginePublishesLeadExtraction(t *testing.T) {
	llm := &fakeLLM{text: "תשובה"}
	publisher := &recordingPublisher{}
	engine := newTestEngine(t, llm, func(cfg *EngineConfig) {
		cfg.Leads = publisher
	})

	utterance := "קוראים לי דני והטלפון שלי 050-1234567"
	_, err := engine.ProcessMessage(context.Background(), MessageRequest{
		ConversationID: "conv-e",
		Message:        utterance,
	})

	require.NoError(t, err)
	require.Len(t, publisher.texts, 1)
	assert.Equal(t, utterance, publisher.texts[0])
	assert.Equal(t, "conv-e", publisher.conversationIDs[0])
}

func TestEngineHistoryAccumulates(t *testing.T) {
	llm := &fakeLLM{text: "תשובה ראשונה"}
	engine := newTestEngine(t, llm)
	ctx := context.Background()

	_, err := engine.ProcessMessage(ctx, MessageRequest{
		ConversationID: "conv-h",
		Message:        "שאלה ראשונה",
	})
	require.NoError(t, err)

	history, err := engine.GetHistory(ctx, "conv-h")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ChatRoleUser, history[0].Role)
	assert.Equal(t, "שאלה ראשונה", history[0].Content)
	assert.Equal(t, ChatRoleAssistant, history[1].Role)
}

func TestEngineStartConversationGeneratesID(t *testing.T) {
	engine := newTestEngine(t, &fakeLLM{text: "x"})

	resp, err := engine.StartConversation(context.Background(), StartRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ConversationID)

	resp2, err := engine.StartConversation(context.Background(), StartRequest{ConversationID: "given"})
	require.NoError(t, err)
	assert.Equal(t, "given", resp2.ConversationID)
}
