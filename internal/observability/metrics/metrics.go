package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the conversation
// engine and the lead extraction pipeline. It satisfies both the engine's
// and the pipeline's metrics interfaces.
type ConversationMetrics struct {
	turnsTotal       *prometheus.CounterVec
	llmFailures      prometheus.Counter
	llmLatency       prometheus.Histogram
	disclaimersTotal prometheus.Counter
	leadCandidates   *prometheus.CounterVec
	leadsSavedTotal  *prometheus.CounterVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "movne",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total conversation turns by response source",
		}, []string{"source"}),
		llmFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "movne",
			Subsystem: "conversation",
			Name:      "llm_failures_total",
			Help:      "Total generative fallback failures",
		}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "movne",
			Subsystem: "conversation",
			Name:      "llm_latency_seconds",
			Help:      "Latency of generative fallback calls",
			Buckets:   prometheus.DefBuckets,
		}),
		disclaimersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "movne",
			Subsystem: "conversation",
			Name:      "disclaimers_injected_total",
			Help:      "Total legal disclaimers appended to replies",
		}),
		leadCandidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "movne",
			Subsystem: "extraction",
			Name:      "lead_candidates_total",
			Help:      "Total extracted lead candidates by kind",
		}, []string{"kind"}),
		leadsSavedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "movne",
			Subsystem: "extraction",
			Name:      "leads_saved_total",
			Help:      "Total lead save attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.llmFailures, m.llmLatency, m.disclaimersTotal, m.leadCandidates, m.leadsSavedTotal)
	return m
}

func (m *ConversationMetrics) ObserveTurn(source string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(source).Inc()
}

func (m *ConversationMetrics) ObserveLLMFailure() {
	if m == nil {
		return
	}
	m.llmFailures.Inc()
}

func (m *ConversationMetrics) ObserveLLMLatency(seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(seconds)
}

func (m *ConversationMetrics) ObserveDisclaimer() {
	if m == nil {
		return
	}
	m.disclaimersTotal.Inc()
}

func (m *ConversationMetrics) ObserveCandidates(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.leadCandidates.WithLabelValues(kind).Add(float64(count))
}

func (m *ConversationMetrics) ObserveLeadSaved(ok bool) {
	if m == nil {
		return
	}
	outcome := "saved"
	if !ok {
		outcome = "failed"
	}
	m.leadsSavedTotal.WithLabelValues(outcome).Inc()
}
