// Package metrics exposes Prometheus instrumentation for the chat pipeline.
// All observer methods tolerate a nil receiver so instrumentation stays
// optional in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the pipeline collectors.
type Metrics struct {
	turnsStarted   *prometheus.CounterVec
	chunksRelayed  prometheus.Counter
	agentTurns     *prometheus.CounterVec
	tokensConsumed *prometheus.CounterVec
	providerErrors *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "symposium_turns_started_total",
			Help: "Orchestrated turns started, by conversation mode.",
		}, []string{"mode"}),
		chunksRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "symposium_stream_chunks_total",
			Help: "Text chunks relayed to clients.",
		}),
		agentTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "symposium_agent_turns_total",
			Help: "Agent turns completed, by model and outcome.",
		}, []string{"model", "outcome"}),
		tokensConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "symposium_tokens_total",
			Help: "Tokens consumed, by model.",
		}, []string{"model"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "symposium_provider_errors_total",
			Help: "Provider stream failures, by provider name.",
		}, []string{"provider"}),
	}
	reg.MustRegister(m.turnsStarted, m.chunksRelayed, m.agentTurns, m.tokensConsumed, m.providerErrors)
	return m
}

// TurnStarted counts one orchestrated turn.
func (m *Metrics) TurnStarted(mode string) {
	if m == nil {
		return
	}
	m.turnsStarted.WithLabelValues(mode).Inc()
}

// ChunkRelayed counts one text chunk delivered to a client.
func (m *Metrics) ChunkRelayed() {
	if m == nil {
		return
	}
	m.chunksRelayed.Inc()
}

// AgentTurn counts one completed agent turn and its token consumption.
func (m *Metrics) AgentTurn(model string, tokens int, success bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	m.agentTurns.WithLabelValues(model, outcome).Inc()
	if tokens > 0 {
		m.tokensConsumed.WithLabelValues(model).Add(float64(tokens))
	}
}

// ProviderError counts one provider stream failure.
func (m *Metrics) ProviderError(provider string) {
	if m == nil {
		return
	}
	m.providerErrors.WithLabelValues(provider).Inc()
}
