package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	registry *prometheus.Registry

	generationRequests *prometheus.CounterVec
	generationRetries  prometheus.Counter
	creditsDeducted    prometheus.Counter
	creditsGranted     prometheus.Counter
	webhookEvents      *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		generationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "generation_requests_total",
			Help:      "Generation calls by model and outcome.",
		}, []string{"model", "status"}),
		generationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "generation_retries_total",
			Help:      "Retries performed against overloaded providers.",
		}),
		creditsDeducted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "credits_deducted_total",
			Help:      "Credits deducted from accounts.",
		}),
		creditsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "credits_granted_total",
			Help:      "Credits granted to accounts.",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "payment_webhook_events_total",
			Help:      "Payment webhook deliveries by outcome.",
		}, []string{"status"}),
	}

	registry.MustRegister(
		m.generationRequests,
		m.generationRetries,
		m.creditsDeducted,
		m.creditsGranted,
		m.webhookEvents,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordGeneration(model, status string) {
	if m == nil {
		return
	}
	m.generationRequests.WithLabelValues(model, status).Inc()
}

func (m *Metrics) RecordGenerationRetry() {
	if m == nil {
		return
	}
	m.generationRetries.Inc()
}

func (m *Metrics) RecordCreditsDeducted(amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.creditsDeducted.Add(float64(amount))
}

func (m *Metrics) RecordCreditsGranted(amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.creditsGranted.Add(float64(amount))
}

func (m *Metrics) RecordWebhookEvent(status string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(status).Inc()
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
