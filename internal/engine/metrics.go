package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
)

type Metrics struct {
	// Traffic: события на шине по виду, метке и статусу
	EventsTotal *prometheus.CounterVec

	// Распределение риск-скора автоматически оцененных событий
	RiskScore prometheus.Histogram

	// Threats: события с меткой HIGH RISK (как счетчик на дашборде)
	ThreatsTotal prometheus.Counter

	// Errors: классификация отказов (generation, render, sink_panic, feed_write)
	ErrorTotal *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker внешней ленты (0 - ок, 1 - выбило, 0.5 - пробуем)
	CircuitBreakerState *prometheus.GaugeVec

	// Feed: заполненность буфера форвардера (backpressure)
	FeedBufferFill prometheus.Gauge

	// Подключенные WebSocket-клиенты
	StreamClients prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		EventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "soc_events_total",
			Help: "Total number of events published on the bus.",
		}, []string{"kind", "label", "status"}),

		RiskScore: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "soc_risk_score",
			Help:    "Histogram of risk scores of automatically scored events.",
			Buckets: []float64{10, 20, 35, 50, 70, 80, 90, 100},
		}),

		ThreatsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "soc_threats_total",
			Help: "Total number of HIGH RISK events.",
		}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "soc_errors_total",
			Help: "Total number of errors by type.",
		}, []string{"type"}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "soc_circuit_breaker_state",
			Help: "Current state of the feed circuit breaker (0=closed, 0.5=half-open, 1=open).",
		}, []string{"sink"}),

		FeedBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "soc_feed_buffer_utilization",
			Help: "Current number of events in the feed buffer.",
		}),

		StreamClients: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "soc_stream_clients",
			Help: "Number of connected WebSocket clients.",
		}),
	}
}

// Consume делает Metrics подписчиком шины.
func (m *Metrics) Consume(ev domain.ScoredEvent) {
	m.EventsTotal.WithLabelValues(string(ev.Kind), string(ev.RiskLabel), string(ev.Status)).Inc()

	switch ev.Kind {
	case domain.KindPulse, domain.KindRead, domain.KindWrite, domain.KindScenario:
		m.RiskScore.Observe(ev.RiskScore)
	}
	if ev.RiskLabel == domain.LabelHigh {
		m.ThreatsTotal.Inc()
	}
}

// CountError - хук для OnError/OnStepFailed/OnSinkFailure.
func (m *Metrics) CountError(kind string) {
	m.ErrorTotal.WithLabelValues(kind).Inc()
}
