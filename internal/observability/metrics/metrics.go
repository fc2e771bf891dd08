package metrics

import "github.com/prometheus/client_golang/prometheus"

// TurnMetrics exposes counters/histograms for the conversation pipeline.
type TurnMetrics struct {
	turnsTotal    *prometheus.CounterVec
	leadsTotal    *prometheus.CounterVec
	modelLatency  prometheus.Histogram
	imagesDropped prometheus.Counter
}

func NewTurnMetrics(reg prometheus.Registerer) *TurnMetrics {
	m := &TurnMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prontocasa",
			Subsystem: "assistant",
			Name:      "turns_total",
			Help:      "Conversation turns by terminal state",
		}, []string{"outcome"}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prontocasa",
			Subsystem: "assistant",
			Name:      "leads_total",
			Help:      "Leads extracted per turn, by actionability",
		}, []string{"actionable"}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "prontocasa",
			Subsystem: "assistant",
			Name:      "model_latency_seconds",
			Help:      "Latency of external model completions",
			Buckets:   prometheus.DefBuckets,
		}),
		imagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "prontocasa",
			Subsystem: "assistant",
			Name:      "images_dropped_total",
			Help:      "Attached images dropped because they could not be resolved",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.leadsTotal, m.modelLatency, m.imagesDropped)
	return m
}

// ObserveTurn records a terminal pipeline state: safety, greeting, reply,
// apology or unavailable.
func (m *TurnMetrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

// ObserveLead records a lead extraction.
func (m *TurnMetrics) ObserveLead(actionable bool) {
	if m == nil {
		return
	}
	label := "false"
	if actionable {
		label = "true"
	}
	m.leadsTotal.WithLabelValues(label).Inc()
}

// ObserveModelLatency records one completion round-trip.
func (m *TurnMetrics) ObserveModelLatency(seconds float64) {
	if m == nil {
		return
	}
	m.modelLatency.Observe(seconds)
}

// ObserveImageDropped records a dropped attachment.
func (m *TurnMetrics) ObserveImageDropped() {
	if m == nil {
		return
	}
	m.imagesDropped.Inc()
}
