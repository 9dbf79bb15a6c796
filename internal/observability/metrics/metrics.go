package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for scheduling decisions.
type SchedulingMetrics struct {
	decisionsTotal    *prometheus.CounterVec
	bookFailures      prometheus.Counter
	waitlistFills     prometheus.Counter
	waitlistDepth     prometheus.Gauge
	noShowProbability prometheus.Histogram
	decisionLatency   prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "decisions_total",
			Help:      "Total scheduling decisions by action and risk level",
		}, []string{"action", "risk_level"}),
		bookFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "booking_failures_total",
			Help:      "Bookings that failed after availability said yes",
		}),
		waitlistFills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "waitlist_fills_total",
			Help:      "Slots back-filled from the waitlist",
		}),
		waitlistDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "waitlist_depth",
			Help:      "Patients currently on the waitlist",
		}),
		noShowProbability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "no_show_probability",
			Help:      "Distribution of model no-show probabilities",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		decisionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "decision_latency_seconds",
			Help:      "Latency of the end-to-end scheduling pipeline",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.decisionsTotal,
		m.bookFailures,
		m.waitlistFills,
		m.waitlistDepth,
		m.noShowProbability,
		m.decisionLatency,
	)
	return m
}

func (m *SchedulingMetrics) ObserveDecision(action, riskLevel string, probability, seconds float64) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(action, riskLevel).Inc()
	m.noShowProbability.Observe(probability)
	m.decisionLatency.Observe(seconds)
}

func (m *SchedulingMetrics) ObserveBookFailure() {
	if m == nil {
		return
	}
	m.bookFailures.Inc()
}

func (m *SchedulingMetrics) ObserveWaitlistFill(filled int) {
	if m == nil {
		return
	}
	m.waitlistFills.Add(float64(filled))
}

func (m *SchedulingMetrics) SetWaitlistDepth(depth int) {
	if m == nil {
		return
	}
	m.waitlistDepth.Set(float64(depth))
}
