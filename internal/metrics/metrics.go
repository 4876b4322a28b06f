package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	modelCallsCounter       *prometheus.CounterVec
	modelCallDurationMetric *prometheus.HistogramVec
	parseResultsCounter     *prometheus.CounterVec
	validationsCounter      *prometheus.CounterVec
	transitionsCounter      *prometheus.CounterVec
	completedSessionsMetric prometheus.Counter
)

// Init 在默认 Prometheus registry 上注册指标，只执行一次
func Init() {
	initOnce.Do(func() {
		modelCallsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yoshilog_model_calls_total",
				Help: "Total number of multimodal model calls by purpose and outcome.",
			},
			[]string{"purpose", "outcome"},
		)

		modelCallDurationMetric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yoshilog_model_call_duration_seconds",
				Help:    "Duration of multimodal model calls in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"purpose"},
		)

		parseResultsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yoshilog_procedure_parses_total",
				Help: "Total number of procedure parse attempts by input kind and result.",
			},
			[]string{"kind", "result"},
		)

		validationsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yoshilog_step_validations_total",
				Help: "Total number of step validation results by outcome.",
			},
			[]string{"outcome"},
		)

		transitionsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yoshilog_workflow_events_total",
				Help: "Total number of workflow events by event type and acceptance.",
			},
			[]string{"event", "accepted"},
		)

		completedSessionsMetric = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "yoshilog_completed_sessions_total",
				Help: "Total number of procedures worked through to completion.",
			},
		)

		prometheus.MustRegister(
			modelCallsCounter,
			modelCallDurationMetric,
			parseResultsCounter,
			validationsCounter,
			transitionsCounter,
			completedSessionsMetric,
		)

		for _, outcome := range []string{"ok", "ng", "error"} {
			validationsCounter.WithLabelValues(outcome)
		}
	})
}

func ObserveModelCall(purpose string, d time.Duration, err error) {
	Init()
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	modelCallsCounter.WithLabelValues(purpose, outcome).Inc()
	modelCallDurationMetric.WithLabelValues(purpose).Observe(d.Seconds())
}

func IncParseResult(kind string, ok bool) {
	Init()
	result := "success"
	if !ok {
		result = "failure"
	}
	parseResultsCounter.WithLabelValues(kind, result).Inc()
}

func IncValidation(outcome string) {
	Init()
	validationsCounter.WithLabelValues(outcome).Inc()
}

func IncWorkflowEvent(event string, accepted bool) {
	Init()
	label := "true"
	if !accepted {
		label = "false"
	}
	transitionsCounter.WithLabelValues(event, label).Inc()
}

func IncCompletedSessions() {
	Init()
	completedSessionsMetric.Inc()
}
