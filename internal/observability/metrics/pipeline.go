package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline collects the refinement loop's operational signals. A nil
// *Pipeline is valid and records nothing, so wiring stays optional.
type Pipeline struct {
	registry *prometheus.Registry

	runsTotal         *prometheus.CounterVec
	roundsPerRun      prometheus.Histogram
	roundScore        prometheus.Histogram
	roundDuration     prometheus.Histogram
	judgmentFallbacks *prometheus.CounterVec
	llmCallDuration   *prometheus.HistogramVec
}

func NewPipeline(service string) *Pipeline {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "selfrag",
			Subsystem: "loop",
			Name:      "runs_total",
			Help:      "Finished refinement runs by termination reason.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"termination"},
	)
	roundsPerRun := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "selfrag",
			Subsystem: "loop",
			Name:      "rounds_per_run",
			Help:      "Number of rounds a run took before terminating.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
	)
	roundScore := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "selfrag",
			Subsystem: "loop",
			Name:      "round_score",
			Help:      "Grounding score per round.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.75, 0.8, 0.9, 1},
		},
	)
	roundDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "selfrag",
			Subsystem: "loop",
			Name:      "round_duration_seconds",
			Help:      "Wall-clock duration of one full round.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	judgmentFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "selfrag",
			Subsystem: "loop",
			Name:      "judgment_fallbacks_total",
			Help:      "Malformed judgment responses resolved by the local fallback, by stage.",
		},
		[]string{"stage"},
	)
	llmCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "selfrag",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "External model call duration by operation and outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	registry.MustRegister(runsTotal, roundsPerRun, roundScore, roundDuration, judgmentFallbacks, llmCallDuration)

	return &Pipeline{
		registry:          registry,
		runsTotal:         runsTotal,
		roundsPerRun:      roundsPerRun,
		roundScore:        roundScore,
		roundDuration:     roundDuration,
		judgmentFallbacks: judgmentFallbacks,
		llmCallDuration:   llmCallDuration,
	}
}

func (m *Pipeline) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Pipeline) ObserveRound(score float64, duration time.Duration, guardFallback, evalFallback bool) {
	if m == nil {
		return
	}
	m.roundScore.Observe(score)
	m.roundDuration.Observe(duration.Seconds())
	if guardFallback {
		m.judgmentFallbacks.WithLabelValues("relevance_guard").Inc()
	}
	if evalFallback {
		m.judgmentFallbacks.WithLabelValues("grounding_evaluator").Inc()
	}
}

func (m *Pipeline) FinishRun(termination string, rounds int) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(termination).Inc()
	m.roundsPerRun.Observe(float64(rounds))
}

func (m *Pipeline) ObserveLLMCall(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmCallDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}
