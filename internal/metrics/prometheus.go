package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_feedback_pipeline_runs_total",
			Help: "Feedback pipeline executions by outcome",
		},
		[]string{"outcome"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mockprep_feedback_pipeline_duration_seconds",
			Help:    "Feedback pipeline duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"outcome"},
	)

	SkippedEvaluationItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_evaluation_items_skipped_total",
			Help: "Evaluation entries dropped because their key was not recognised",
		},
		[]string{"kind"},
	)

	OverallScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mockprep_interview_overall_score",
			Help:    "Overall interview scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_llm_requests_total",
			Help: "Structured generation requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_llm_tokens_used_total",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	InterviewsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_interviews_created_total",
			Help: "Interviews created by question source",
		},
		[]string{"source"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mockprep_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mockprep_active_sessions",
			Help: "Open live interview sessions",
		},
	)
)

func Init() {
	prometheus.MustRegister(PipelineRuns)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(SkippedEvaluationItems)
	prometheus.MustRegister(OverallScore)
	prometheus.MustRegister(LLMRequests)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(InterviewsCreated)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(ActiveSessions)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
