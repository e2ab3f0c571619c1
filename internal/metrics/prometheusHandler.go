package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var chatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chat_requests_total",
	Help: "Chat questions labelled by route taken",
}, []string{"route"})

var cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cache_lookups_total",
	Help: "Response cache lookups labelled by outcome",
}, []string{"outcome"})

var recordsIndexedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "records_indexed_total",
	Help: "Feature records written to the vector store, per department",
}, []string{"department"})

var recordsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "records_skipped_total",
	Help: "Records skipped by a pipeline stage, labelled by stage and reason",
}, []string{"stage", "reason"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) CaptureWriteHeaderMetrics(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func CountChatRequest(route string) {
	chatRequestsTotal.WithLabelValues(route).Inc()
}

func CountCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookupsTotal.WithLabelValues(outcome).Inc()
}

func CountIndexedRecords(department string, n int) {
	recordsIndexedTotal.WithLabelValues(department).Add(float64(n))
}

func CountSkippedRecords(stage, reason string, n int) {
	recordsSkippedTotal.WithLabelValues(stage, reason).Add(float64(n))
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_request_duration_seconds",
	Help:    "Total time spent answering a chat question.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

var stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pipeline_stage_duration_seconds",
	Help:    "Wall time of one pipeline stage for one department.",
	Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
}, []string{"stage"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureRequestMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureStageMetrics(stage string, timeElapsed time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(timeElapsed.Seconds())
}
