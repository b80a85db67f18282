// Package metrics provides Prometheus metrics for the touchdown alert engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline
	cyclesTotal      prometheus.Counter
	cycleDuration    prometheus.Histogram
	gamesProcessed   *prometheus.CounterVec
	trackedPlayers   prometheus.Gauge
	playsNormalized  *prometheus.CounterVec
	feedFaults       *prometheus.CounterVec
	outcomes         *prometheus.CounterVec
	unknownLabels    *prometheus.CounterVec
	pipelineLatency  prometheus.Histogram
	feedFetchLatency prometheus.Histogram
	feedFetchErrors  *prometheus.CounterVec

	// Dedup, publish, archive
	dedupInserted    prometheus.Counter
	dedupDuplicates  prometheus.Counter
	dedupStoreErrors *prometheus.CounterVec
	published        *prometheus.CounterVec
	publishErrors    *prometheus.CounterVec
	archiveWrites    *prometheus.CounterVec
	archiveErrors    *prometheus.CounterVec

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton recorder target

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // exposed through GetRegistry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "touchdown",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(auto promauto.Factory, name, help string) prometheus.Counter {
	return auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: name, Help: help,
	})
}

func (m *Manager) counterVec(auto promauto.Factory, name, help string, labels ...string) *prometheus.CounterVec {
	return auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(auto promauto.Factory, name, help string) prometheus.Gauge {
	return auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: name, Help: help,
	})
}

func (m *Manager) histogram(auto promauto.Factory, name, help string, buckets []float64) prometheus.Histogram {
	return auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)
	b := m.histogramBuckets

	m.cyclesTotal = m.counter(auto, "poll_cycles_total", "Total number of poll cycles started")
	m.cycleDuration = m.histogram(auto, "poll_cycle_duration_milliseconds", "Poll cycle duration in milliseconds", b)
	m.gamesProcessed = m.counterVec(auto, "games_processed_total", "Games processed per cycle by status", "status")
	m.trackedPlayers = m.gauge(auto, "tracked_players", "Roster entries tracked in the current cycle")
	m.playsNormalized = m.counterVec(auto, "plays_normalized_total", "Plays emitted by the feed normalizer by schema", "schema")
	m.feedFaults = m.counterVec(auto, "feed_faults_total", "Drives or plays dropped during normalization", "reason")
	m.outcomes = m.counterVec(auto, "outcomes_total", "Credited outcomes by kind and role", "kind", "role")
	m.unknownLabels = m.counterVec(auto, "unknown_labels_total", "Scoring plays with an unhandled label", "label")
	m.pipelineLatency = m.histogram(auto, "pipeline_latency_milliseconds", "Per-game pipeline latency in milliseconds", b)
	m.feedFetchLatency = m.histogram(auto, "feed_fetch_latency_milliseconds", "Feed fetch latency in milliseconds", b)
	m.feedFetchErrors = m.counterVec(auto, "feed_fetch_errors_total", "Feed fetch failures by reason", "reason")

	m.dedupInserted = m.counter(auto, "dedup_inserted_total", "Dedup keys recorded for the first time")
	m.dedupDuplicates = m.counter(auto, "dedup_duplicates_total", "Dedup keys already recorded")
	m.dedupStoreErrors = m.counterVec(auto, "dedup_store_errors_total", "Dedup store failures by backend", "backend")
	m.published = m.counterVec(auto, "notifications_published_total", "Notifications published by publisher", "publisher")
	m.publishErrors = m.counterVec(auto, "notification_publish_errors_total", "Publish failures by publisher", "publisher")
	m.archiveWrites = m.counterVec(auto, "archive_writes_total", "Anomaly archive writes by backend", "backend")
	m.archiveErrors = m.counterVec(auto, "archive_errors_total", "Anomaly archive failures by backend", "backend")

	m.queueSize = m.gauge(auto, "queue_size", "Current number of queued game jobs")
	m.queueCapacity = m.gauge(auto, "queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge(auto, "queue_utilization_ratio", "Queue utilization ratio (size / capacity)")
	m.queueEnqueue = m.counter(auto, "queue_enqueue_total", "Total number of game jobs enqueued")
	m.queueDequeue = m.counter(auto, "queue_dequeue_total", "Total number of game jobs dequeued")
	m.queueEnqueueErrors = m.counter(auto, "queue_enqueue_errors_total", "Game jobs rejected by the queue")
	m.queueProcessingLatency = m.histogram(auto, "queue_processing_latency_milliseconds", "Time from enqueue to dequeue in milliseconds", b)

	m.workerCount = m.gauge(auto, "worker_count", "Configured number of workers")
	m.workerActiveCount = m.gauge(auto, "worker_active_count", "Workers currently running a job")
	m.workerIdleCount = m.gauge(auto, "worker_idle_count", "Workers waiting for a job")
	m.workerProcessingLatency = m.histogram(auto, "worker_processing_latency_milliseconds", "Per-job worker latency in milliseconds", b)
	m.workerErrors = m.counter(auto, "worker_errors_total", "Jobs that ended in error")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total", Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: b,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec(auto, "errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec(auto, "errors_by_type_total", "Errors by type and severity", "error_type", "severity")

	m.systemMemoryUsage = m.gauge(auto, "system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge(auto, "system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram(auto, "system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Pipeline recorders.

// RecordCycle counts a started poll cycle.
func RecordCycle() { globalManager.cyclesTotal.Inc() }

// RecordCycleDuration records a finished poll cycle.
func RecordCycleDuration(ms float64) { globalManager.cycleDuration.Observe(ms) }

// RecordGame counts a game by outcome status (ok, failed, skipped).
func RecordGame(status string) { globalManager.gamesProcessed.WithLabelValues(status).Inc() }

// UpdateTrackedPlayers sets the number of roster entries in the cycle.
func UpdateTrackedPlayers(n int) { globalManager.trackedPlayers.Set(float64(n)) }

// RecordPlaysNormalized adds n plays for schema.
func RecordPlaysNormalized(schema string, n int) {
	globalManager.playsNormalized.WithLabelValues(schema).Add(float64(n))
}

// RecordFeedFault counts a dropped drive or play.
func RecordFeedFault(reason string) { globalManager.feedFaults.WithLabelValues(reason).Inc() }

// RecordOutcome counts a credited outcome.
func RecordOutcome(kind, role string) { globalManager.outcomes.WithLabelValues(kind, role).Inc() }

// RecordUnknownLabel counts a scoring play with no handler.
func RecordUnknownLabel(label string) { globalManager.unknownLabels.WithLabelValues(label).Inc() }

// RecordPipelineLatency records one game's pipeline run.
func RecordPipelineLatency(ms float64) { globalManager.pipelineLatency.Observe(ms) }

// RecordFeedFetchLatency records one feed fetch.
func RecordFeedFetchLatency(ms float64) { globalManager.feedFetchLatency.Observe(ms) }

// RecordFeedFetchError counts a failed feed fetch.
func RecordFeedFetchError(reason string) { globalManager.feedFetchErrors.WithLabelValues(reason).Inc() }

// Dedup, publish and archive recorders.

// RecordDedupInserted counts a first-time dedup insert.
func RecordDedupInserted() { globalManager.dedupInserted.Inc() }

// RecordDedupDuplicate counts a dedup key that was already present.
func RecordDedupDuplicate() { globalManager.dedupDuplicates.Inc() }

// RecordDedupStoreError counts a dedup store failure.
func RecordDedupStoreError(backend string) {
	globalManager.dedupStoreErrors.WithLabelValues(backend).Inc()
}

// RecordPublished counts a delivered notification.
func RecordPublished(publisher string) { globalManager.published.WithLabelValues(publisher).Inc() }

// RecordPublishError counts a failed delivery.
func RecordPublishError(publisher string) {
	globalManager.publishErrors.WithLabelValues(publisher).Inc()
}

// RecordArchiveWrite counts an archived anomaly.
func RecordArchiveWrite(backend string) { globalManager.archiveWrites.WithLabelValues(backend).Inc() }

// RecordArchiveError counts a failed archive write.
func RecordArchiveError(backend string) { globalManager.archiveErrors.WithLabelValues(backend).Inc() }

// Queue recorders.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueue.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeue.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records time spent queued.
func RecordQueueProcessingLatency(ms float64) { globalManager.queueProcessingLatency.Observe(ms) }

// Worker recorders.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(n int) { globalManager.workerActiveCount.Set(float64(n)) }

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(n int) { globalManager.workerIdleCount.Set(float64(n)) }

// RecordWorkerProcessingLatency records one job.
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerProcessingLatency.Observe(ms) }

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// HTTP recorders.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// Error recorders.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System recorders.

// UpdateSystemMemoryUsage sets heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(n int) { globalManager.systemGoroutineCount.Set(float64(n)) }

// RecordSystemGCPauseTime records a GC pause.
func RecordSystemGCPauseTime(ms float64) { globalManager.systemGCPauseTime.Observe(ms) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
