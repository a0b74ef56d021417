// Package metrics exposes the Prometheus metrics of the curation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the service records.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Round economics
	roundsTotal        prometheus.Counter
	roundFailures      *prometheus.CounterVec
	roundDuration      prometheus.Histogram
	pairsTotal         *prometheus.CounterVec
	votesTotal         *prometheus.CounterVec
	tiesTotal          prometheus.Counter
	slashesTotal       prometheus.Counter
	slashedStake       prometheus.Counter
	suspensionsTotal   prometheus.Counter
	reinstatements     prometheus.Counter
	fraudFlags         prometheus.Counter
	rewardsPaid        prometheus.Counter
	rewardStarvation   prometheus.Counter
	minorityLosses     prometheus.Counter
	poolBalance        prometheus.Gauge
	curators           *prometheus.GaugeVec
	posts              prometheus.Gauge
	leaderboardUpdates prometheus.Counter

	// Round submission pipeline
	requestsDuplicate prometheus.Counter
	requestsLimited   prometheus.Counter
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueEnqueueErrs  prometheus.Counter
	queueWait         prometheus.Histogram
	workerLatency     prometheus.Histogram
	workerErrors      prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics

// customRegistry keeps the default Go collectors out of the exposition.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates and registers a full metric set.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "curation",
		subsystem:        "economy",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.roundsTotal = m.counter("rounds_total", "Rounds settled")
	m.roundFailures = m.counterVec("round_failures_total", "Rounds rejected before settlement", "error_type")
	m.roundDuration = m.histogram("round_duration_milliseconds", "Wall time to run one round")
	m.pairsTotal = m.counterVec("pairs_total", "Pairs compared by kind", "kind")
	m.votesTotal = m.counterVec("votes_total", "Votes cast by choice", "choice")
	m.tiesTotal = m.counter("pair_ties_total", "Pairs resolved without a majority")
	m.slashesTotal = m.counter("slashes_total", "Curators slashed")
	m.slashedStake = m.counter("slashed_stake_total", "Stake moved into the pool by slashing")
	m.suspensionsTotal = m.counter("suspensions_total", "Curator suspensions")
	m.reinstatements = m.counter("reinstatements_total", "Curators reinstated after suspension")
	m.fraudFlags = m.counter("fraud_flags_total", "Behavioral anomaly flags raised")
	m.rewardsPaid = m.counter("rewards_paid_total", "Rewards withdrawn from the pool")
	m.rewardStarvation = m.counter("reward_starvation_total", "Rewards zeroed because the pool ran dry")
	m.minorityLosses = m.counter("minority_losses_total", "Stake lost by minority voters")
	m.poolBalance = m.gauge("pool_balance", "Current reward pool balance")
	m.curators = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "curators", Help: "Registered curators by state",
	}, []string{"state"})
	m.posts = m.gauge("posts", "Registered posts")
	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Leaderboard refreshes")

	m.requestsDuplicate = m.counter("round_requests_duplicate_total", "Round requests dropped as duplicates")
	m.requestsLimited = m.counter("round_requests_limited_total", "Round requests rejected by the rate limiter")
	m.queueSize = m.gauge("queue_size", "Round requests waiting")
	m.queueCapacity = m.gauge("queue_capacity", "Round queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Round requests enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Round requests dequeued")
	m.queueEnqueueErrs = m.counter("queue_enqueue_errors_total", "Round requests rejected by the queue")
	m.queueWait = m.histogram("queue_wait_milliseconds", "Time a round request waited in the queue")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Time the worker spent on a request")
	m.workerErrors = m.counter("worker_errors_total", "Round requests that failed in the worker")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "HTTP errors by endpoint",
		"endpoint", "method", "error_type")
}

// RecordRound counts a settled round and its wall time.
func RecordRound(durationMs float64) {
	globalManager.roundsTotal.Inc()
	globalManager.roundDuration.Observe(durationMs)
}

// RecordRoundFailure counts a round rejected with errorType.
func RecordRoundFailure(errorType string) {
	globalManager.roundFailures.WithLabelValues(errorType).Inc()
}

// RecordPairs adds n pairs of the given kind (golden, audit, regular).
func RecordPairs(kind string, n int) {
	globalManager.pairsTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordVote counts one vote.
func RecordVote(choice string) {
	globalManager.votesTotal.WithLabelValues(choice).Inc()
}

// RecordTie counts a pair without a majority.
func RecordTie() {
	globalManager.tiesTotal.Inc()
}

// RecordSlash counts a slash and the stake it moved.
func RecordSlash(amount float64) {
	globalManager.slashesTotal.Inc()
	globalManager.slashedStake.Add(amount)
}

// RecordSuspension counts a suspension.
func RecordSuspension() {
	globalManager.suspensionsTotal.Inc()
}

// RecordReinstatement counts a lifted suspension.
func RecordReinstatement() {
	globalManager.reinstatements.Inc()
}

// RecordFraudFlag counts an anomaly flag.
func RecordFraudFlag() {
	globalManager.fraudFlags.Inc()
}

// RecordRewardPaid adds a paid reward.
func RecordRewardPaid(amount float64) {
	globalManager.rewardsPaid.Add(amount)
}

// RecordRewardStarvation counts a reward zeroed by an empty pool.
func RecordRewardStarvation() {
	globalManager.rewardStarvation.Inc()
}

// RecordMinorityLoss adds stake lost by a minority voter.
func RecordMinorityLoss(amount float64) {
	globalManager.minorityLosses.Add(amount)
}

// UpdatePoolBalance sets the pool balance gauge.
func UpdatePoolBalance(balance float64) {
	globalManager.poolBalance.Set(balance)
}

// UpdateCurators sets the active and suspended curator gauges.
func UpdateCurators(active, suspended int) {
	globalManager.curators.WithLabelValues("active").Set(float64(active))
	globalManager.curators.WithLabelValues("suspended").Set(float64(suspended))
}

// UpdatePosts sets the registered post gauge.
func UpdatePosts(count int) {
	globalManager.posts.Set(float64(count))
}

// RecordLeaderboardUpdate counts a leaderboard refresh.
func RecordLeaderboardUpdate() {
	globalManager.leaderboardUpdates.Inc()
}

// RecordRequestDuplicate counts a round request dropped by dedupe.
func RecordRequestDuplicate() {
	globalManager.requestsDuplicate.Inc()
}

// RecordRequestLimited counts a round request rejected by the rate limiter.
func RecordRequestLimited() {
	globalManager.requestsLimited.Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an enqueued request.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeued request and the time it waited.
func RecordQueueDequeue(waitMs float64) {
	globalManager.queueDequeued.Inc()
	globalManager.queueWait.Observe(waitMs)
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrs.Inc()
}

// RecordWorkerProcessingLatency records how long the worker spent on a request.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed request.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error by endpoint.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the registry the global metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
