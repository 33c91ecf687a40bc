package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор Prometheus-метрик сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration   *prometheus.HistogramVec
	DBQueryErrors     *prometheus.CounterVec
	DBOpenConnections *prometheus.GaugeVec
	DBInUse           *prometheus.GaugeVec
	DBIdle            *prometheus.GaugeVec
	DBWaitCount       *prometheus.GaugeVec

	LedgerOperations *prometheus.CounterVec
	FeedSubscribers  prometheus.Gauge
	CacheFallbacks   *prometheus.CounterVec
	CacheDropped     prometheus.Counter
}

// New создает и регистрирует метрики в переданном registerer
// В main передается prometheus.DefaultRegisterer, в тестах - prometheus.NewRegistry()
func New(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database queries",
			ConstLabels: constLabels,
		}, []string{"operation"}),

		DBOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBIdle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),

		LedgerOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ledger_operations_total",
			Help:        "Booking ledger operations by outcome",
			ConstLabels: constLabels,
		}, []string{"operation", "result"}),

		FeedSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "spot_feed_subscribers",
			Help:        "Active live spot-availability subscriptions",
			ConstLabels: constLabels,
		}),

		CacheFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "local_cache_fallbacks_total",
			Help:        "Reads served from the local cache after a remote store failure",
			ConstLabels: constLabels,
		}, []string{"entity"}),

		CacheDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "local_cache_dropped_tasks_total",
			Help:        "Cache tasks dropped because the worker queue was full",
			ConstLabels: constLabels,
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBOpenConnections,
		m.DBInUse,
		m.DBIdle,
		m.DBWaitCount,
		m.LedgerOperations,
		m.FeedSubscribers,
		m.CacheFallbacks,
		m.CacheDropped,
	)

	return m
}

// Методы ниже безопасны для nil-получателя: при выключенных метриках
// компоненты получают nil и ничего не записывают

// ObserveLedger учитывает результат операции леджера
func (m *Metrics) ObserveLedger(operation, result string) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, result).Inc()
}

// FeedSubscribed изменяет число активных подписок на живую ленту
func (m *Metrics) FeedSubscribed(delta float64) {
	if m == nil {
		return
	}
	m.FeedSubscribers.Add(delta)
}

// CacheFallback учитывает чтение из локального кэша
func (m *Metrics) CacheFallback(entity string) {
	if m == nil {
		return
	}
	m.CacheFallbacks.WithLabelValues(entity).Inc()
}

// CacheTaskDropped учитывает отброшенную задачу пула кэша
func (m *Metrics) CacheTaskDropped() {
	if m == nil {
		return
	}
	m.CacheDropped.Inc()
}
