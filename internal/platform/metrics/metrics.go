package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "splitledger_"

	ResultSuccess  = "success"
	ResultError    = "error"
	ResultConflict = "version_conflict"
	ResultSettled  = "already_settled"
	ResultRetry    = "retry"
	ResultDropped  = "dead_letter"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	registerOnce sync.Once

	expensesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "expenses_created_total",
		Help: "Total expenses recorded",
	})
	settlements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "settlements_total",
		Help: "Settlement attempts by result",
	}, []string{"result"})
	balanceComputations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "balance_computations_total",
		Help: "Balance requests by cache outcome",
	}, []string{"cache"})
	balanceLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    metricPrefix + "balance_computation_seconds",
		Help:    "Time spent computing uncached balances",
		Buckets: prometheus.DefBuckets,
	})
	reconciliations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "reconciliations_total",
		Help: "Member removal reconciliations by result",
	}, []string{"result"})
	eventDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "event_deliveries_total",
		Help: "Event handler deliveries by event and result",
	}, []string{"event", "result"})
	httpRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricPrefix + "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status class",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Register adds the collectors to reg. Calls after the first are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(expensesCreated, settlements, balanceComputations, balanceLatency, reconciliations, eventDeliveries, httpRequests)
	})
}

func ObserveExpenseCreated() { expensesCreated.Inc() }

func ObserveSettlement(result string) { settlements.WithLabelValues(result).Inc() }

func ObserveBalanceRequest(cache string) { balanceComputations.WithLabelValues(cache).Inc() }

func ObserveBalanceLatency(seconds float64) { balanceLatency.Observe(seconds) }

func ObserveReconciliation(result string) { reconciliations.WithLabelValues(result).Inc() }

func ObserveEventDelivery(event, result string) { eventDeliveries.WithLabelValues(event, result).Inc() }

// ObserveHTTPRequest records one request. route is the matched pattern, not the raw path.
func ObserveHTTPRequest(method, route string, status int, seconds float64) {
	httpRequests.WithLabelValues(method, route, statusClass(status)).Observe(seconds)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
