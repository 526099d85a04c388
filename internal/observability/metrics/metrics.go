package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "equipment_registry_"

	OutcomeCreated = "created"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

var (
	registerOnce sync.Once

	batchRequests *prometheus.CounterVec
	batchItems    *prometheus.CounterVec
	batchLatency  *prometheus.HistogramVec

	typeCacheLookups *prometheus.CounterVec
	transactions     *prometheus.CounterVec
)

// Init регистрирует метрики в реестре по умолчанию. До вызова Init все Observe* ничего не делают.
func Init() {
	registerOnce.Do(func() {
		batchRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "batch_create_requests_total",
				Help: "Batch create requests by outcome",
			},
			[]string{"outcome"},
		)
		batchItems = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "batch_create_items_total",
				Help: "Batch create items by result code",
			},
			[]string{"code"},
		)
		batchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "batch_create_latency_seconds",
				Help:    "Batch create latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		)
		typeCacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "equipment_type_cache_lookups_total",
				Help: "Equipment type cache lookups by result",
			},
			[]string{"result"},
		)

		transactions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "db_transactions_total",
				Help: "Database transactions by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(batchRequests, batchItems, batchLatency, typeCacheLookups, transactions)
	})
}

// ObserveBatch фиксирует итог пакетного создания.
func ObserveBatch(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	if batchRequests != nil {
		batchRequests.WithLabelValues(outcome).Inc()
	}
	if batchLatency != nil {
		batchLatency.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

func IncBatchItem(code string) {
	if batchItems != nil {
		batchItems.WithLabelValues(code).Inc()
	}
}

// IncTypeCacheLookup: result - "hit", "miss" или "error".
func IncTypeCacheLookup(result string) {
	if typeCacheLookups != nil {
		typeCacheLookups.WithLabelValues(result).Inc()
	}
}

// BatchOutcome сводит число успехов и ошибок к одному из Outcome*.
func BatchOutcome(created, failed int) string {
	switch {
	case failed == 0:
		return OutcomeCreated
	case created == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// IncTransaction: result - "commit" или "rollback".
func IncTransaction(result string) {
	if transactions != nil {
		transactions.WithLabelValues(result).Inc()
	}
}
