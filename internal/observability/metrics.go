// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Market metrics
	MarketFetchesTotal *prometheus.CounterVec
	PriceUSD           prometheus.Gauge
	MarketCapUSD       prometheus.Gauge
	SupplyBurnedPct    prometheus.Gauge
	LastGoalBucket     prometheus.Gauge

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	StepOutcomesTotal *prometheus.CounterVec

	// Solana metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "buyback"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		MarketFetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "fetches_total",
			Help:      "Total number of market data fetches by source and status",
		}, []string{"source", "status"}),
		PriceUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "price_usd",
			Help:      "Last accepted token price in USD",
		}),
		MarketCapUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "market_cap_usd",
			Help:      "Last accepted market cap in USD",
		}),
		SupplyBurnedPct: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "supply_burned_pct",
			Help:      "Percentage of initial supply burned",
		}),
		LastGoalBucket: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "goal",
			Name:      "last_bucket",
			Help:      "Last market cap goal bucket that triggered the pipeline",
		}),

		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120},
		}),
		StepOutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "step_outcomes_total",
			Help:      "Total number of pipeline step outcomes by step and status",
		}, []string{"step", "status"}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful market refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordMarketFetch records a market data fetch attempt against source.
func RecordMarketFetch(source string, err error) {
	DefaultMetrics.MarketFetchesTotal.WithLabelValues(source, status(err)).Inc()
}

// UpdateMarket updates the market gauges after an accepted refresh.
func UpdateMarket(priceUSD, marketCapUSD, burnedPct float64) {
	DefaultMetrics.PriceUSD.Set(priceUSD)
	DefaultMetrics.MarketCapUSD.Set(marketCapUSD)
	DefaultMetrics.SupplyBurnedPct.Set(burnedPct)
	DefaultMetrics.LastSuccessfulRefresh.SetToCurrentTime()
}

// UpdateGoalBucket sets the last goal bucket gauge.
func UpdateGoalBucket(bucket int64) {
	DefaultMetrics.LastGoalBucket.Set(float64(bucket))
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PipelineDuration.Observe(durationSeconds)
}

// RecordStep records the outcome of a single pipeline step.
func RecordStep(step, status string) {
	DefaultMetrics.StepOutcomesTotal.WithLabelValues(step, status).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// ObserveRPC records latency and, on failure, the error count of an RPC call.
func ObserveRPC(method string, err error, started time.Time) {
	RecordRPCLatency(method, time.Since(started).Seconds())
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}
