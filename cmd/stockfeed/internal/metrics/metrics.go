// Package metrics holds the Prometheus collectors shared by the feed components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stockfeed"

var (
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulator",
		Name:      "ticks_total",
		Help:      "Completed simulator ticks",
	})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "simulator",
		Name:      "tick_duration_seconds",
		Help:      "Time spent mutating and publishing every record in one tick",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	PriceUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulator",
		Name:      "price_updates_total",
		Help:      "Price mutations by outcome",
	}, []string{"status"})

	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulator",
		Name:      "sink_errors_total",
		Help:      "Failed hand-offs to update sinks",
	}, []string{"sink"})

	Deliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hub",
		Name:      "deliveries_total",
		Help:      "Price update events queued to subscribers",
	})

	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hub",
		Name:      "delivery_failures_total",
		Help:      "Subscribers dropped after a failed send",
	})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "connected_clients",
		Help:      "Open websocket connections",
	})

	Stocks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "stocks",
		Help:      "Listed stocks",
	})
)
