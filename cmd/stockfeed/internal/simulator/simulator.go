package simulator

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/metrics"
)

type namedSink struct {
	name string
	sink Sink
}

// Simulator jitters every listed price once per interval and hands the
// resulting snapshots to its sinks.
type Simulator struct {
	logger    *zap.Logger
	source    PriceSource
	rand      Rand
	clock     Clock
	interval  time.Duration
	precision int32
	sinks     []namedSink
}

func NewSimulator(
	logger *zap.Logger,
	source PriceSource,
	interval time.Duration,
	precision int32,
	rnd Rand,
	clock Clock,
) *Simulator {
	return &Simulator{
		logger:    logger,
		source:    source,
		rand:      rnd,
		clock:     clock,
		interval:  interval,
		precision: precision,
	}
}

// AddSink registers a sink. Not safe to call once Run has started.
func (s *Simulator) AddSink(name string, sink Sink) {
	s.sinks = append(s.sinks, namedSink{name: name, sink: sink})
}

// Run ticks until ctx is cancelled. A tick that has started always completes.
func (s *Simulator) Run(ctx context.Context) {
	s.logger.Info("Simulator Started", zap.Duration("interval", s.interval), zap.Int("sinks", len(s.sinks)))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Simulator Stopped")
			return
		case <-s.clock.After(s.interval):
			s.Tick(context.WithoutCancel(ctx))
		}
	}
}

// Tick updates every record once. Failures are logged per record or per sink
// and never abort the tick.
func (s *Simulator) Tick(ctx context.Context) {
	start := s.clock.Now()

	for _, ticker := range s.source.Tickers() {
		stock, err := s.source.MutatePrice(ticker, s.delta())
		if err != nil {
			metrics.PriceUpdates.WithLabelValues("error").Inc()
			s.logger.Warn("Skipping record for this tick", zap.String("symbol", ticker), zap.Error(err))
			continue
		}
		metrics.PriceUpdates.WithLabelValues("ok").Inc()

		for _, ns := range s.sinks {
			if err := ns.sink.Publish(ctx, stock); err != nil {
				metrics.SinkErrors.WithLabelValues(ns.name).Inc()
				s.logger.Error("Sink publish failed", zap.String("sink", ns.name), zap.String("symbol", ticker), zap.Error(err))
			}
		}

		s.logger.Debug("Price updated", zap.String("symbol", ticker), zap.Float64("price", stock.CurrentPrice))
	}

	metrics.TicksTotal.Inc()
	metrics.TickDuration.Observe(s.clock.Now().Sub(start).Seconds())
}

// delta is uniform in [-1, 1), rounded to the configured precision.
func (s *Simulator) delta() float64 {
	raw := s.rand.Float64()*2 - 1
	return decimal.NewFromFloat(raw).Round(s.precision).InexactFloat64()
}
