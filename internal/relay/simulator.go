package relay

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/rvinod/tickwatch/internal/config"
	"github.com/rvinod/tickwatch/internal/model"
)

// simulatedStart seeds the fallback feed with plausible prices for a
// spread of instruments across the tracked exchanges.
var simulatedStart = map[string]float64{
	"RELIANCE":         2987.45,
	"INFY":             1456.20,
	"NIFTY25APRFUT":    22450.75,
	"SENSEX25401FUT":   73825.50,
	"CRUDEOIL25APRFUT": 6834.00,
	"USDINR25APRFUT":   83.42,
}

// Simulator generates a random-walk price feed. Each tick moves every
// instrument by up to two percent in either direction.
type Simulator struct {
	interval time.Duration
	prices   map[string]float64
	logger   *slog.Logger
}

// NewSimulator creates a simulator with the default instrument set.
func NewSimulator(cfg config.SimulatorConfig, logger *slog.Logger) *Simulator {
	prices := make(map[string]float64, len(simulatedStart))
	for ticker, price := range simulatedStart {
		prices[ticker] = price
	}
	return &Simulator{
		interval: cfg.Interval,
		prices:   prices,
		logger:   logger.With("component", "simulator"),
	}
}

// Run emits snapshots on out until ctx is cancelled. The first snapshot
// is sent immediately so consumers have data before the first interval
// elapses.
func (s *Simulator) Run(ctx context.Context, out chan<- model.Snapshot) {
	s.logger.Info("simulated feed started",
		"instruments", len(s.prices),
		"interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case out <- s.next():
		case <-ctx.Done():
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Simulator) next() model.Snapshot {
	now := time.Now()
	snap := model.Snapshot{
		ReceivedAt: now,
		AsOf:       now,
		Prices:     make(map[string]model.Tick, len(s.prices)),
	}
	for ticker, price := range s.prices {
		price *= 1 + (rand.Float64()*0.04 - 0.02)
		s.prices[ticker] = price
		snap.Prices[ticker] = model.Tick{Price: price, AsOf: now}
	}
	return snap
}
