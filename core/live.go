package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	m "olps/models"
)

const (
	DefaultLiveInterval = 24 * time.Hour
	DefaultLiveBackoff  = time.Minute
)

// PriceSource is where history and live prices come from
type PriceSource interface {
	FetchHistory(ctx context.Context, universe []string, duration time.Duration, granularity m.Granularity) (*m.PriceHistory, error)
	FetchCurrent(ctx context.Context, universe []string) (map[string]float64, error)
}

// Executor turns target weights into orders
type Executor interface {
	Execute(ctx context.Context, universe []string, weights []float64, prices map[string]float64) error
}

type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type LiveSettings struct {
	Interval   time.Duration
	Backoff    time.Duration
	MaxBackoff time.Duration
	Source     PriceSource
	Executor   Executor // optional
	Clock      Clock    // defaults to the wall clock
}

func (ls LiveSettings) withDefaults() LiveSettings {
	if ls.Interval <= 0 {
		ls.Interval = DefaultLiveInterval
	}
	if ls.Backoff <= 0 {
		ls.Backoff = DefaultLiveBackoff
	}
	if ls.MaxBackoff < ls.Backoff {
		ls.MaxBackoff = ls.Interval
	}
	if ls.MaxBackoff < ls.Backoff {
		ls.MaxBackoff = ls.Backoff
	}
	if ls.Clock == nil {
		ls.Clock = realClock{}
	}
	return ls
}

// RunLive polls for a new epoch every interval until ctx is cancelled.
// A failed tick commits nothing and is retried after a backoff that doubles up to MaxBackoff.
func (d *Driver) RunLive(ctx context.Context, settings LiveSettings) error {
	if settings.Source == nil {
		return fmt.Errorf("live mode needs a price source")
	}
	settings = settings.withDefaults()

	if err := d.Backfill(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("error finishing backfill before live mode: %w", err)
	}

	log.Printf("Starting live mode for %v with %v, interval %v", d.universe, d.optimizer.Name(), settings.Interval)
	backoff := settings.Backoff
	for {
		wait := settings.Interval
		if err := d.Tick(ctx, settings.Source, settings.Executor, settings.Clock.Now()); err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("Live epoch failed, retrying in %v: %v", backoff, err)
			wait = backoff
			backoff = min(backoff*2, settings.MaxBackoff)
		} else {
			backoff = settings.Backoff
		}

		if err := settings.Clock.Sleep(ctx, wait); err != nil {
			break
		}
	}

	log.Printf("Live mode stopped after %v epochs, wealth %.6f", d.tracker.Epochs(), d.tracker.LatestWealth())
	return nil
}

// Tick runs one live epoch against the latest prices. The allocation held since the last epoch is
// realized against the new relative, the relative joins the history and the optimizer decides the
// allocation for the coming epoch, which is what the executor trades into.
// Everything is computed before anything is committed, so an error leaves every history as it was.
func (d *Driver) Tick(ctx context.Context, source PriceSource, executor Executor, now time.Time) error {
	quotes, err := source.FetchCurrent(ctx, d.universe)
	if err != nil {
		return fmt.Errorf("error fetching current prices: %w", err)
	}

	row := make([]float64, len(d.universe))
	for i, symbol := range d.universe {
		price, ok := quotes[symbol]
		if !ok {
			return fmt.Errorf("%w: %s", m.ErrMissingSymbol, symbol)
		}
		row[i] = price
	}
	if err := validatePriceRow(row, len(d.universe)); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	held, err := d.held()
	if err != nil {
		return fmt.Errorf("error deciding held allocation: %w", err)
	}

	x := relative(d.prices[len(d.prices)-1], row)
	relatives := append(slices.Clip(d.relatives), x)

	next, err := d.decide(relatives, held)
	if err != nil {
		return fmt.Errorf("error deciding live epoch: %w", err)
	}

	if executor != nil {
		if err := executor.Execute(ctx, d.universe, slices.Clone(next), quotes); err != nil {
			return fmt.Errorf("error executing live epoch: %w", err)
		}
	}

	// held passed the simplex check in decide and x has one entry per symbol, so this cannot fail
	wealth, err := d.tracker.Record(held, x)
	if err != nil {
		return fmt.Errorf("error recording live epoch: %w", err)
	}

	d.prices = append(d.prices, row)
	d.relatives = relatives
	d.times = append(d.times, now)
	d.target = next

	log.Printf("Live epoch %v recorded, wealth %.6f, next allocation %v", d.tracker.Epochs(), wealth, next)
	return nil
}
