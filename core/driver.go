package core

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	m "olps/models"
)

// Driver runs the optimizer one epoch at a time and feeds the tracker.
// It owns the price and price relative histories, optimizers only get read only slices of them.
type Driver struct {
	mu             sync.RWMutex
	universe       []string
	optimizer      Optimizer
	tracker        *Tracker
	times          []time.Time
	prices         [][]float64
	relatives      [][]float64
	target         []float64
	periodsPerYear int
}

func NewDriver(history *m.PriceHistory, optimizer Optimizer, tracker *Tracker) (*Driver, error) {
	if history == nil || history.Len() == 0 {
		return nil, ErrEmptyHistory
	}
	if !slices.Equal(history.Universe, tracker.Universe()) {
		return nil, fmt.Errorf("price history universe %v does not match tracker universe %v", history.Universe, tracker.Universe())
	}
	if tracker.Epochs() != 0 {
		return nil, fmt.Errorf("tracker already has %d epochs recorded", tracker.Epochs())
	}

	relatives, err := PriceRelatives(history.Prices)
	if err != nil {
		return nil, fmt.Errorf("error building price relatives: %w", err)
	}

	prices := make([][]float64, len(history.Prices))
	for i, row := range history.Prices {
		prices[i] = slices.Clone(row)
	}

	return &Driver{
		universe:       slices.Clone(history.Universe),
		optimizer:      optimizer,
		tracker:        tracker,
		times:          slices.Clone(history.Times),
		prices:         prices,
		relatives:      relatives,
		periodsPerYear: m.Daily.PeriodsPerYear(),
	}, nil
}

// WithGranularity sets the epoch length used to annualize returns
func (d *Driver) WithGranularity(g m.Granularity) *Driver {
	d.periodsPerYear = g.PeriodsPerYear()
	return d
}

func (d *Driver) Universe() []string {
	return slices.Clone(d.universe)
}

func (d *Driver) Optimizer() Optimizer {
	return d.optimizer
}

func (d *Driver) Tracker() *Tracker {
	return d.tracker
}

// Pending is the number of loaded epochs that have not been run yet
func (d *Driver) Pending() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pending()
}

func (d *Driver) pending() int {
	return len(d.relatives) - 1 - d.tracker.Epochs()
}

// Backfill runs every loaded epoch that has not been run yet, in order
func (d *Driver) Backfill(ctx context.Context) error {
	start := time.Now()
	n := d.Pending()
	log.Printf("Backfilling %v epochs with %v", n, d.optimizer.Name())

	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.Step(); err != nil {
			return err
		}
	}

	log.Printf("Backfill complete, wealth %.6f after %v epochs (time: %v)", d.tracker.LatestWealth(), d.tracker.Epochs(), time.Since(start))
	return nil
}

// Step runs the next loaded epoch and reports false when there is none left
func (d *Driver) Step() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending() <= 0 {
		return false, nil
	}

	t := d.tracker.Epochs() + 1
	b, err := d.decide(d.relatives[:t], d.tracker.LatestWeights())
	if err != nil {
		return false, fmt.Errorf("error deciding epoch %d: %w", t, err)
	}

	if _, err := d.tracker.Record(b, d.relatives[t]); err != nil {
		return false, fmt.Errorf("error recording epoch %d: %w", t, err)
	}

	return true, nil
}

// decide only ever sees relatives from before the epoch being decided
func (d *Driver) decide(history [][]float64, previous []float64) ([]float64, error) {
	b, err := d.optimizer.Decide(history, previous)
	if err != nil {
		return nil, err
	}
	if !IsOnSimplex(b, SimplexTolerance) {
		return nil, fmt.Errorf("%s produced weights off the simplex: %v", d.optimizer.Name(), b)
	}
	return b, nil
}

// Target is the allocation held over the coming epoch, decided from every relative seen so far.
// The next live tick realizes it against the relative it observes.
func (d *Driver) Target() ([]float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.held()
}

// callers hold d.mu
func (d *Driver) held() ([]float64, error) {
	if d.target != nil {
		return slices.Clone(d.target), nil
	}
	if n := d.pending(); n > 0 {
		return nil, fmt.Errorf("%d epochs still need to be backfilled", n)
	}
	return d.decide(d.relatives, d.tracker.LatestWeights())
}

// Times returns the time of every epoch that has a price
func (d *Driver) Times() []time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.times)
}

// Relatives returns a copy of the price relative history
func (d *Driver) Relatives() [][]float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	res := make([][]float64, len(d.relatives))
	for i, x := range d.relatives {
		res[i] = slices.Clone(x)
	}
	return res
}

func (d *Driver) Snapshot() m.PortfolioSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tracker.Snapshot(d.times[:d.tracker.Epochs()+1])
}

func (d *Driver) Summary() m.PortfolioSummary {
	return d.tracker.Summary(d.optimizer.Name(), d.periodsPerYear)
}
