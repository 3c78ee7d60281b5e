package core

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	ex "olps/extensions"
	m "olps/models"
)

// Tracker owns the weight and wealth histories, both are append only.
// Index t of either history is epoch t, epoch 0 is the uniform portfolio and the initial wealth.
type Tracker struct {
	mu       sync.RWMutex
	universe []string
	weights  [][]float64
	wealth   []float64
}

func NewTracker(universe []string, initialWealth float64) (*Tracker, error) {
	if len(universe) == 0 {
		return nil, fmt.Errorf("tracker needs a non empty universe")
	}
	if initialWealth <= 0 || math.IsNaN(initialWealth) || math.IsInf(initialWealth, 0) {
		return nil, fmt.Errorf("initial wealth must be positive, got %v", initialWealth)
	}

	return &Tracker{
		universe: slices.Clone(universe),
		weights:  [][]float64{ex.Uniform(len(universe))},
		wealth:   []float64{initialWealth},
	}, nil
}

func (tr *Tracker) Universe() []string {
	return slices.Clone(tr.universe)
}

// RecordWeights appends b to the weight history. It is the standalone form of the weights half of
// Record, which the driver uses so an epoch is never half written.
func (tr *Tracker) RecordWeights(b []float64) error {
	if err := tr.validateWeights(b); err != nil {
		return err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.appendWeights(b)
	return nil
}

// RecordWealth appends S_t = S_{t-1} * b.x and returns it. It is the standalone form of the wealth
// half of Record.
func (tr *Tracker) RecordWealth(b, x []float64) (float64, error) {
	growth, err := tr.growth(b, x)
	if err != nil {
		return 0, err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.appendWealth(growth), nil
}

// Record appends one epoch to both histories, either both or neither are written
func (tr *Tracker) Record(b, x []float64) (float64, error) {
	if err := tr.validateWeights(b); err != nil {
		return 0, err
	}
	growth, err := tr.growth(b, x)
	if err != nil {
		return 0, err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.appendWeights(b)
	return tr.appendWealth(growth), nil
}

func (tr *Tracker) appendWeights(b []float64) {
	tr.weights = append(tr.weights, slices.Clone(b))
}

func (tr *Tracker) appendWealth(growth float64) float64 {
	next := tr.wealth[len(tr.wealth)-1] * growth
	tr.wealth = append(tr.wealth, next)
	return next
}

func (tr *Tracker) validateWeights(b []float64) error {
	if len(b) != len(tr.universe) {
		return fmt.Errorf("%w: expected %d weights, got %d", ErrDimensionMismatch, len(tr.universe), len(b))
	}
	if !IsOnSimplex(b, SimplexTolerance) {
		return fmt.Errorf("weights %v are not on the simplex", b)
	}
	return nil
}

func (tr *Tracker) growth(b, x []float64) (float64, error) {
	if len(b) != len(tr.universe) {
		return 0, fmt.Errorf("%w: expected %d weights, got %d", ErrDimensionMismatch, len(tr.universe), len(b))
	}
	growth, err := ex.DotProduct(b, x)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
	}
	return growth, nil
}

func (tr *Tracker) LatestWeights() []float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return slices.Clone(tr.weights[len(tr.weights)-1])
}

func (tr *Tracker) LatestWealth() float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.wealth[len(tr.wealth)-1]
}

// Epochs is the number of recorded epochs, not counting epoch 0
func (tr *Tracker) Epochs() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.wealth) - 1
}

func (tr *Tracker) Weights() [][]float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	res := make([][]float64, len(tr.weights))
	for i, b := range tr.weights {
		res[i] = slices.Clone(b)
	}
	return res
}

func (tr *Tracker) Wealth() []float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return slices.Clone(tr.wealth)
}

// Snapshot pairs both histories with index when index has one time per epoch, otherwise times are left zero
func (tr *Tracker) Snapshot(index []time.Time) m.PortfolioSnapshot {
	weights := tr.Weights()
	wealth := tr.Wealth()

	timeAt := func(t int) time.Time {
		if len(index) != len(wealth) {
			return time.Time{}
		}
		return index[t]
	}

	res := m.PortfolioSnapshot{
		Universe: tr.Universe(),
		Weights:  make([]m.WeightsPoint, len(weights)),
		Wealth:   make([]m.WealthPoint, len(wealth)),
	}

	for t, b := range weights {
		res.Weights[t] = m.WeightsPoint{Epoch: t, Time: timeAt(t), Weights: tr.labelled(b)}
	}
	for t, s := range wealth {
		res.Wealth[t] = m.WealthPoint{Epoch: t, Time: timeAt(t), Wealth: s}
	}

	return res
}

func (tr *Tracker) Summary(strategy string, periodsPerYear int) m.PortfolioSummary {
	wealth := tr.Wealth()
	initial := wealth[0]
	final := wealth[len(wealth)-1]
	epochs := len(wealth) - 1

	annualized := 0.0
	if epochs > 0 {
		// geometric mean per period scaled to a year
		annualized = math.Exp(math.Log(final/initial)*float64(periodsPerYear)/float64(epochs)) - 1
	}

	return m.PortfolioSummary{
		Strategy:         strategy,
		Universe:         tr.Universe(),
		Epochs:           epochs,
		InitialWealth:    initial,
		FinalWealth:      final,
		TotalReturn:      (final - initial) / initial,
		AnnualizedReturn: annualized,
		LatestWeights:    tr.labelled(tr.LatestWeights()),
	}
}

func (tr *Tracker) labelled(b []float64) map[string]float64 {
	res := make(map[string]float64, len(b))
	for i, symbol := range tr.universe {
		res[symbol] = b[i]
	}
	return res
}
