package core

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	ex "olps/extensions"
	m "olps/models"
)

const DefaultEpsilon = 0.5

var ErrDimensionMismatch = errors.New("dimension mismatch")

// PAMROptimizer is passive aggressive mean reversion.
// It keeps its own running weights for Update, Decide works off the weights it is handed.
type PAMROptimizer struct {
	epsilon float64
	b       []float64
}

func NewPAMROptimizer(nAssets int, epsilon float64) (*PAMROptimizer, error) {
	if nAssets <= 0 {
		return nil, fmt.Errorf("pamr needs at least one asset, got %d", nAssets)
	}
	if epsilon < 0 || math.IsNaN(epsilon) {
		return nil, fmt.Errorf("pamr epsilon must be non-negative, got %v", epsilon)
	}

	return &PAMROptimizer{
		epsilon: epsilon,
		b:       ex.Uniform(nAssets),
	}, nil
}

func (p *PAMROptimizer) Name() string {
	return m.FollowTheLoser.String()
}

func (p *PAMROptimizer) Epsilon() float64 {
	return p.epsilon
}

// Weights returns a copy of the running weights
func (p *PAMROptimizer) Weights() []float64 {
	return slices.Clone(p.b)
}

// Update moves the running weights given the latest price relative and returns them.
// It is the standalone form of the step, the driver calls Decide with the tracker's weights instead.
func (p *PAMROptimizer) Update(x []float64) ([]float64, error) {
	next, err := p.step(p.b, x)
	if err != nil {
		return nil, err
	}
	p.b = next
	return slices.Clone(next), nil
}

// Decide only looks at the most recent price relative
func (p *PAMROptimizer) Decide(history [][]float64, previous []float64) ([]float64, error) {
	if len(history) == 0 {
		return slices.Clone(previous), nil
	}
	return p.step(previous, history[len(history)-1])
}

// Loss is max(0, b.x - epsilon)
func (p *PAMROptimizer) Loss(b, x []float64) float64 {
	return math.Max(0, floats.Dot(b, x)-p.epsilon)
}

func (p *PAMROptimizer) step(b, x []float64) ([]float64, error) {
	if len(b) != len(x) {
		return nil, fmt.Errorf("%w: weights have %d assets, price relative has %d", ErrDimensionMismatch, len(b), len(x))
	}

	loss := p.Loss(b, x)
	if loss == 0 {
		// passive, keep the current portfolio
		return slices.Clone(b), nil
	}

	// aggressive, step against the assets that went up
	deviation := meanDeviation(x)

	tau := 0.0
	if d := floats.Dot(deviation, deviation); d != 0 {
		tau = loss / d
	}

	next := slices.Clone(b)
	floats.AddScaled(next, -tau, deviation)

	return ProjectSimplex(next), nil
}

// meanDeviation returns x - mean(x). Centering on x[0] first keeps a vector of equal
// relatives at exactly zero deviation, where the plain mean can be off by an ulp.
func meanDeviation(x []float64) []float64 {
	res := slices.Clone(x)
	floats.AddConst(-x[0], res)
	floats.AddConst(-stat.Mean(res, nil), res)
	return res
}
