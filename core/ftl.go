package core

import (
	"fmt"
	"log"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	m "olps/models"
)

const (
	defaultFTLMaxIterations = 1000
	warmStartMix            = 1e-3
	looseGradientTolerance  = 1e-6
)

type FTLSettings struct {
	MaxIterations int
}

// FTLOptimizer is follow the leader, each epoch it picks the best constant rebalanced
// portfolio in hindsight over all relatives seen so far.
type FTLOptimizer struct {
	nAssets  int
	settings FTLSettings
}

func NewFTLOptimizer(nAssets int, settings FTLSettings) (*FTLOptimizer, error) {
	if nAssets <= 0 {
		return nil, fmt.Errorf("ftl needs at least one asset, got %d", nAssets)
	}
	if settings.MaxIterations <= 0 {
		settings.MaxIterations = defaultFTLMaxIterations
	}
	return &FTLOptimizer{nAssets: nAssets, settings: settings}, nil
}

func (f *FTLOptimizer) Name() string {
	return m.FollowTheLeader.String()
}

func (f *FTLOptimizer) Decide(history [][]float64, previous []float64) ([]float64, error) {
	if len(history) == 0 {
		return slices.Clone(previous), nil
	}
	return f.Optimize(history, previous)
}

// Objective is the negative log wealth of the constant rebalanced portfolio b over X.
// Anything off the simplex, or a non finite log, is +Inf.
func Objective(b []float64, X [][]float64) float64 {
	for _, w := range b {
		if w < 0 || math.IsNaN(w) {
			return math.Inf(1)
		}
	}
	if math.Abs(floats.Sum(b)-1) > SimplexTolerance {
		return math.Inf(1)
	}

	total := 0.0
	for _, x := range X {
		l := math.Log(floats.Dot(b, x))
		if math.IsInf(l, 0) || math.IsNaN(l) {
			return math.Inf(1)
		}
		total -= l
	}
	return total
}

// Optimize solves for the best constant rebalanced portfolio over X starting from bInit.
// If the solver does not converge bInit is returned as is.
func (f *FTLOptimizer) Optimize(X [][]float64, bInit []float64) ([]float64, error) {
	if len(bInit) != f.nAssets {
		return nil, fmt.Errorf("%w: expected %d initial weights, got %d", ErrDimensionMismatch, f.nAssets, len(bInit))
	}
	for i, x := range X {
		if len(x) != f.nAssets {
			return nil, fmt.Errorf("%w: price relative %d has %d assets, expected %d", ErrDimensionMismatch, i, len(x), f.nAssets)
		}
	}

	if f.nAssets == 1 {
		return []float64{1}, nil
	}
	if len(X) == 0 {
		return slices.Clone(bInit), nil
	}

	rel := toDense(X)
	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			return Objective(softmax(z), X)
		},
		Grad: func(grad, z []float64) {
			softmaxGradient(grad, softmax(z), rel)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-10,
		MajorIterations:   f.settings.MaxIterations,
		Converger:         &optimize.FunctionConverge{Absolute: 1e-9, Iterations: 20},
	}

	result, err := optimize.Minimize(problem, warmStart(bInit), settings, &optimize.BFGS{})
	if !accepted(result, err, rel) {
		status := optimize.NotTerminated
		if result != nil {
			status = result.Status
		}
		log.Printf("ftl solver did not converge (status %v, err %v), keeping previous weights", status, err)
		return slices.Clone(bInit), nil
	}

	b := softmax(result.X)
	floats.Scale(1/floats.Sum(b), b)
	return b, nil
}

func accepted(result *optimize.Result, err error, rel *mat.Dense) bool {
	if result == nil || len(result.X) == 0 || math.IsInf(result.F, 0) || math.IsNaN(result.F) {
		return false
	}

	if err == nil {
		switch result.Status {
		case optimize.Success,
			optimize.FunctionThreshold,
			optimize.FunctionConvergence,
			optimize.GradientThreshold,
			optimize.StepConvergence,
			optimize.MethodConverge:
			return true
		}
	}

	// the line search gives up when it can no longer improve, which near the optimum is fine
	if result.Status == optimize.Failure {
		grad := make([]float64, len(result.X))
		softmaxGradient(grad, softmax(result.X), rel)
		return floats.Norm(grad, math.Inf(1)) <= looseGradientTolerance
	}
	return false
}

// warmStart maps weights into the unconstrained space, mixing in a little of the uniform
// portfolio so zero weights stay finite
func warmStart(b []float64) []float64 {
	n := float64(len(b))
	z := make([]float64, len(b))
	for i, w := range b {
		z[i] = math.Log((1-warmStartMix)*math.Max(w, 0) + warmStartMix/n)
	}
	return z
}

func softmax(z []float64) []float64 {
	top := floats.Max(z)
	b := make([]float64, len(z))
	for i, v := range z {
		b[i] = math.Exp(v - top)
	}
	floats.Scale(1/floats.Sum(b), b)
	return b
}

// softmaxGradient writes the gradient with respect to z given b = softmax(z).
// In b space g = -X^T (1 / Xb), then dz_k = b_k (g_k - b.g).
func softmaxGradient(grad, b []float64, rel *mat.Dense) {
	rows, _ := rel.Dims()

	var wealth mat.VecDense
	wealth.MulVec(rel, mat.NewVecDense(len(b), b))

	inv := mat.NewVecDense(rows, nil)
	for j := range rows {
		inv.SetVec(j, -1/wealth.AtVec(j))
	}

	var g mat.VecDense
	g.MulVec(rel.T(), inv)

	bg := mat.Dot(mat.NewVecDense(len(b), b), &g)
	for k := range b {
		grad[k] = b[k] * (g.AtVec(k) - bg)
	}
}

func toDense(X [][]float64) *mat.Dense {
	d := mat.NewDense(len(X), len(X[0]), nil)
	for i, row := range X {
		d.SetRow(i, row)
	}
	return d
}
