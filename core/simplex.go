package core

import (
	"math"

	"gonum.org/v1/gonum/floats"

	ex "olps/extensions"
)

// SimplexTolerance is how far a weight vector may drift from summing to one and still count as valid
const SimplexTolerance = 1e-6

// ProjectSimplex maps v onto the probability simplex by clipping negatives to zero and
// renormalizing. This is not the exact euclidean projection, it only matches it when
// nothing gets clipped. An all non-positive input maps to the uniform vector.
func ProjectSimplex(v []float64) []float64 {
	res := make([]float64, len(v))
	for i, x := range v {
		res[i] = math.Max(x, 0)
	}

	total := floats.Sum(res)
	if total == 0 {
		return ex.Uniform(len(v))
	}

	floats.Scale(1/total, res)
	return res
}

// IsOnSimplex reports if every weight is non-negative and the weights sum to one within tol
func IsOnSimplex(b []float64, tol float64) bool {
	if len(b) == 0 {
		return false
	}
	for _, w := range b {
		if w < 0 || math.IsNaN(w) {
			return false
		}
	}
	return math.Abs(floats.Sum(b)-1) <= tol
}
