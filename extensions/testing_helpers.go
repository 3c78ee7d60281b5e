package extensions

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func AssertAreEqual[T comparable](t *testing.T, name string, expected T, actual T) {
	t.Helper()
	if expected != actual {
		t.Fatalf("value mismatch for %s, expected %v, got %v", name, expected, actual)
	}
}

// AssertInDelta fails when expected and actual are further than delta apart
func AssertInDelta(t *testing.T, name string, expected, actual, delta float64) {
	t.Helper()
	if math.Abs(expected-actual) > delta {
		t.Fatalf("value mismatch for %s, expected %v (+/- %v), got %v", name, expected, delta, actual)
	}
}

// AssertOnSimplex fails unless every weight is non-negative and the weights sum to one
func AssertOnSimplex(t *testing.T, name string, weights []float64) {
	t.Helper()
	for i, w := range weights {
		if w < 0 {
			t.Fatalf("%s: weight %d is negative (%v)", name, i, w)
		}
	}
	if sum := Sum(weights); math.Abs(sum-1) > 1e-6 {
		t.Fatalf("%s: weights sum to %v, expected 1", name, sum)
	}
}

func AssertNoError(t *testing.T, name string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error for %s: %v", name, err)
	}
}

func AssertError(t *testing.T, name string, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error for %s, got nil", name)
	}
}

// AssertErrorIs fails unless target is in err's chain
func AssertErrorIs(t *testing.T, name string, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error mismatch for %s, expected %v, got %v", name, target, err)
	}
}

// AssertSliceEqual compares element by element
func AssertSliceEqual[T comparable](t *testing.T, name string, expected, actual []T) {
	t.Helper()
	if !slices.Equal(expected, actual) {
		t.Fatalf("value mismatch for %s, expected %v, got %v", name, expected, actual)
	}
}

func AssertSliceInDelta(t *testing.T, name string, expected, actual []float64, delta float64) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("length mismatch for %s, expected %d, got %d", name, len(expected), len(actual))
	}
	for i := range expected {
		if math.Abs(expected[i]-actual[i]) > delta {
			t.Fatalf("value mismatch for %s at %d, expected %v (+/- %v), got %v", name, i, expected[i], delta, actual[i])
		}
	}
}
