package extensions

import (
	"testing"
	"time"
)

func TestDotProduct(t *testing.T) {
	res, err := DotProduct([]float64{0.5, 0.5}, []float64{1.1, 0.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AssertInDelta(t, "dot", 1.0, res, 1e-12)

	if _, err := DotProduct([]float64{1}, []float64{1, 2}); err == nil {
		t.Errorf("expected error for mismatched lengths")
	}
}

func TestFilterSingle(t *testing.T) {
	keys := []string{"1. open", "2. high", "5. adjusted close"}
	k, err := FilterSingle(keys, func(s string) bool { return s == "2. high" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AssertAreEqual(t, "key", "2. high", k)

	if _, err := FilterSingle(keys, func(s string) bool { return len(s) > 0 }); err == nil {
		t.Errorf("expected error when more than one element matches")
	}
}

func TestUniformAndSum(t *testing.T) {
	u := Uniform(4)
	AssertAreEqual(t, "length", 4, len(u))
	AssertInDelta(t, "sum", 1, Sum(u), 1e-12)
	AssertOnSimplex(t, "uniform", u)
}

func TestMinWorksOnDurations(t *testing.T) {
	AssertAreEqual(t, "min", time.Second, Min(time.Minute, time.Second))
}

func TestFmtShort(t *testing.T) {
	AssertAreEqual(t, "date", "2024-03-01", FmtShort(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)))
}
