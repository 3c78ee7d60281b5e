package core

import (
	"testing"
	"time"

	ex "olps/extensions"
)

func newTestTracker(t *testing.T, universe []string, initialWealth float64) *Tracker {
	t.Helper()
	tr, err := NewTracker(universe, initialWealth)
	ex.AssertNoError(t, "new tracker", err)
	return tr
}

func TestTrackerStartsUniform(t *testing.T) {
	tr := newTestTracker(t, []string{"AAPL", "MSFT", "GOOGL", "META"}, 1.0)

	ex.AssertSliceEqual(t, "weights", []float64{0.25, 0.25, 0.25, 0.25}, tr.LatestWeights())
	ex.AssertSliceEqual(t, "wealth", []float64{1.0}, tr.Wealth())
	ex.AssertAreEqual(t, "epochs", 0, tr.Epochs())
}

func TestTrackerWealthCompounding(t *testing.T) {
	tr := newTestTracker(t, []string{"A", "B"}, 1.0)

	b := []float64{0.5, 0.5}
	for _, x := range [][]float64{{1.1, 0.9}, {1.0, 1.0}} {
		ex.AssertNoError(t, "record weights", tr.RecordWeights(b))
		_, err := tr.RecordWealth(b, x)
		ex.AssertNoError(t, "record wealth", err)
	}

	ex.AssertInDelta(t, "wealth", 1.0, tr.LatestWealth(), 1e-12)
	ex.AssertAreEqual(t, "weights length", 3, len(tr.Weights()))
	ex.AssertAreEqual(t, "wealth length", 3, len(tr.Wealth()))
}

func TestTrackerRecordReturnsNewWealth(t *testing.T) {
	tr := newTestTracker(t, []string{"A", "B"}, 100)

	s, err := tr.Record([]float64{1, 0}, []float64{1.05, 0.5})
	ex.AssertNoError(t, "first record", err)
	ex.AssertInDelta(t, "first wealth", 105, s, 1e-9)

	s, err = tr.Record([]float64{0, 1}, []float64{1.05, 0.5})
	ex.AssertNoError(t, "second record", err)
	ex.AssertInDelta(t, "second wealth", 52.5, s, 1e-9)
}

func TestTrackerRejectsInvalidWeights(t *testing.T) {
	tr := newTestTracker(t, []string{"A", "B"}, 1.0)

	ex.AssertError(t, "sum above one", tr.RecordWeights([]float64{0.7, 0.7}))
	ex.AssertError(t, "negative weight", tr.RecordWeights([]float64{1.2, -0.2}))
	ex.AssertErrorIs(t, "short weights", tr.RecordWeights([]float64{1}), ErrDimensionMismatch)

	_, err := tr.Record([]float64{0.5, 0.5}, []float64{1.0})
	ex.AssertErrorIs(t, "short relative", err, ErrDimensionMismatch)

	// nothing was written
	ex.AssertAreEqual(t, "weights length", 1, len(tr.Weights()))
	ex.AssertAreEqual(t, "wealth length", 1, len(tr.Wealth()))
}

func TestTrackerAccessorsAreCopies(t *testing.T) {
	tr := newTestTracker(t, []string{"A", "B"}, 1.0)

	w := tr.Weights()
	w[0][0] = 42
	tr.Wealth()[0] = 42
	tr.LatestWeights()[1] = 42

	ex.AssertSliceEqual(t, "weights", []float64{0.5, 0.5}, tr.LatestWeights())
	ex.AssertAreEqual(t, "wealth", 1.0, tr.LatestWealth())
}

func TestTrackerSnapshot(t *testing.T) {
	tr := newTestTracker(t, []string{"A", "B"}, 1.0)
	_, err := tr.Record([]float64{0.25, 0.75}, []float64{1.2, 1.0})
	ex.AssertNoError(t, "record", err)

	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	index := []time.Time{start, start.AddDate(0, 0, 1)}

	snap := tr.Snapshot(index)
	ex.AssertAreEqual(t, "weights length", 2, len(snap.Weights))
	ex.AssertAreEqual(t, "wealth length", 2, len(snap.Wealth))
	ex.AssertSliceEqual(t, "universe", []string{"A", "B"}, snap.Universe)
	ex.AssertAreEqual(t, "weight of B", 0.75, snap.Weights[1].Weights["B"])
	ex.AssertAreEqual(t, "time", index[1], snap.Wealth[1].Time)
	ex.AssertInDelta(t, "wealth", 1.05, snap.Wealth[1].Wealth, 1e-12)

	// a mismatched index is ignored
	snap = tr.Snapshot(index[:1])
	ex.AssertAreEqual(t, "zero time", true, snap.Wealth[1].Time.IsZero())
}

func TestTrackerSummary(t *testing.T) {
	tr := newTestTracker(t, []string{"A", "B"}, 2.0)
	for range 2 {
		_, err := tr.Record([]float64{1, 0}, []float64{1.1, 1.0})
		ex.AssertNoError(t, "record", err)
	}

	summary := tr.Summary("pamr", 2)
	ex.AssertAreEqual(t, "strategy", "pamr", summary.Strategy)
	ex.AssertAreEqual(t, "epochs", 2, summary.Epochs)
	ex.AssertInDelta(t, "final wealth", 2.42, summary.FinalWealth, 1e-9)
	ex.AssertInDelta(t, "total return", 0.21, summary.TotalReturn, 1e-9)
	// two epochs at two per year is exactly one year
	ex.AssertInDelta(t, "annualized return", 0.21, summary.AnnualizedReturn, 1e-9)
	ex.AssertAreEqual(t, "latest weight of A", 1.0, summary.LatestWeights["A"])
}

func TestNewTrackerValidation(t *testing.T) {
	_, err := NewTracker(nil, 1.0)
	ex.AssertError(t, "empty universe", err)
	_, err = NewTracker([]string{"A"}, 0)
	ex.AssertError(t, "zero wealth", err)
}
