package models

import (
	"testing"

	"github.com/guregu/null/v6"
)

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("FTL")
	if err != nil || s != FollowTheLeader {
		t.Fatalf("expected ftl, got %v (%v)", s, err)
	}

	s, err = ParseStrategy("")
	if err != nil || s != FollowTheLoser {
		t.Fatalf("expected pamr default, got %v (%v)", s, err)
	}

	if _, err := ParseStrategy("martingale"); err == nil {
		t.Errorf("expected error for unknown strategy")
	}
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("Weekly")
	if err != nil || g != Weekly {
		t.Fatalf("expected weekly, got %v (%v)", g, err)
	}
	if _, err := ParseGranularity("hourly"); err == nil {
		t.Errorf("expected error for unknown granularity")
	}
}

func TestClosePricePrefersAdjusted(t *testing.T) {
	d := TimeSeriesData{Close: null.FloatFrom(101), AdjustedClose: null.FloatFrom(100)}
	p, ok := d.ClosePrice()
	if !ok || p != 100 {
		t.Fatalf("expected adjusted close 100, got %v (%v)", p, ok)
	}

	d = TimeSeriesData{Close: null.FloatFrom(101)}
	p, ok = d.ClosePrice()
	if !ok || p != 101 {
		t.Fatalf("expected close 101, got %v (%v)", p, ok)
	}

	d = TimeSeriesData{}
	if _, ok := d.ClosePrice(); ok {
		t.Errorf("expected no price for empty bar")
	}
}

func TestQuoteFallsBackToPreviousClose(t *testing.T) {
	q := Quote{Symbol: "AAPL", PreviousClose: null.FloatFrom(190.5)}
	p, ok := q.LastKnownPrice()
	if !ok || p != 190.5 {
		t.Fatalf("expected previous close, got %v (%v)", p, ok)
	}

	q.Price = null.FloatFrom(191)
	p, _ = q.LastKnownPrice()
	if p != 191 {
		t.Errorf("expected live price 191, got %v", p)
	}
}

func TestPeriodsPerYear(t *testing.T) {
	for g, expected := range map[Granularity]int{Daily: 252, Weekly: 52, Monthly: 12} {
		if got := g.PeriodsPerYear(); got != expected {
			t.Errorf("%v: expected %d periods per year, got %d", g, expected, got)
		}
	}
}
