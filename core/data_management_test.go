package core

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"

	ex "olps/extensions"
	m "olps/models"
)

func TestCacheKeySeparatesGranularity(t *testing.T) {
	ex.AssertAreEqual(t, "daily", "AAPL/daily", cacheKey("AAPL", m.Daily))
	ex.AssertAreEqual(t, "weekly", "AAPL/weekly", cacheKey("AAPL", m.Weekly))
	ex.AssertAreEqual(t, "distinct", false, cacheKey("AAPL", m.Daily) == cacheKey("AAPL", m.Monthly))
}

func TestIsStale(t *testing.T) {
	now := time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)

	ex.AssertAreEqual(t, "never synced", true, isStale(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), now, DefaultRefreshAfter))
	ex.AssertAreEqual(t, "a week old", true, isStale(now.AddDate(0, 0, -7), now, DefaultRefreshAfter))
	ex.AssertAreEqual(t, "six days old", false, isStale(now.AddDate(0, 0, -6), now, DefaultRefreshAfter))
}

func TestNewerThan(t *testing.T) {
	day := func(d int) *m.TimeSeriesData {
		return &m.TimeSeriesData{
			Timestamp: time.Date(2025, time.October, d, 0, 0, 0, 0, time.UTC),
			Close:     null.FloatFrom(float64(100 + d)),
		}
	}
	bars := []*m.TimeSeriesData{day(29), day(30), day(31)}

	ex.AssertAreEqual(t, "no cutoff", 3, len(newerThan(bars, nil)))

	mostRecent := time.Date(2025, time.October, 30, 0, 0, 0, 0, time.UTC)
	res := newerThan(bars, &mostRecent)
	ex.AssertAreEqual(t, "after cutoff", 1, len(res))
	ex.AssertAreEqual(t, "day", 31, res[0].Timestamp.Day())
}
