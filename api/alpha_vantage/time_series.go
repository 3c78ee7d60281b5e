package alpha_vantage

import (
	"strings"

	m "olps/models"
)

type TimeSeries uint8

// TimeSeries specifies a frequency to query for stock data.
const (
	TimeSeriesDaily TimeSeries = iota
	TimeSeriesDailyAdjusted
	TimeSeriesWeeklyAdjusted
	TimeSeriesMonthlyAdjusted
)

func (t TimeSeries) Function() string {
	switch t {
	case TimeSeriesDaily:
		return "TIME_SERIES_DAILY"
	case TimeSeriesDailyAdjusted:
		return "TIME_SERIES_DAILY_ADJUSTED"
	case TimeSeriesWeeklyAdjusted:
		return "TIME_SERIES_WEEKLY_ADJUSTED"
	case TimeSeriesMonthlyAdjusted:
		return "TIME_SERIES_MONTHLY_ADJUSTED"
	default:
		return ""
	}
}

// TimeSeriesKey is the top level json key the bars are returned under
func (t TimeSeries) TimeSeriesKey() string {
	switch t {
	case TimeSeriesDaily, TimeSeriesDailyAdjusted:
		return "Time Series (Daily)"
	case TimeSeriesWeeklyAdjusted:
		return "Weekly Adjusted Time Series"
	case TimeSeriesMonthlyAdjusted:
		return "Monthly Adjusted Time Series"
	default:
		return ""
	}
}

func (t TimeSeries) IsAdjusted() bool {
	return strings.HasSuffix(t.Function(), "_ADJUSTED")
}

// TimeSeriesForGranularity picks the endpoint for a bar size.
// daily adjusted is a premium endpoint, so daily uses the raw close
func TimeSeriesForGranularity(g m.Granularity) TimeSeries {
	switch g {
	case m.Weekly:
		return TimeSeriesWeeklyAdjusted
	case m.Monthly:
		return TimeSeriesMonthlyAdjusted
	default:
		return TimeSeriesDaily
	}
}
