package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type TimeSeriesResult struct {
	Metadata   *TimeSeriesMetadata
	TimeSeries []*TimeSeriesData
}

type TimeSeriesMetadata struct {
	Id            int32       `db:"id"`
	Symbol        string      `db:"symbol"`
	LastRefreshed time.Time   `db:"last_refreshed"`
	Information   null.String `db:"-"`
	TimeZone      string      `db:"-"`
}

// TimeSeriesData is a single bar, fields are nullable as not every endpoint returns every field
type TimeSeriesData struct {
	SourceId       int32      `db:"source_id"`
	Timestamp      time.Time  `db:"timestamp"`
	Open           null.Float `db:"open"`
	High           null.Float `db:"high"`
	Low            null.Float `db:"low"`
	Close          null.Float `db:"close"`
	Volume         null.Float `db:"volume"`
	AdjustedClose  null.Float `db:"adjusted_close"`
	DividendAmount null.Float `db:"dividend_amount"`
}

// ClosePrice prefers the adjusted close and falls back to the raw close
func (d *TimeSeriesData) ClosePrice() (float64, bool) {
	if d.AdjustedClose.Valid && d.AdjustedClose.Float64 > 0 {
		return d.AdjustedClose.Float64, true
	}
	if d.Close.Valid && d.Close.Float64 > 0 {
		return d.Close.Float64, true
	}
	return 0, false
}

// Quote is the latest known price for a symbol
type Quote struct {
	Symbol           string
	Price            null.Float
	PreviousClose    null.Float
	LatestTradingDay time.Time
}

// LastKnownPrice returns the live price, or the previous close when no live price exists
func (q *Quote) LastKnownPrice() (float64, bool) {
	if q.Price.Valid && q.Price.Float64 > 0 {
		return q.Price.Float64, true
	}
	if q.PreviousClose.Valid && q.PreviousClose.Float64 > 0 {
		return q.PreviousClose.Float64, true
	}
	return 0, false
}
