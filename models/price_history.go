package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var ErrMissingSymbol = errors.New("symbol missing from price history")

// PriceHistory is a price level table, Prices[t][i] is the price of Universe[i] at Times[t]
type PriceHistory struct {
	Universe []string
	Times    []time.Time
	Prices   [][]float64
}

func (ph *PriceHistory) Len() int {
	return len(ph.Prices)
}

// AlignCloses inner joins per symbol bars on timestamp, oldest first, positionally aligned to universe
func AlignCloses(universe []string, series map[string][]*TimeSeriesData) (*PriceHistory, error) {
	if len(universe) == 0 {
		return nil, fmt.Errorf("cannot align an empty universe")
	}

	lookups := make([]map[int64]float64, len(universe))
	counts := make(map[int64]int)
	stamps := make(map[int64]time.Time)
	for i, symbol := range universe {
		bars, ok := series[symbol]
		if !ok || len(bars) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingSymbol, symbol)
		}

		lookups[i] = make(map[int64]float64, len(bars))
		for _, bar := range bars {
			price, ok := bar.ClosePrice()
			if !ok {
				continue
			}
			key := bar.Timestamp.Unix()
			if _, seen := lookups[i][key]; seen {
				continue
			}
			lookups[i][key] = price
			counts[key]++
			stamps[key] = bar.Timestamp
		}
	}

	common := make([]int64, 0, len(counts))
	for key, count := range counts {
		if count == len(universe) {
			common = append(common, key)
		}
	}

	if len(common) == 0 {
		return nil, fmt.Errorf("no common timestamps across %v", universe)
	}

	slices.Sort(common)

	res := &PriceHistory{
		Universe: slices.Clone(universe),
		Times:    make([]time.Time, len(common)),
		Prices:   make([][]float64, len(common)),
	}

	for t, key := range common {
		res.Times[t] = stamps[key]
		row := make([]float64, len(universe))
		for i := range universe {
			row[i] = lookups[i][key]
		}
		res.Prices[t] = row
	}

	return res, nil
}
