package core

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	ErrInvalidPrice = errors.New("invalid price")
	ErrEmptyHistory = errors.New("empty price history")
)

// PriceRelatives turns a price table into price relatives. Row 0 has no prior price so it is all ones.
func PriceRelatives(prices [][]float64) ([][]float64, error) {
	if len(prices) == 0 || len(prices[0]) == 0 {
		return nil, ErrEmptyHistory
	}

	nAssets := len(prices[0])
	for t, row := range prices {
		if err := validatePriceRow(row, nAssets); err != nil {
			return nil, fmt.Errorf("row %d: %w", t, err)
		}
	}

	res := make([][]float64, len(prices))
	res[0] = ones(nAssets)
	for t := 1; t < len(prices); t++ {
		res[t] = relative(prices[t-1], prices[t])
	}

	return res, nil
}

func validatePriceRow(row []float64, nAssets int) error {
	if len(row) != nAssets {
		return fmt.Errorf("%w: expected %d prices, got %d", ErrDimensionMismatch, nAssets, len(row))
	}
	for i, p := range row {
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: column %d is %v", ErrInvalidPrice, i, p)
		}
	}
	return nil
}

// relative assumes both rows were validated
func relative(previous, current []float64) []float64 {
	x := slices.Clone(current)
	for i := range x {
		x[i] /= previous[i]
	}
	return x
}

func ones(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = 1
	}
	return res
}
