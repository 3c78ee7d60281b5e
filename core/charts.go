package core

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vicanso/go-charts/v2"

	ex "olps/extensions"
	m "olps/models"
)

var ErrNotEnoughData = errors.New("not enough epochs to chart")

func RenderWealthChart(snap m.PortfolioSnapshot, title string) ([]byte, error) {
	if len(snap.Wealth) < 2 {
		return nil, ErrNotEnoughData
	}

	values := make([]float64, len(snap.Wealth))
	labels := make([]string, len(snap.Wealth))
	for i, p := range snap.Wealth {
		values[i] = p.Wealth
		labels[i] = epochLabel(p.Epoch, p.Time)
	}

	yMin, yMax := paddedRange(values)
	final := values[len(values)-1]
	subtitle := fmt.Sprintf("Wealth: %.4f | Return: %.2f%%", final, (final/values[0]-1)*100)

	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNumber(len(labels)),
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render wealth chart: %w", err)
	}

	return p.Bytes()
}

// RenderWeightsChart draws one line per asset
func RenderWeightsChart(snap m.PortfolioSnapshot, title string) ([]byte, error) {
	if len(snap.Weights) < 2 {
		return nil, ErrNotEnoughData
	}

	values := make([][]float64, len(snap.Universe))
	for i := range values {
		values[i] = make([]float64, len(snap.Weights))
	}
	labels := make([]string, len(snap.Weights))
	for t, p := range snap.Weights {
		labels[t] = epochLabel(p.Epoch, p.Time)
		for i, symbol := range snap.Universe {
			values[i][t] = p.Weights[symbol]
		}
	}

	yMin, yMax := 0.0, 1.0
	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(title, "Weights"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNumber(len(labels)),
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: snap.Universe}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render weights chart: %w", err)
	}

	return p.Bytes()
}

func epochLabel(epoch int, t time.Time) string {
	if t.IsZero() {
		return strconv.Itoa(epoch)
	}
	return ex.FmtShort(t)
}

func paddedRange(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = ex.Min(lo, v)
		hi = max(hi, v)
	}

	padding := (hi - lo) * 0.05
	if padding == 0 {
		padding = hi * 0.05
	}
	return lo - padding, hi + padding
}

func splitNumber(n int) int {
	if n > 30 {
		return 6
	}
	return max(n/3, 3)
}
