package execution

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanOrdersFloorsTargets(t *testing.T) {
	prices := map[string]decimal.Decimal{"A": decimal.NewFromInt(30), "B": decimal.NewFromInt(70)}

	orders, err := PlanOrders([]string{"A", "B"}, []float64{0.5, 0.5}, prices, decimal.NewFromInt(1000), map[string]int64{})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// 500 / 30 = 16.67 and 500 / 70 = 7.14
	assert.Equal(t, Order{Symbol: "A", Side: Buy, Quantity: 16, Price: prices["A"]}, orders[0])
	assert.Equal(t, int64(7), orders[1].Quantity)
}

func TestPlanOrdersSellsFirstAndSkipsZeroDeltas(t *testing.T) {
	prices := map[string]decimal.Decimal{"A": decimal.NewFromInt(10), "B": decimal.NewFromInt(10), "C": decimal.NewFromInt(10)}
	positions := map[string]int64{"A": 50, "B": 50}

	orders, err := PlanOrders([]string{"A", "B", "C"}, []float64{0, 0.5, 0.5}, prices, decimal.NewFromInt(1000), positions)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, Sell, orders[0].Side)
	assert.Equal(t, "A", orders[0].Symbol)
	assert.Equal(t, int64(50), orders[0].Quantity)
	assert.Equal(t, Buy, orders[1].Side)
	assert.Equal(t, "C", orders[1].Symbol)
}

func TestPlanOrdersNeedsPrices(t *testing.T) {
	_, err := PlanOrders([]string{"A"}, []float64{1}, map[string]decimal.Decimal{}, decimal.NewFromInt(1000), nil)
	assert.ErrorIs(t, err, ErrNoPrice)
}

func TestRebalancerAgainstPaperBroker(t *testing.T) {
	ctx := context.Background()
	pb := NewPaperBroker(decimal.NewFromInt(10000))
	rb := NewRebalancer(pb)
	universe := []string{"AAPL", "MSFT"}

	require.NoError(t, rb.Execute(ctx, universe, []float64{0.25, 0.75}, map[string]float64{"AAPL": 250, "MSFT": 500}))

	positions, err := pb.Positions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), positions["AAPL"])
	assert.Equal(t, int64(15), positions["MSFT"])
	assert.True(t, decimal.Zero.Equal(pb.Cash()))

	// everything into AAPL after a move
	require.NoError(t, rb.Execute(ctx, universe, []float64{1, 0}, map[string]float64{"AAPL": 200, "MSFT": 500}))

	positions, err = pb.Positions(ctx)
	require.NoError(t, err)
	// nav = 10 * 200 + 15 * 500 = 9500, 9500 / 200 = 47.5
	assert.Equal(t, int64(47), positions["AAPL"])
	assert.Equal(t, int64(0), positions["MSFT"])
	assert.True(t, decimal.NewFromInt(100).Equal(pb.Cash()))
}

func TestRebalancerRejectsMismatchedWeights(t *testing.T) {
	rb := NewRebalancer(NewPaperBroker(decimal.NewFromInt(100)))
	assert.Error(t, rb.Execute(context.Background(), []string{"A", "B"}, []float64{1}, map[string]float64{"A": 1, "B": 1}))
}
