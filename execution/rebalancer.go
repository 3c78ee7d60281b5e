package execution

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// Rebalancer moves the broker's holdings to the target weights, whole shares only and never short
type Rebalancer struct {
	Broker Broker
}

func NewRebalancer(broker Broker) *Rebalancer {
	return &Rebalancer{Broker: broker}
}

func (rb *Rebalancer) Execute(ctx context.Context, universe []string, weights []float64, prices map[string]float64) error {
	if len(universe) != len(weights) {
		return fmt.Errorf("got %d weights for %d symbols", len(weights), len(universe))
	}

	quotes := make(map[string]decimal.Decimal, len(prices))
	for symbol, p := range prices {
		quotes[symbol] = decimal.NewFromFloat(p)
	}

	nav, err := rb.Broker.NetLiquidation(ctx, quotes)
	if err != nil {
		return fmt.Errorf("error getting net liquidation: %w", err)
	}

	positions, err := rb.Broker.Positions(ctx)
	if err != nil {
		return fmt.Errorf("error getting positions: %w", err)
	}

	orders, err := PlanOrders(universe, weights, quotes, nav, positions)
	if err != nil {
		return err
	}

	for _, order := range orders {
		id, err := rb.Broker.PlaceOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("error placing %s %d %s: %w", order.Side, order.Quantity, order.Symbol, err)
		}
		log.Printf("placed order %s: %s %d %s @ %s", id, order.Side, order.Quantity, order.Symbol, order.Price.StringFixed(2))
	}

	return nil
}

// PlanOrders works out the orders that take positions to floor(w * nav / price) shares of each symbol.
// Sells come first so their cash is there for the buys.
func PlanOrders(universe []string, weights []float64, prices map[string]decimal.Decimal, nav decimal.Decimal, positions map[string]int64) ([]Order, error) {
	var sells, buys []Order
	for i, symbol := range universe {
		price, ok := prices[symbol]
		if !ok || !price.IsPositive() {
			return nil, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
		}

		target := decimal.NewFromFloat(weights[i]).Mul(nav).Div(price).Floor().IntPart()
		current := positions[symbol]
		delta := target - current

		switch {
		case delta > 0:
			buys = append(buys, Order{Symbol: symbol, Side: Buy, Quantity: delta, Price: price})
		case delta < 0:
			// no shorting
			if qty := min(-delta, current); qty > 0 {
				sells = append(sells, Order{Symbol: symbol, Side: Sell, Quantity: qty, Price: price})
			}
		}
	}

	return append(sells, buys...), nil
}
