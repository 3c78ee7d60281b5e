package execution

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

var (
	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrNoPrice              = errors.New("no price for symbol")
)

// Order is a market order, Price is the reference price it is expected to fill at
type Order struct {
	Id       string          `json:"id"`
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type Broker interface {
	NetLiquidation(ctx context.Context, prices map[string]decimal.Decimal) (decimal.Decimal, error)
	Positions(ctx context.Context) (map[string]int64, error)
	PlaceOrder(ctx context.Context, order Order) (string, error)
}

// PaperBroker fills every order immediately at its reference price
type PaperBroker struct {
	mu        sync.Mutex
	cash      decimal.Decimal
	positions map[string]int64
	orders    []Order
}

func NewPaperBroker(cash decimal.Decimal) *PaperBroker {
	return &PaperBroker{
		cash:      cash,
		positions: make(map[string]int64),
	}
}

func (pb *PaperBroker) Cash() decimal.Decimal {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.cash
}

func (pb *PaperBroker) Orders() []Order {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return append([]Order(nil), pb.orders...)
}

func (pb *PaperBroker) NetLiquidation(ctx context.Context, prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	nav := pb.cash
	for symbol, qty := range pb.positions {
		if qty == 0 {
			continue
		}
		price, ok := prices[symbol]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
		}
		nav = nav.Add(price.Mul(decimal.NewFromInt(qty)))
	}
	return nav, nil
}

func (pb *PaperBroker) Positions(ctx context.Context) (map[string]int64, error) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return maps.Clone(pb.positions), nil
}

func (pb *PaperBroker) PlaceOrder(ctx context.Context, order Order) (string, error) {
	if order.Quantity <= 0 {
		return "", fmt.Errorf("order quantity must be positive, got %d", order.Quantity)
	}

	pb.mu.Lock()
	defer pb.mu.Unlock()

	notional := order.Price.Mul(decimal.NewFromInt(order.Quantity))
	switch order.Side {
	case Buy:
		if notional.GreaterThan(pb.cash) {
			return "", fmt.Errorf("%w: need %s, have %s", ErrInsufficientCash, notional.StringFixed(2), pb.cash.StringFixed(2))
		}
		pb.cash = pb.cash.Sub(notional)
		pb.positions[order.Symbol] += order.Quantity
	case Sell:
		if held := pb.positions[order.Symbol]; held < order.Quantity {
			return "", fmt.Errorf("%w: selling %d %s, holding %d", ErrInsufficientPosition, order.Quantity, order.Symbol, held)
		}
		pb.cash = pb.cash.Add(notional)
		pb.positions[order.Symbol] -= order.Quantity
	default:
		return "", fmt.Errorf("unknown order side %q", order.Side)
	}

	order.Id = uuid.New().String()
	pb.orders = append(pb.orders, order)
	return order.Id, nil
}
