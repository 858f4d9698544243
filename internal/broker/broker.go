// Package broker defines the order-submission surface the trading loop talks to.
package broker

import (
	"context"
	"fmt"
	"time"

	"ICTSentinel/internal/model"
)

// PlacedOrder is a normalized view of an accepted order.
type PlacedOrder struct {
	ID         string
	Type       model.OrderType
	Symbol     string
	Quantity   float64 // signed
	Price      float64 // fill price for market orders, trigger price otherwise
	CreateTime time.Time
}

// Broker accepts or rejects orders. Quantities are signed: positive buys.
type Broker interface {
	Name() string
	PlaceMarket(ctx context.Context, symbol string, quantity float64) (*PlacedOrder, error)
	PlaceStop(ctx context.Context, symbol string, quantity, stopPrice float64) (*PlacedOrder, error)
	PlaceLimit(ctx context.Context, symbol string, quantity, limitPrice float64) (*PlacedOrder, error)
}

// Execute submits orders in sequence and stops at the first rejection.
// It returns the orders accepted so far.
func Execute(ctx context.Context, b Broker, orders []model.OrderRequest) ([]*PlacedOrder, error) {
	placed := make([]*PlacedOrder, 0, len(orders))
	for _, o := range orders {
		var (
			po  *PlacedOrder
			err error
		)
		switch o.Type {
		case model.OrderMarket:
			po, err = b.PlaceMarket(ctx, o.Symbol, o.Quantity)
		case model.OrderStop:
			po, err = b.PlaceStop(ctx, o.Symbol, o.Quantity, o.Price)
		case model.OrderLimit:
			po, err = b.PlaceLimit(ctx, o.Symbol, o.Quantity, o.Price)
		default:
			err = fmt.Errorf("unknown order type %q", o.Type)
		}
		if err != nil {
			return placed, fmt.Errorf("%s order via %s: %w", o.Type, b.Name(), err)
		}
		placed = append(placed, po)
	}
	return placed, nil
}
