package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"ICTSentinel/internal/fund"
	"ICTSentinel/internal/model"

	"github.com/google/uuid"
)

// PaperBroker simulates execution against the paper account at the last seen price.
type PaperBroker struct {
	mu    sync.Mutex
	fund  *fund.Manager
	price float64
	at    time.Time
}

func NewPaperBroker(f *fund.Manager) *PaperBroker { return &PaperBroker{fund: f} }

func (p *PaperBroker) Name() string { return "paper" }

// SetPrice records the latest close used to fill market orders.
func (p *PaperBroker) SetPrice(price float64, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.price = price
	p.at = at
}

func (p *PaperBroker) last() (float64, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.price, p.at
}

func (p *PaperBroker) PlaceMarket(_ context.Context, symbol string, quantity float64) (*PlacedOrder, error) {
	if quantity == 0 {
		return nil, errors.New("quantity must be non-zero")
	}
	price, at := p.last()
	if price <= 0 {
		return nil, errors.New("no price seen yet")
	}
	if _, err := p.fund.OpenPosition(symbol, quantity, price, at); err != nil {
		return nil, err
	}
	return p.order(model.OrderMarket, symbol, quantity, price, at), nil
}

func (p *PaperBroker) PlaceStop(_ context.Context, symbol string, quantity, stopPrice float64) (*PlacedOrder, error) {
	if stopPrice <= 0 {
		return nil, errors.New("stop price must be > 0")
	}
	if err := p.fund.AttachStop(stopPrice); err != nil {
		return nil, err
	}
	_, at := p.last()
	return p.order(model.OrderStop, symbol, quantity, stopPrice, at), nil
}

func (p *PaperBroker) PlaceLimit(_ context.Context, symbol string, quantity, limitPrice float64) (*PlacedOrder, error) {
	if limitPrice <= 0 {
		return nil, errors.New("limit price must be > 0")
	}
	if err := p.fund.AttachTarget(limitPrice); err != nil {
		return nil, err
	}
	_, at := p.last()
	return p.order(model.OrderLimit, symbol, quantity, limitPrice, at), nil
}

func (p *PaperBroker) order(t model.OrderType, symbol string, qty, price float64, at time.Time) *PlacedOrder {
	return &PlacedOrder{
		ID:         uuid.New().String(),
		Type:       t,
		Symbol:     symbol,
		Quantity:   qty,
		Price:      price,
		CreateTime: at,
	}
}
