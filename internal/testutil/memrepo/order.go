package memrepo

import (
	"context"
	"sync"

	"food-delivery/internal/domain"
	"food-delivery/internal/ports/ordertx"
)

// Orders is an in-memory order store with an inbox of processed event ids.
type Orders struct {
	mu        sync.Mutex
	orders    map[int64]domain.Order
	processed map[string]struct{}
	nextID    int64
	nextHist  int64

	// FailCreate, when set, is returned by Create.
	FailCreate error
}

// NewOrders returns an empty store.
func NewOrders() *Orders {
	return &Orders{
		orders:    map[int64]domain.Order{},
		processed: map[string]struct{}{},
	}
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	o.History = append([]domain.OrderHistoryEntry(nil), o.History...)
	return o
}

// Put stores o, assigning an id when it has none.
func (m *Orders) Put(o *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == 0 {
		m.nextID++
		o.ID = m.nextID
	} else if o.ID > m.nextID {
		m.nextID = o.ID
	}
	m.orders[o.ID] = cloneOrder(*o)
}

// Order returns a copy of a stored order.
func (m *Orders) Order(id int64) (domain.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return cloneOrder(o), ok
}

// Create stores a new order with its history.
func (m *Orders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return m.FailCreate
	}
	m.nextID++
	o.ID = m.nextID
	for i := range o.Items {
		o.Items[i].ID = int64(i + 1)
	}
	for i := range o.History {
		m.nextHist++
		o.History[i].ID = m.nextHist
		o.History[i].OrderID = o.ID
	}
	m.orders[o.ID] = cloneOrder(*o)
	return nil
}

// Get returns an order or nil.
func (m *Orders) Get(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := cloneOrder(o)
	return &cp, nil
}

// History returns the status history of an order, oldest first.
func (m *Orders) History(_ context.Context, orderID int64) ([]domain.OrderHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderHistoryEntry{}, m.orders[orderID].History...), nil
}

// WithTx runs fn and restores the previous state if fn fails.
func (m *Orders) WithTx(_ context.Context, fn func(tx ordertx.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := make(map[int64]domain.Order, len(m.orders))
	for k, v := range m.orders {
		saved[k] = cloneOrder(v)
	}
	ps := make(map[string]struct{}, len(m.processed))
	for k := range m.processed {
		ps[k] = struct{}{}
	}
	hist := m.nextHist

	if err := fn(orderTx{m}); err != nil {
		m.orders, m.processed, m.nextHist = saved, ps, hist
		return err
	}
	return nil
}

type orderTx struct{ m *Orders }

func (t orderTx) GetForUpdate(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := t.m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := cloneOrder(o)
	cp.Items, cp.History = nil, nil
	return &cp, nil
}

func (t orderTx) SaveStatus(_ context.Context, o *domain.Order, entry domain.OrderHistoryEntry) error {
	stored := t.m.orders[o.ID]
	stored.Status = o.Status
	stored.UpdatedAt = o.UpdatedAt
	t.m.nextHist++
	entry.ID = t.m.nextHist
	entry.OrderID = o.ID
	stored.History = append(stored.History, entry)
	t.m.orders[o.ID] = stored
	return nil
}

func (t orderTx) SetCourier(_ context.Context, orderID, courierID int64, eta *int) error {
	stored, ok := t.m.orders[orderID]
	if !ok {
		return nil
	}
	stored.CourierID = &courierID
	stored.EstimatedDeliveryMinutes = eta
	t.m.orders[orderID] = stored
	return nil
}

func (t orderTx) MarkProcessed(_ context.Context, group, eventID string) (bool, error) {
	key := group + "/" + eventID
	if _, ok := t.m.processed[key]; ok {
		return false, nil
	}
	t.m.processed[key] = struct{}{}
	return true, nil
}
