// Package memrepo holds in-memory repositories for service tests.
package memrepo

import (
	"context"
	"sort"
	"sync"

	"food-delivery/internal/domain"
	"food-delivery/internal/ports/deliverytx"
)

// Deliveries is an in-memory deliverytx.Runner. Transactions are
// serialised and rolled back by restoring a snapshot.
type Deliveries struct {
	mu         sync.Mutex
	deliveries map[int64]domain.Delivery
	couriers   map[int64]domain.Courier
	nextID     int64

	// LoseRace makes ReserveCourier report false for the given courier,
	// as if another assignment reserved it first.
	LoseRace func(courierID int64) bool
	// Reservations lists reserve attempts in call order.
	Reservations []int64
}

// NewDeliveries returns an empty store.
func NewDeliveries() *Deliveries {
	return &Deliveries{
		deliveries: map[int64]domain.Delivery{},
		couriers:   map[int64]domain.Courier{},
	}
}

// PutCourier stores c as is.
func (m *Deliveries) PutCourier(c domain.Courier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.couriers[c.ID] = c
}

// Courier returns a copy of a stored courier.
func (m *Deliveries) Courier(id int64) (domain.Courier, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.couriers[id]
	return c, ok
}

// PutDelivery stores d, assigning an id when it has none.
func (m *Deliveries) PutDelivery(d *domain.Delivery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == 0 {
		m.nextID++
		d.ID = m.nextID
	} else if d.ID > m.nextID {
		m.nextID = d.ID
	}
	m.deliveries[d.ID] = *d
}

// Delivery returns a copy of a stored delivery.
func (m *Deliveries) Delivery(id int64) (domain.Delivery, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	return d, ok
}

// CreatePending mirrors the unique order_id constraint.
func (m *Deliveries) CreatePending(_ context.Context, d *domain.Delivery) (*domain.Delivery, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.deliveries {
		if existing.OrderID == d.OrderID {
			cp := existing
			return &cp, false, nil
		}
	}
	m.nextID++
	d.ID = m.nextID
	m.deliveries[d.ID] = *d
	cp := *d
	return &cp, true, nil
}

// Get returns a delivery or nil.
func (m *Deliveries) Get(_ context.Context, id int64) (*domain.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id), nil
}

// GetByOrder returns the delivery of an order or nil.
func (m *Deliveries) GetByOrder(_ context.Context, orderID int64) (*domain.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getByOrder(orderID), nil
}

// ListPendingIDs returns pending ids above afterID in ascending order.
func (m *Deliveries) ListPendingIDs(_ context.Context, afterID int64, limit int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id, d := range m.deliveries {
		if id > afterID && d.Status == domain.DeliveryPending {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// WithTx runs fn against the store and restores it if fn fails.
func (m *Deliveries) WithTx(_ context.Context, fn func(tx deliverytx.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ds := make(map[int64]domain.Delivery, len(m.deliveries))
	for k, v := range m.deliveries {
		ds[k] = v
	}
	cs := make(map[int64]domain.Courier, len(m.couriers))
	for k, v := range m.couriers {
		cs[k] = v
	}

	if err := fn(tx{m}); err != nil {
		m.deliveries, m.couriers = ds, cs
		return err
	}
	return nil
}

func (m *Deliveries) get(id int64) *domain.Delivery {
	d, ok := m.deliveries[id]
	if !ok {
		return nil
	}
	return &d
}

func (m *Deliveries) getByOrder(orderID int64) *domain.Delivery {
	for _, d := range m.deliveries {
		if d.OrderID == orderID {
			cp := d
			return &cp
		}
	}
	return nil
}

func (m *Deliveries) hasActive(courierID int64) bool {
	for _, d := range m.deliveries {
		if d.CourierID != nil && *d.CourierID == courierID && d.Status.Active() {
			return true
		}
	}
	return false
}

type tx struct{ m *Deliveries }

func (t tx) GetForUpdate(_ context.Context, id int64) (*domain.Delivery, error) {
	return t.m.get(id), nil
}

func (t tx) GetByOrderForUpdate(_ context.Context, orderID int64) (*domain.Delivery, error) {
	return t.m.getByOrder(orderID), nil
}

func (t tx) Save(_ context.Context, d *domain.Delivery) error {
	t.m.deliveries[d.ID] = *d
	return nil
}

func (t tx) CandidatesByIDs(_ context.Context, ids []int64) ([]deliverytx.Candidate, error) {
	var out []deliverytx.Candidate
	for _, id := range ids {
		c, ok := t.m.couriers[id]
		if !ok {
			continue
		}
		out = append(out, deliverytx.Candidate{Courier: c, HasActiveDelivery: t.m.hasActive(id)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Courier.ID < out[j].Courier.ID })
	return out, nil
}

func (t tx) AvailableByRating(_ context.Context, limit int) ([]deliverytx.Candidate, error) {
	var out []deliverytx.Candidate
	for id, c := range t.m.couriers {
		if c.Status == domain.StatusAvailable && c.Location != nil {
			out = append(out, deliverytx.Candidate{Courier: c, HasActiveDelivery: t.m.hasActive(id)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Courier, out[j].Courier
		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t tx) ReserveCourier(_ context.Context, courierID int64) (bool, error) {
	t.m.Reservations = append(t.m.Reservations, courierID)
	if t.m.LoseRace != nil && t.m.LoseRace(courierID) {
		return false, nil
	}
	c, ok := t.m.couriers[courierID]
	if !ok || c.Status != domain.StatusAvailable || t.m.hasActive(courierID) {
		return false, nil
	}
	c.Status = domain.StatusBusy
	t.m.couriers[courierID] = c
	return true, nil
}

func (t tx) GetCourierForUpdate(_ context.Context, id int64) (*domain.Courier, error) {
	c, ok := t.m.couriers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t tx) SaveCourier(_ context.Context, c *domain.Courier) error {
	t.m.couriers[c.ID] = *c
	return nil
}
