package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"food-delivery/internal/domain"
	"food-delivery/internal/ports/deliverytx"
)

// DeliveryRepo represents delivery repository.
type DeliveryRepo struct {
	db *pgxpool.Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(db *pgxpool.Pool) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

const deliveryColumns = `
    id, order_id, user_id, courier_id, status,
    pickup_lat, pickup_lon, dropoff_lat, dropoff_lon,
    estimated_distance_meters, estimated_time_minutes, rating, cancel_reason,
    assigned_at, picked_up_at, delivered_at, created_at, updated_at`

// CreatePending inserts a PENDING delivery for an order. When the order
// already has one, the existing delivery is returned with created=false.
func (r *DeliveryRepo) CreatePending(ctx context.Context, d *domain.Delivery) (*domain.Delivery, bool, error) {
	var dLat, dLon *float64
	if d.Dropoff != nil {
		dLat, dLon = &d.Dropoff.Lat, &d.Dropoff.Lon
	}
	err := r.db.QueryRow(ctx, `
        INSERT INTO deliveries (order_id, user_id, status, pickup_lat, pickup_lon,
            dropoff_lat, dropoff_lon, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (order_id) DO NOTHING
        RETURNING id
    `, d.OrderID, d.UserID, string(d.Status), d.Pickup.Lat, d.Pickup.Lon, dLat, dLon, d.CreatedAt).Scan(&d.ID)
	if err == nil {
		return d, true, nil
	}
	if !IsNotFound(err) {
		return nil, false, fmt.Errorf("insert delivery for order %d: %w", d.OrderID, err)
	}

	existing, err := r.GetByOrder(ctx, d.OrderID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("delivery for order %d vanished after conflict", d.OrderID)
	}
	return existing, false, nil
}

// Get returns a delivery by id, or nil if it does not exist.
func (r *DeliveryRepo) Get(ctx context.Context, id int64) (*domain.Delivery, error) {
	return scanDelivery(r.db.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id))
}

// GetByOrder returns the delivery of an order, or nil.
func (r *DeliveryRepo) GetByOrder(ctx context.Context, orderID int64) (*domain.Delivery, error) {
	return scanDelivery(r.db.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE order_id = $1`, orderID))
}

// ListPendingIDs returns up to limit ids of deliveries still waiting for a
// courier, in id order, starting after afterID.
func (r *DeliveryRepo) ListPendingIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	if err := pgxscan.Select(ctx, r.db, &ids, `
        SELECT id FROM deliveries WHERE status = $1 AND id > $2 ORDER BY id LIMIT $3
    `, string(domain.DeliveryPending), afterID, limit); err != nil {
		return nil, fmt.Errorf("list pending deliveries: %w", err)
	}
	return ids, nil
}

// WithTx opens a transaction and executes fn within it.
func (r *DeliveryRepo) WithTx(ctx context.Context, fn func(tx deliverytx.Repository) error) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&TxRepo{tx: tx})
	})
}

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

// GetForUpdate locks a delivery row.
func (r *TxRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Delivery, error) {
	return scanDelivery(r.tx.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1 FOR UPDATE`, id))
}

// GetByOrderForUpdate locks the delivery of an order.
func (r *TxRepo) GetByOrderForUpdate(ctx context.Context, orderID int64) (*domain.Delivery, error) {
	return scanDelivery(r.tx.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE order_id = $1 FOR UPDATE`, orderID))
}

// Save writes the mutable fields of a delivery.
func (r *TxRepo) Save(ctx context.Context, d *domain.Delivery) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE deliveries
        SET courier_id = $2,
            status = $3,
            estimated_distance_meters = $4,
            estimated_time_minutes = $5,
            rating = $6,
            cancel_reason = $7,
            assigned_at = $8,
            picked_up_at = $9,
            delivered_at = $10,
            updated_at = $11
        WHERE id = $1
    `, d.ID, d.CourierID, string(d.Status), d.EstimatedDistanceMeters, d.EstimatedTimeMinutes,
		d.Rating, d.CancelReason, d.AssignedAt, d.PickedUpAt, d.DeliveredAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save delivery %d: %w", d.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delivery %d not found", d.ID)
	}
	return nil
}

const activeDeliveryExists = `
    EXISTS (SELECT 1 FROM deliveries d
            WHERE d.courier_id = c.id AND d.status IN ('ASSIGNED', 'IN_TRANSIT'))`

// CandidatesByIDs loads couriers by id together with their active-delivery flag.
func (r *TxRepo) CandidatesByIDs(ctx context.Context, ids []int64) ([]deliverytx.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.tx.Query(ctx, `
        SELECT `+courierColumnsC+`, `+activeDeliveryExists+`
        FROM couriers c
        WHERE c.id = ANY($1)
        ORDER BY c.id
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	return collectCandidates(rows)
}

// AvailableByRating returns AVAILABLE couriers with a known location, best rated first.
func (r *TxRepo) AvailableByRating(ctx context.Context, limit int) ([]deliverytx.Candidate, error) {
	rows, err := r.tx.Query(ctx, `
        SELECT `+courierColumnsC+`, `+activeDeliveryExists+`
        FROM couriers c
        WHERE c.status = $1 AND c.latitude IS NOT NULL AND c.longitude IS NOT NULL
        ORDER BY c.average_rating DESC, c.id ASC
        LIMIT $2
    `, string(domain.StatusAvailable), limit)
	if err != nil {
		return nil, fmt.Errorf("select available couriers: %w", err)
	}
	return collectCandidates(rows)
}

// ReserveCourier marks a courier BUSY only if it is still AVAILABLE and idle.
func (r *TxRepo) ReserveCourier(ctx context.Context, courierID int64) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE couriers c
        SET status = $2, updated_at = now()
        WHERE c.id = $1 AND c.status = $3 AND NOT `+activeDeliveryExists,
		courierID, string(domain.StatusBusy), string(domain.StatusAvailable))
	if err != nil {
		return false, fmt.Errorf("reserve courier %d: %w", courierID, err)
	}
	return ct.RowsAffected() == 1, nil
}

// GetCourierForUpdate locks a courier row.
func (r *TxRepo) GetCourierForUpdate(ctx context.Context, id int64) (*domain.Courier, error) {
	return scanCourier(r.tx.QueryRow(ctx, `SELECT `+courierColumnsC+` FROM couriers c WHERE c.id = $1 FOR UPDATE`, id))
}

// SaveCourier writes the status and counters of a courier.
func (r *TxRepo) SaveCourier(ctx context.Context, c *domain.Courier) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE couriers
        SET status = $2,
            average_rating = $3,
            rating_count = $4,
            total_deliveries = $5,
            updated_at = now()
        WHERE id = $1
    `, c.ID, string(c.Status), c.AverageRating, c.RatingCount, c.TotalDeliveries)
	if err != nil {
		return fmt.Errorf("save courier %d: %w", c.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("courier %d not found", c.ID)
	}
	return nil
}

func collectCandidates(rows pgx.Rows) ([]deliverytx.Candidate, error) {
	defer rows.Close()
	var out []deliverytx.Candidate
	for rows.Next() {
		var cand deliverytx.Candidate
		c, err := scanCourierFields(rows, &cand.HasActiveDelivery)
		if err != nil {
			return nil, err
		}
		cand.Courier = *c
		out = append(out, cand)
	}
	return out, rows.Err()
}

func scanDelivery(row pgx.Row) (*domain.Delivery, error) {
	var (
		d          domain.Delivery
		status     string
		dLat, dLon *float64
	)
	err := row.Scan(&d.ID, &d.OrderID, &d.UserID, &d.CourierID, &status,
		&d.Pickup.Lat, &d.Pickup.Lon, &dLat, &dLon,
		&d.EstimatedDistanceMeters, &d.EstimatedTimeMinutes, &d.Rating, &d.CancelReason,
		&d.AssignedAt, &d.PickedUpAt, &d.DeliveredAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan delivery: %w", err)
	}
	d.Status = domain.DeliveryStatus(status)
	if dLat != nil && dLon != nil {
		d.Dropoff = &domain.Point{Lat: *dLat, Lon: *dLon}
	}
	return &d, nil
}
