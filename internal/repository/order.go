package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"food-delivery/internal/domain"
	"food-delivery/internal/ports/ordertx"
)

// OrderRepo represents order repository.
type OrderRepo struct {
	db *pgxpool.Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{db: db}
}

const orderColumns = `
    id, user_id, restaurant_id, delivery_address_id,
    subtotal::text, delivery_fee::text, discount::text, total::text,
    promo_code, status, courier_id, estimated_delivery_minutes,
    created_at, updated_at`

type itemRow struct {
	ID         int64  `db:"id"`
	MenuItemID int64  `db:"menu_item_id"`
	Name       string `db:"name"`
	UnitPrice  string `db:"unit_price"`
	Quantity   int    `db:"quantity"`
}

type historyRow struct {
	ID        int64     `db:"id"`
	OrderID   int64     `db:"order_id"`
	Status    string    `db:"status"`
	ChangedBy *int64    `db:"changed_by"`
	Comment   string    `db:"comment"`
	CreatedAt time.Time `db:"created_at"`
}

func (h historyRow) toDomain() domain.OrderHistoryEntry {
	return domain.OrderHistoryEntry{
		ID:        h.ID,
		OrderID:   h.OrderID,
		Status:    domain.OrderStatus(h.Status),
		ChangedBy: h.ChangedBy,
		Comment:   h.Comment,
		CreatedAt: h.CreatedAt,
	}
}

// Create inserts the order with its items and initial history in one transaction.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
            INSERT INTO orders (user_id, restaurant_id, delivery_address_id,
                subtotal, delivery_fee, discount, total, promo_code, status,
                estimated_delivery_minutes, created_at, updated_at)
            VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8, $9, $10, $11, $11)
            RETURNING id
        `, o.UserID, o.RestaurantID, o.DeliveryAddressID,
			o.Subtotal.String(), o.DeliveryFee.String(), o.Discount.String(), o.Total.String(),
			o.PromoCode, string(o.Status), o.EstimatedDeliveryMinutes, o.CreatedAt,
		).Scan(&o.ID)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range o.Items {
			it := &o.Items[i]
			err := tx.QueryRow(ctx, `
                INSERT INTO order_items (order_id, menu_item_id, name, unit_price, quantity)
                VALUES ($1, $2, $3, $4::numeric, $5)
                RETURNING id
            `, o.ID, it.MenuItemID, it.Name, it.UnitPrice.String(), it.Quantity).Scan(&it.ID)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		for i := range o.History {
			o.History[i].OrderID = o.ID
			if err := insertHistory(ctx, tx, &o.History[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns an order with items and history, or nil if it does not exist.
func (r *OrderRepo) Get(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil || o == nil {
		return o, err
	}

	var items []itemRow
	if err := pgxscan.Select(ctx, r.db, &items, `
        SELECT id, menu_item_id, name, unit_price::text AS unit_price, quantity
        FROM order_items WHERE order_id = $1 ORDER BY id
    `, id); err != nil {
		return nil, fmt.Errorf("select order items %d: %w", id, err)
	}
	o.Items = make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		price, err := parseMoney("unit_price", it.UnitPrice)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, domain.OrderItem{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  price,
			Quantity:   it.Quantity,
		})
	}

	if o.History, err = r.History(ctx, id); err != nil {
		return nil, err
	}
	return o, nil
}

// History returns the status history of an order, oldest first.
func (r *OrderRepo) History(ctx context.Context, orderID int64) ([]domain.OrderHistoryEntry, error) {
	var rows []historyRow
	if err := pgxscan.Select(ctx, r.db, &rows, `
        SELECT id, order_id, status, changed_by, comment, created_at
        FROM order_status_history WHERE order_id = $1 ORDER BY id
    `, orderID); err != nil {
		return nil, fmt.Errorf("select order history %d: %w", orderID, err)
	}
	out := make([]domain.OrderHistoryEntry, 0, len(rows))
	for _, h := range rows {
		out = append(out, h.toDomain())
	}
	return out, nil
}

// WithTx opens a transaction and executes fn within it.
func (r *OrderRepo) WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&OrderTxRepo{tx: tx})
	})
}

// OrderTxRepo represents order operations bound to a transaction.
type OrderTxRepo struct {
	tx pgx.Tx
}

// GetForUpdate locks the order row. Items and history are not loaded.
func (r *OrderTxRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

// SaveStatus persists the order status and appends the history entry.
func (r *OrderTxRepo) SaveStatus(ctx context.Context, o *domain.Order, entry domain.OrderHistoryEntry) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
    `, o.ID, string(o.Status), o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order status %d: %w", o.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %d not found", o.ID)
	}
	entry.OrderID = o.ID
	return insertHistory(ctx, r.tx, &entry)
}

// SetCourier records the courier and ETA reported by the delivery side.
func (r *OrderTxRepo) SetCourier(ctx context.Context, orderID, courierID int64, etaMinutes *int) error {
	_, err := r.tx.Exec(ctx, `
        UPDATE orders
        SET courier_id = $2, estimated_delivery_minutes = $3, updated_at = now()
        WHERE id = $1
    `, orderID, courierID, etaMinutes)
	if err != nil {
		return fmt.Errorf("set order courier %d: %w", orderID, err)
	}
	return nil
}

// MarkProcessed inserts into the inbox table and reports whether the row is new.
func (r *OrderTxRepo) MarkProcessed(ctx context.Context, group, eventID string) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        INSERT INTO processed_events (consumer_group, event_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `, group, eventID)
	if err != nil {
		return false, fmt.Errorf("mark event %s processed: %w", eventID, err)
	}
	return ct.RowsAffected() == 1, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, h *domain.OrderHistoryEntry) error {
	err := tx.QueryRow(ctx, `
        INSERT INTO order_status_history (order_id, status, changed_by, comment, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, h.OrderID, string(h.Status), h.ChangedBy, h.Comment, h.CreatedAt).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("insert order history: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                              domain.Order
		status                         string
		subtotal, fee, discount, total string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.RestaurantID, &o.DeliveryAddressID,
		&subtotal, &fee, &discount, &total,
		&o.PromoCode, &status, &o.CourierID, &o.EstimatedDeliveryMinutes,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.Status = domain.OrderStatus(status)

	if o.Subtotal, err = parseMoney("subtotal", subtotal); err != nil {
		return nil, err
	}
	if o.DeliveryFee, err = parseMoney("delivery_fee", fee); err != nil {
		return nil, err
	}
	if o.Discount, err = parseMoney("discount", discount); err != nil {
		return nil, err
	}
	if o.Total, err = parseMoney("total", total); err != nil {
		return nil, err
	}
	return &o, nil
}
