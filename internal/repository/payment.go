package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
)

// PaymentRepo represents payment repository.
type PaymentRepo struct{ db *pgxpool.Pool }

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(db *pgxpool.Pool) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment. A second payment for the same order is a conflict.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO payments (order_id, user_id, amount, method, status,
            transaction_id, failure_reason, created_at, updated_at)
        VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $8)
        RETURNING id
    `, p.OrderID, p.UserID, p.Amount.String(), string(p.Method), string(p.Status),
		p.TransactionID, p.FailureReason, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.Conflict
		}
		return fmt.Errorf("create payment for order %d: %w", p.OrderID, err)
	}
	return nil
}

// GetByOrder returns the payment of an order, or nil.
func (r *PaymentRepo) GetByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	var (
		p              domain.Payment
		amount         string
		method, status string
	)
	err := r.db.QueryRow(ctx, `
        SELECT id, order_id, user_id, amount::text, method, status,
               transaction_id, failure_reason, created_at, updated_at
        FROM payments WHERE order_id = $1
    `, orderID).Scan(&p.ID, &p.OrderID, &p.UserID, &amount, &method, &status,
		&p.TransactionID, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment for order %d: %w", orderID, err)
	}
	if p.Amount, err = parseMoney("amount", amount); err != nil {
		return nil, err
	}
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

// CountFailedSince counts failed payments of a user created after since.
func (r *PaymentRepo) CountFailedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
        SELECT count(*) FROM payments
        WHERE user_id = $1 AND status = $2 AND created_at >= $3
    `, userID, string(domain.PaymentFailed), since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failed payments for user %d: %w", userID, err)
	}
	return n, nil
}

// AuditRepo represents the payment audit log.
type AuditRepo struct{ db *pgxpool.Pool }

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *pgxpool.Pool) *AuditRepo { return &AuditRepo{db: db} }

// Insert appends an audit record.
func (r *AuditRepo) Insert(ctx context.Context, a domain.PaymentAudit) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO payment_audit_log (order_id, user_id, action, success, message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, a.OrderID, a.UserID, a.Action, a.Success, a.Message, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment audit: %w", err)
	}
	return nil
}
