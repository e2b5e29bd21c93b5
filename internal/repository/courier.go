package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
)

// CourierRepo represents courier repository.
type CourierRepo struct{ db *pgxpool.Pool }

// NewCourierRepo creates a new CourierRepo.
func NewCourierRepo(db *pgxpool.Pool) *CourierRepo { return &CourierRepo{db: db} }

const courierColumnsC = `
    c.id, c.user_id, c.name, c.phone, c.transport_type, c.status,
    c.latitude, c.longitude, c.location_updated_at,
    c.average_rating, c.rating_count, c.total_deliveries,
    c.created_at, c.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCourier(row scanner) (*domain.Courier, error) {
	c, err := scanCourierFields(row)
	if err != nil && IsNotFound(err) {
		return nil, nil
	}
	return c, err
}

func scanCourierFields(row scanner, extra ...any) (*domain.Courier, error) {
	var (
		c          domain.Courier
		status, tt string
		lat, lon   *float64
	)
	dest := []any{&c.ID, &c.UserID, &c.Name, &c.Phone, &tt, &status,
		&lat, &lon, &c.LocationUpdatedAt,
		&c.AverageRating, &c.RatingCount, &c.TotalDeliveries,
		&c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan courier: %w", err)
	}
	c.Status = domain.CourierStatus(status)
	c.TransportType = domain.CourierTransportType(tt)
	if lat != nil && lon != nil {
		c.Location = &domain.Point{Lat: *lat, Lon: *lon}
	}
	return &c, nil
}

// Get - returns courier by its ID.
func (r *CourierRepo) Get(ctx context.Context, id int64) (*domain.Courier, error) {
	c, err := scanCourier(r.db.QueryRow(ctx, `SELECT `+courierColumnsC+` FROM couriers c WHERE c.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get courier %d: %w", id, err)
	}
	return c, nil
}

// List returns couriers ordered by id. If limit/offset are nil, returns the full list.
// A non-nil status filters by status.
func (r *CourierRepo) List(ctx context.Context, limit, offset *int, status *domain.CourierStatus) ([]domain.Courier, error) {
	q := `SELECT ` + courierColumnsC + ` FROM couriers c`
	args := make([]any, 0, 3)
	if status != nil {
		args = append(args, string(*status))
		q += fmt.Sprintf(" WHERE c.status = $%d", len(args))
	}
	q += " ORDER BY c.id"
	if limit != nil {
		args = append(args, *limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset != nil {
		args = append(args, *offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	capacity := 0
	if limit != nil && *limit > 0 {
		capacity = *limit
	}
	out := make([]domain.Courier, 0, capacity)
	for rows.Next() {
		c, err := scanCourierFields(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Create - creates a new courier.
func (r *CourierRepo) Create(ctx context.Context, c *domain.Courier) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
        INSERT INTO couriers (user_id, name, phone, status, transport_type)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, c.UserID, c.Name, c.Phone, string(c.Status), string(c.TransportType)).Scan(&id)
	if err != nil {
		if IsDuplicate(err) {
			return 0, apperr.Conflict
		}
		return 0, fmt.Errorf("create courier: %w", err)
	}
	return id, nil
}

// UpdatePartial applies a partial update to a courier and returns true if a row was affected.
func (r *CourierRepo) UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE couriers
        SET
            name           = COALESCE($2, name),
            phone          = COALESCE($3, phone),
            transport_type = COALESCE($4, transport_type),
            updated_at     = now()
        WHERE id = $1
    `, u.ID, u.Name, u.Phone, u.TransportType)

	if err != nil {
		if IsDuplicate(err) {
			return false, apperr.Conflict
		}
		return false, fmt.Errorf("update courier %d: %w", u.ID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// UpdateStatus sets a courier-chosen status and returns the stored one.
// A courier coming back AVAILABLE while still holding an active delivery
// is stored as BUSY.
func (r *CourierRepo) UpdateStatus(ctx context.Context, id int64, status domain.CourierStatus) (domain.CourierStatus, error) {
	var stored string
	err := r.db.QueryRow(ctx, `
        UPDATE couriers c
        SET status = CASE WHEN $2::text = $3::text AND `+activeDeliveryExists+` THEN $4::text ELSE $2::text END,
            updated_at = now()
        WHERE c.id = $1
        RETURNING c.status
    `, id, string(status), string(domain.StatusAvailable), string(domain.StatusBusy)).Scan(&stored)
	if err != nil {
		if IsNotFound(err) {
			return "", apperr.NotFound
		}
		return "", fmt.Errorf("update courier status %d: %w", id, err)
	}
	return domain.CourierStatus(stored), nil
}

// UpdateLocation stores the last reported position snapshot.
func (r *CourierRepo) UpdateLocation(ctx context.Context, id int64, p domain.Point, at time.Time) error {
	ct, err := r.db.Exec(ctx, `
        UPDATE couriers
        SET latitude = $2, longitude = $3, location_updated_at = $4, updated_at = now()
        WHERE id = $1
    `, id, p.Lat, p.Lon, at)
	if err != nil {
		return fmt.Errorf("update courier location %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound
	}
	return nil
}
