package courier

import (
	"context"
	"errors"
	"strings"
	"time"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
	"food-delivery/internal/logx"
)

// Service coordinates courier business logic and orchestrates repository calls.
type Service struct {
	repo             courierRepository
	tracker          locationTracker
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates and configures a courier Service.
func NewService(r courierRepository, tracker locationTracker, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		repo:             r,
		tracker:          tracker,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// validateCreate validates a courier for registration.
func validateCreate(c *domain.Courier) error {
	if c == nil {
		return apperr.Invalid
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperr.Invalid
	}
	if !domain.ValidatePhone(c.Phone) {
		return apperr.Invalid
	}
	if c.TransportType == "" {
		c.TransportType = domain.TransportTypeFoot
	}
	if !c.TransportType.Valid() {
		return apperr.Invalid
	}
	return nil
}

func validateUpdate(u *domain.PartialCourierUpdate) error {
	if u.ID <= 0 {
		return apperr.Invalid
	}
	if u.Name == nil && u.Phone == nil && u.TransportType == nil {
		return apperr.Invalid
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return apperr.Invalid
	}
	if u.Phone != nil && !domain.ValidatePhone(*u.Phone) {
		return apperr.Invalid
	}
	if u.TransportType != nil && !u.TransportType.Valid() {
		return apperr.Invalid
	}
	return nil
}

// Get retrieves a courier by its ID.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Courier, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound
	}
	return c, nil
}

// List returns couriers with optional pagination and status filter.
func (s *Service) List(ctx context.Context, limit, offset *int, status *domain.CourierStatus) ([]domain.Courier, error) {
	if status != nil && !status.Valid() {
		return nil, apperr.Invalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.List(ctx, limit, offset, status)
}

// Register persists a new courier. Couriers start OFFLINE.
func (s *Service) Register(ctx context.Context, c *domain.Courier) (int64, error) {
	if err := validateCreate(c); err != nil {
		return 0, err
	}
	c.Status = domain.StatusOffline
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Create(ctx, c)
}

// UpdatePartial applies a partial update to a courier. It returns true if a row was updated.
func (s *Service) UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error) {
	if err := validateUpdate(&u); err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ok, err := s.repo.UpdatePartial(ctx, u)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperr.NotFound
	}
	return true, nil
}

// UpdateStatus applies a courier-requested status. BUSY cannot be requested.
// Going OFFLINE drops the live location.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status domain.CourierStatus) (domain.CourierStatus, error) {
	if !status.Settable() {
		return "", apperr.Invalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stored, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return "", err
	}
	if stored == domain.StatusOffline {
		s.tracker.Forget(id)
	}
	s.logger.Info("courier status changed",
		logx.Int64("courier_id", id),
		logx.String("requested", string(status)),
		logx.String("status", string(stored)))
	return stored, nil
}

// UpdateLocation records a position. The persisted snapshot is best-effort
// and the live store write happens in the background; only an unknown
// courier or a bad coordinate is reported to the caller.
func (s *Service) UpdateLocation(ctx context.Context, id int64, p domain.Point) error {
	if id <= 0 || !p.Valid() {
		return apperr.Invalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.UpdateLocation(ctx, id, p, s.now()); err != nil {
		if errors.Is(err, apperr.NotFound) {
			return err
		}
		s.logger.Warn("location snapshot failed", logx.Int64("courier_id", id), logx.Err(err))
	}
	s.tracker.Track(id, p)
	return nil
}
