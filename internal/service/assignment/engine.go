package assignment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
	"food-delivery/internal/events"
	"food-delivery/internal/logx"
	"food-delivery/internal/ports/deliverytx"
	"food-delivery/internal/transport/kafka"
)

// Config tunes the candidate search.
type Config struct {
	RadiusKm      float64
	MaxCandidates int
	FallbackLimit int
	Topic         string
	Timeout       time.Duration
}

func (c Config) withDefaults() Config {
	if c.RadiusKm <= 0 {
		c.RadiusKm = 10
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 10
	}
	if c.FallbackLimit <= 0 {
		c.FallbackLimit = 100
	}
	if c.Topic == "" {
		c.Topic = events.DefaultTopics().DeliveryAssigned
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

// Outcome labels for the assignments counter.
const (
	OutcomeAssigned  = "assigned"
	OutcomeUnmatched = "unmatched"
	OutcomeRaceLost  = "race_lost"
	OutcomeSkipped   = "skipped"
)

// Engine picks and reserves a courier for a pending delivery.
type Engine struct {
	repo       deliverytx.Runner
	locator    locator
	publisher  kafka.Publisher
	cfg        Config
	logger     logx.Logger
	outcomes   *prometheus.CounterVec
	mismatches prometheus.Counter
	now        func() time.Time
}

// NewEngine creates an Engine. Metrics may be nil.
func NewEngine(repo deliverytx.Runner, loc locator, pub kafka.Publisher, cfg Config, logger logx.Logger,
	outcomes *prometheus.CounterVec, mismatches prometheus.Counter) *Engine {
	if pub == nil {
		pub = kafka.NopPublisher{}
	}
	return &Engine{
		repo:       repo,
		locator:    loc,
		publisher:  pub,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		outcomes:   outcomes,
		mismatches: mismatches,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Assign tries to give d a courier. It returns false, without error, when
// no courier is suitable or d is no longer PENDING. On success d is
// updated in place.
func (e *Engine) Assign(ctx context.Context, d *domain.Delivery) (bool, error) {
	if d == nil {
		panic("assignment: nil delivery")
	}
	if d.Status != domain.DeliveryPending {
		e.count(OutcomeSkipped)
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	nearby := e.nearby(ctx, d)

	var (
		assigned *domain.Delivery
		courier  *domain.Courier
	)
	err := e.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		locked, err := tx.GetForUpdate(ctx, d.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("delivery %d: %w", d.ID, apperr.NotFound)
		}
		if locked.Status != domain.DeliveryPending {
			*d = *locked
			return nil
		}

		candidates, err := e.candidates(ctx, tx, locked, nearby)
		if err != nil {
			return err
		}

		for _, r := range candidates {
			ok, err := tx.ReserveCourier(ctx, r.candidate.Courier.ID)
			if err != nil {
				return err
			}
			if !ok {
				e.count(OutcomeRaceLost)
				e.logger.Info("courier taken by concurrent assignment",
					logx.Int64("delivery_id", locked.ID),
					logx.Int64("courier_id", r.candidate.Courier.ID))
				continue
			}

			e.apply(locked, r)
			if err := tx.Save(ctx, locked); err != nil {
				return err
			}
			c := r.candidate.Courier
			c.Status = domain.StatusBusy
			assigned, courier = locked, &c
			return nil
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("assign delivery %d: %w", d.ID, err)
	}

	if assigned == nil {
		e.count(OutcomeUnmatched)
		e.logger.Info("no courier available, delivery stays pending",
			logx.Int64("delivery_id", d.ID),
			logx.Int64("order_id", d.OrderID))
		return false, nil
	}

	*d = *assigned
	e.count(OutcomeAssigned)
	e.logger.Info("courier assigned",
		logx.String("event", "courier_assigned"),
		logx.Int64("delivery_id", d.ID),
		logx.Int64("order_id", d.OrderID),
		logx.Int64("courier_id", courier.ID),
		logx.Int("eta_minutes", *d.EstimatedTimeMinutes),
	)

	e.publisher.Publish(ctx, e.cfg.Topic, events.DeliveryAssigned{
		Meta:                 events.NewMeta(events.TypeDeliveryAssigned, e.now()),
		DeliveryID:           d.ID,
		OrderID:              d.OrderID,
		CourierID:            courier.ID,
		UserID:               d.UserID,
		EstimatedTimeMinutes: *d.EstimatedTimeMinutes,
	})
	return true, nil
}

// nearby asks the location store. An outage degrades to the fallback scan.
func (e *Engine) nearby(ctx context.Context, d *domain.Delivery) []nearbyHit {
	if e.locator == nil {
		return nil
	}
	found, err := e.locator.Nearby(ctx, d.Pickup, e.cfg.RadiusKm, e.cfg.MaxCandidates)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			e.logger.Warn("location store query failed, using fallback scan",
				logx.Int64("delivery_id", d.ID), logx.Err(err))
		}
		return nil
	}
	out := make([]nearbyHit, 0, len(found))
	for _, n := range found {
		out = append(out, nearbyHit{id: n.CourierID, distanceKm: n.DistanceKm, point: n.Point})
	}
	return out
}

type nearbyHit struct {
	id         int64
	distanceKm float64
	point      domain.Point
}

func (e *Engine) candidates(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery, nearby []nearbyHit) ([]ranked, error) {
	if len(nearby) == 0 {
		return e.fallback(ctx, tx, d)
	}

	ids := make([]int64, 0, len(nearby))
	hits := make(map[int64]nearbyHit, len(nearby))
	for _, n := range nearby {
		ids = append(ids, n.id)
		hits[n.id] = n
	}
	cands, err := tx.CandidatesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ranked, 0, len(cands))
	for _, c := range cands {
		hit, ok := hits[c.Courier.ID]
		if !ok || !Eligible(c, true) {
			continue
		}
		out = append(out, ranked{
			candidate:  c,
			location:   hit.point,
			distanceKm: hit.distanceKm,
			score:      Score(hit.distanceKm, c.Courier.AverageRating, c.Courier.TotalDeliveries),
		})
	}
	rankByScore(out)
	return out, nil
}

// fallback keeps the rating order of the scan; no live distance is known.
func (e *Engine) fallback(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery) ([]ranked, error) {
	cands, err := tx.AvailableByRating(ctx, e.cfg.FallbackLimit)
	if err != nil {
		return nil, err
	}
	out := make([]ranked, 0, len(cands))
	for _, c := range cands {
		if !Eligible(c, c.Courier.Location != nil) {
			continue
		}
		out = append(out, ranked{
			candidate:  c,
			location:   *c.Courier.Location,
			distanceKm: -1,
		})
	}
	if len(out) > 0 {
		e.logger.Info("assignment using fallback scan",
			logx.Int64("delivery_id", d.ID), logx.Int("candidates", len(out)))
	}
	return out, nil
}

func (e *Engine) apply(d *domain.Delivery, r ranked) {
	km := domain.HaversineKm(r.location, d.Pickup)
	if r.distanceKm >= 0 && !distancesAgree(km, r.distanceKm) {
		if e.mismatches != nil {
			e.mismatches.Inc()
		}
		e.logger.Error("store distance disagrees with haversine",
			logx.Int64("delivery_id", d.ID),
			logx.Int64("courier_id", r.candidate.Courier.ID),
			logx.Float64("store_km", r.distanceKm),
			logx.Float64("haversine_km", km))
	}

	now := e.now()
	courierID := r.candidate.Courier.ID
	meters := int(math.Round(km * 1000))
	eta := EstimateMinutes(km)

	d.CourierID = &courierID
	d.Status = domain.DeliveryAssigned
	d.EstimatedDistanceMeters = &meters
	d.EstimatedTimeMinutes = &eta
	d.AssignedAt = &now
	d.UpdatedAt = now
}

// distancesAgree allows for the store's geohash quantisation.
func distancesAgree(haversineKm, storeKm float64) bool {
	return math.Abs(haversineKm-storeKm) <= haversineKm*0.005+0.005
}

func (e *Engine) count(outcome string) {
	if e.outcomes != nil {
		e.outcomes.WithLabelValues(outcome).Inc()
	}
}
