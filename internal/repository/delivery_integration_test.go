//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"food-delivery/internal/domain"
	"food-delivery/internal/ports/deliverytx"
	"food-delivery/internal/repository"
)

type DeliveryRepositorySuite struct {
	suite.Suite
	deliveries *repository.DeliveryRepo
	couriers   *repository.CourierRepo
	seq        int
}

func (s *DeliveryRepositorySuite) SetupSuite() {
	s.Require().NotNil(tcPool, "tcPool must be initialized in TestMain")
	s.deliveries = repository.NewDeliveryRepo(tcPool)
	s.couriers = repository.NewCourierRepo(tcPool)
}

func (s *DeliveryRepositorySuite) SetupTest() { truncateAll(s.T()) }

func (s *DeliveryRepositorySuite) courier(status domain.CourierStatus, rating float64) int64 {
	ctx := context.Background()
	s.seq++
	id, err := s.couriers.Create(ctx, &domain.Courier{
		Name:          "C",
		Phone:         fmt.Sprintf("+7%010d", s.seq),
		Status:        status,
		TransportType: domain.TransportTypeScooter,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.couriers.UpdateLocation(ctx, id, domain.Point{Lat: 40.71, Lon: -74.0}, time.Now()))
	_, err = tcPool.Exec(ctx, `UPDATE couriers SET average_rating = $2 WHERE id = $1`, id, rating)
	s.Require().NoError(err)
	return id
}

func (s *DeliveryRepositorySuite) pending(orderID int64) *domain.Delivery {
	d, created, err := s.deliveries.CreatePending(context.Background(),
		domain.NewPendingDelivery(orderID, 7, domain.Point{Lat: 40.7128, Lon: -74.006}, nil, time.Now()))
	s.Require().NoError(err)
	s.Require().True(created)
	return d
}

func (s *DeliveryRepositorySuite) TestCreatePending_Idempotent() {
	ctx := context.Background()
	first := s.pending(100)

	again, created, err := s.deliveries.CreatePending(ctx,
		domain.NewPendingDelivery(100, 7, domain.Point{Lat: 1, Lon: 1}, nil, time.Now()))
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.ID, again.ID)
	s.InDelta(40.7128, again.Pickup.Lat, 1e-9)

	got, err := s.deliveries.GetByOrder(ctx, 100)
	s.Require().NoError(err)
	s.Equal(domain.DeliveryPending, got.Status)
	s.Nil(got.Dropoff)
}

func (s *DeliveryRepositorySuite) TestListPendingIDs() {
	a := s.pending(1)
	b := s.pending(2)

	c := s.pending(3)

	ids, err := s.deliveries.ListPendingIDs(context.Background(), 0, 2)
	s.Require().NoError(err)
	s.Equal([]int64{a.ID, b.ID}, ids)

	ids, err = s.deliveries.ListPendingIDs(context.Background(), b.ID, 2)
	s.Require().NoError(err)
	s.Equal([]int64{c.ID}, ids)
}

func (s *DeliveryRepositorySuite) TestReserveCourier_OnlyOnce() {
	ctx := context.Background()
	cid := s.courier(domain.StatusAvailable, 4.5)

	var first, second bool
	s.Require().NoError(s.deliveries.WithTx(ctx, func(tx deliverytx.Repository) error {
		var err error
		first, err = tx.ReserveCourier(ctx, cid)
		return err
	}))
	s.Require().NoError(s.deliveries.WithTx(ctx, func(tx deliverytx.Repository) error {
		var err error
		second, err = tx.ReserveCourier(ctx, cid)
		return err
	}))
	s.True(first)
	s.False(second)

	c, err := s.couriers.Get(ctx, cid)
	s.Require().NoError(err)
	s.Equal(domain.StatusBusy, c.Status)
}

func (s *DeliveryRepositorySuite) TestReserveCourier_RefusesCourierWithActiveDelivery() {
	ctx := context.Background()
	cid := s.courier(domain.StatusAvailable, 4.5)
	d := s.pending(1)

	s.Require().NoError(s.deliveries.WithTx(ctx, func(tx deliverytx.Repository) error {
		d.CourierID = &cid
		d.Status = domain.DeliveryInTransit
		return tx.Save(ctx, d)
	}))

	s.Require().NoError(s.deliveries.WithTx(ctx, func(tx deliverytx.Repository) error {
		ok, err := tx.ReserveCourier(ctx, cid)
		s.False(ok)

		cands, cerr := tx.CandidatesByIDs(ctx, []int64{cid})
		s.Require().NoError(cerr)
		s.Require().Len(cands, 1)
		s.True(cands[0].HasActiveDelivery)
		return err
	}))
}

func (s *DeliveryRepositorySuite) TestAvailableByRating() {
	ctx := context.Background()
	low := s.courier(domain.StatusAvailable, 3.1)
	high := s.courier(domain.StatusAvailable, 4.9)
	s.courier(domain.StatusOffline, 5.0)
	tie := s.courier(domain.StatusAvailable, 4.9)

	s.Require().NoError(s.deliveries.WithTx(ctx, func(tx deliverytx.Repository) error {
		cands, err := tx.AvailableByRating(ctx, 10)
		s.Require().NoError(err)
		s.Require().Len(cands, 3)
		s.Equal([]int64{high, tie, low}, []int64{cands[0].Courier.ID, cands[1].Courier.ID, cands[2].Courier.ID})
		return nil
	}))
}

func (s *DeliveryRepositorySuite) TestSaveAndCourierCounters() {
	ctx := context.Background()
	cid := s.courier(domain.StatusBusy, 0)
	d := s.pending(5)
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.Require().NoError(s.deliveries.WithTx(ctx, func(tx deliverytx.Repository) error {
		locked, err := tx.GetForUpdate(ctx, d.ID)
		s.Require().NoError(err)
		dist, eta := 1200, 14
		locked.CourierID = &cid
		locked.Status = domain.DeliveryAssigned
		locked.EstimatedDistanceMeters = &dist
		locked.EstimatedTimeMinutes = &eta
		locked.AssignedAt = &now
		locked.UpdatedAt = now
		if err := tx.Save(ctx, locked); err != nil {
			return err
		}

		c, err := tx.GetCourierForUpdate(ctx, cid)
		s.Require().NoError(err)
		c.Release()
		c.TotalDeliveries++
		c.AddRating(5)
		return tx.SaveCourier(ctx, c)
	}))

	got, err := s.deliveries.Get(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(domain.DeliveryAssigned, got.Status)
	s.Equal(cid, *got.CourierID)
	s.Equal(14, *got.EstimatedTimeMinutes)

	c, err := s.couriers.Get(ctx, cid)
	s.Require().NoError(err)
	s.Equal(domain.StatusAvailable, c.Status)
	s.Equal(1, c.TotalDeliveries)
	s.InDelta(5.0, c.AverageRating, 1e-9)
}

func (s *DeliveryRepositorySuite) TestUpdateStatus_AvailableWithActiveDeliveryStaysBusy() {
	ctx := context.Background()
	cid := s.courier(domain.StatusOffline, 4)
	d := s.pending(9)
	s.Require().NoError(s.deliveries.WithTx(ctx, func(tx deliverytx.Repository) error {
		d.CourierID = &cid
		d.Status = domain.DeliveryAssigned
		return tx.Save(ctx, d)
	}))

	stored, err := s.couriers.UpdateStatus(ctx, cid, domain.StatusAvailable)
	s.Require().NoError(err)
	s.Equal(domain.StatusBusy, stored)
}

func (s *DeliveryRepositorySuite) TestWithTx_RollsBackOnError() {
	ctx := context.Background()
	cid := s.courier(domain.StatusAvailable, 4)

	err := s.deliveries.WithTx(ctx, func(tx deliverytx.Repository) error {
		_, _ = tx.ReserveCourier(ctx, cid)
		return fmt.Errorf("boom")
	})
	s.Require().Error(err)

	c, err := s.couriers.Get(ctx, cid)
	s.Require().NoError(err)
	s.Equal(domain.StatusAvailable, c.Status)
}

func TestDeliveryRepositorySuite(t *testing.T) {
	suite.Run(t, new(DeliveryRepositorySuite))
}
