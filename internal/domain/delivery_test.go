package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"food-delivery/internal/apperr"
)

func TestDelivery_Lifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	d := NewPendingDelivery(1, 2, Point{Lat: 1, Lon: 1}, nil, now)

	require.ErrorIs(t, d.PickUp(now), apperr.InvalidState)
	d.Status = DeliveryAssigned

	require.NoError(t, d.PickUp(now.Add(time.Minute)))
	require.Equal(t, DeliveryInTransit, d.Status)
	require.NotNil(t, d.PickedUpAt)

	require.ErrorIs(t, d.Rate(5, now), apperr.InvalidState)
	require.NoError(t, d.Deliver(now.Add(20*time.Minute)))
	require.Equal(t, DeliveryDelivered, d.Status)

	require.ErrorIs(t, d.Cancel("late", now), apperr.InvalidState)
	require.ErrorIs(t, d.Rate(6, now), apperr.Invalid)
	require.NoError(t, d.Rate(4, now))
	require.ErrorIs(t, d.Rate(5, now), apperr.Conflict)
	require.Equal(t, 4, *d.Rating)
}

func TestDelivery_Cancel(t *testing.T) {
	t.Parallel()

	for _, st := range []DeliveryStatus{DeliveryPending, DeliveryAssigned, DeliveryInTransit} {
		d := &Delivery{Status: st}
		require.NoError(t, d.Cancel("customer", time.Now()), st)
		require.Equal(t, DeliveryCancelled, d.Status)
		require.Equal(t, "customer", d.CancelReason)
	}
	d := &Delivery{Status: DeliveryCancelled}
	require.ErrorIs(t, d.Cancel("again", time.Now()), apperr.InvalidState)
}

func TestDeliveryStatus_ActiveTerminal(t *testing.T) {
	t.Parallel()

	require.True(t, DeliveryAssigned.Active())
	require.True(t, DeliveryInTransit.Active())
	require.False(t, DeliveryPending.Active())
	require.True(t, DeliveryDelivered.Terminal())
	require.True(t, DeliveryCancelled.Terminal())
	require.False(t, DeliveryInTransit.Terminal())
}
