package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"food-delivery/internal/domain"
	"food-delivery/internal/events"
	"food-delivery/internal/logx"
	"food-delivery/internal/service/delivery"
	"food-delivery/internal/testutil/memrepo"
	"food-delivery/internal/transport/kafka"
)

type noMatch struct{}

func (noMatch) Assign(context.Context, *domain.Delivery) (bool, error) { return false, nil }

func TestDeliveryRoutes_OrderStreamOnOneTopic(t *testing.T) {
	t.Parallel()

	topics := events.DefaultTopics()
	repo := memrepo.NewDeliveries()
	svc := delivery.NewService(repo, noMatch{}, nil, topics, time.Second, logx.Nop())

	routes := deliveryRoutes(svc, topics)
	require.Len(t, routes, 1)
	handle, ok := routes[topics.OrderCreated]
	require.True(t, ok)

	send := func(ev events.Event) {
		b, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, handle(context.Background(), kafka.Message{
			Topic: topics.OrderCreated, Key: ev.Key(), Value: b, Meta: ev.Header(),
		}))
	}
	send(events.OrderCreated{
		Meta:    events.NewMeta(events.TypeOrderCreated, time.Now()),
		OrderID: 77, UserID: 7,
		PickupLat: events.Float(40.7128), PickupLon: events.Float(-74.0060),
	})
	send(events.OrderStatusChanged{
		Meta:    events.NewMeta(events.TypeOrderStatusChanged, time.Now()),
		OrderID: 77, UserID: 7, OldStatus: "CREATED", NewStatus: "CANCELLED",
	})

	d, err := repo.GetByOrder(context.Background(), 77)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Equal(t, domain.DeliveryCancelled, d.Status)
}
