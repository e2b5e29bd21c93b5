package orders

import (
	"food-delivery/internal/events"
	"food-delivery/internal/transport/kafka"
)

type action struct {
	topic  string
	handle kafka.HandleFunc
}

type actionFactory struct {
	byType map[string]action
}

func newActionFactory(topics events.Topics, onPaid, onPaymentFailed, onAssigned, onPickedUp, onDelivered kafka.HandleFunc) *actionFactory {
	return &actionFactory{
		byType: map[string]action{
			events.TypePaymentProcessed:  {topics.PaymentProcessed, onPaid},
			events.TypePaymentFailed:     {topics.PaymentFailed, onPaymentFailed},
			events.TypeDeliveryAssigned:  {topics.DeliveryAssigned, onAssigned},
			events.TypeDeliveryPickedUp:  {topics.DeliveryPickedUp, onPickedUp},
			events.TypeDeliveryDelivered: {topics.DeliveryDelivered, onDelivered},
		},
	}
}

func (f *actionFactory) get(eventType string) (kafka.HandleFunc, bool) {
	a, ok := f.byType[eventType]
	return a.handle, ok
}

func (f *actionFactory) routes() kafka.Routes {
	rs := make([]kafka.Route, 0, len(f.byType))
	for eventType, a := range f.byType {
		rs = append(rs, kafka.Route{Topic: a.topic, EventType: eventType, Handle: a.handle})
	}
	return kafka.NewRoutes(rs...)
}
