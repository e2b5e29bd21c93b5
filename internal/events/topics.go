package events

import "strings"

// Topics names the topic each event type is published on. It is loaded
// from configuration and handed to producers and consumers explicitly.
//
// Event types of one stream share a topic and are keyed by order id, so a
// single partition carries an order's events in emission order. Consumers
// dispatch on the envelope's event type.
type Topics struct {
	OrderCreated       string
	OrderStatusChanged string
	PaymentProcessed   string
	PaymentFailed      string
	DeliveryAssigned   string
	DeliveryPickedUp   string
	DeliveryDelivered  string

	DeadLetterSuffix string
}

// Stream topic names.
const (
	OrderStream    = "order.events"
	PaymentStream  = "payment.events"
	DeliveryStream = "delivery.events"
)

// StreamTopics binds every event type of a stream to that stream's topic.
func StreamTopics(orders, payments, deliveries, dlqSuffix string) Topics {
	return Topics{
		OrderCreated:       orders,
		OrderStatusChanged: orders,
		PaymentProcessed:   payments,
		PaymentFailed:      payments,
		DeliveryAssigned:   deliveries,
		DeliveryPickedUp:   deliveries,
		DeliveryDelivered:  deliveries,
		DeadLetterSuffix:   dlqSuffix,
	}
}

// DefaultTopics returns the production topic names.
func DefaultTopics() Topics {
	return StreamTopics(OrderStream, PaymentStream, DeliveryStream, ".dlq")
}

// DeadLetter returns the dead-letter topic for topic.
func (t Topics) DeadLetter(topic string) string {
	suffix := t.DeadLetterSuffix
	if suffix == "" {
		suffix = ".dlq"
	}
	if strings.HasSuffix(topic, suffix) {
		return topic
	}
	return topic + suffix
}

// ConsumerGroups holds the consumer group id of each service.
type ConsumerGroups struct {
	Order        string
	Delivery     string
	Notification string
}

// DefaultConsumerGroups returns the production group ids.
func DefaultConsumerGroups() ConsumerGroups {
	return ConsumerGroups{
		Order:        "order-service-group",
		Delivery:     "delivery-service-group",
		Notification: "notification-service-group",
	}
}
