package rabbitmq

import (
	"context"
	"time"

	"land-crawler-service/internal/constants"
	"land-crawler-service/internal/contextkeys"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher - часть rabbitmq_producer.Publisher, которой пользуются адаптеры
type publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// newEventMessage собирает persistent JSON-сообщение с типом события и trace_id из контекста
func newEventMessage(ctx context.Context, eventType string, body []byte) amqp.Publishing {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"event-type":    eventType,
			"event-version": constants.EventVersionV1,
		},
	}

	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}
	return msg
}
