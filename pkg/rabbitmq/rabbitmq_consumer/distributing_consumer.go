package rabbitmq_consumer

import (
	"context"
	"fmt"
	"time"

	"land-crawler-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler обрабатывает одно сообщение. ack/nack/ретраи решает пакет:
// nil - ack, ошибка - ретрай или финальная DLQ.
// ctx отменяется при остановке потребителя, чтобы долгие задачи могли прерваться.
type MessageHandler func(ctx context.Context, delivery amqp.Delivery) error

// DistributingConsumer запускает обработчик в отдельной горутине на каждое сообщение.
// Параллелизм ограничивается PrefetchCount.
type DistributingConsumer struct {
	baseConsumer *baseConsumer
	handler      MessageHandler
}

// NewDistributingConsumer создает нового потребителя
func NewDistributingConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*DistributingConsumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("distributing Consumer: message handler is required")
	}

	bc, err := newBaseConsumer(cfg, connManager)
	if err != nil {
		return nil, fmt.Errorf("distributing Consumer: %w", err)
	}

	return &DistributingConsumer{
		baseConsumer: bc,
		handler:      handler,
	}, nil
}

// StartConsuming блокируется до отмены ctx или закрытия соединения
func (c *DistributingConsumer) StartConsuming(ctx context.Context) error {
	bc := c.baseConsumer
	if bc.channel == nil || bc.connection == nil || bc.connection.IsClosed() {
		return fmt.Errorf("distributing Consumer: not connected")
	}

	msgs, err := bc.channel.Consume(
		bc.actualQueueName,
		bc.config.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("distributing Consumer %s: failed to register a consumer on queue '%s': %w", bc.config.ConsumerTag, bc.actualQueueName, err)
	}

	bc.Logger.Info("[*] Waiting for messages on queue", "queue_name", bc.actualQueueName)

	go func() {
		for {
			// сначала неблокирующая проверка, чтобы не брать новую работу после остановки
			select {
			case <-ctx.Done():
				return
			default:
			}

			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					bc.Logger.Info("Deliveries channel closed by RabbitMQ. Exiting loop.", "consumer_tag", bc.config.ConsumerTag)
					return
				}
				bc.wg.Add(1)
				go func(delivery amqp.Delivery) {
					defer bc.wg.Done()
					c.process(ctx, delivery)
				}(d)
			}
		}
	}()

	notifyClose := bc.connection.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-ctx.Done():
		bc.Logger.Info("Context cancelled. Shutting down consumer.", "consumer_tag", bc.config.ConsumerTag)
		return nil
	case amqpErr := <-notifyClose:
		if amqpErr == nil {
			return fmt.Errorf("distributing Consumer %s: connection closed", bc.config.ConsumerTag)
		}
		bc.Logger.Error(amqpErr, "Connection closed for consumer.", "consumer_tag", bc.config.ConsumerTag)
		return amqpErr
	}
}

func (c *DistributingConsumer) process(ctx context.Context, delivery amqp.Delivery) {
	bc := c.baseConsumer
	logArgs := []interface{}{"consumer_tag", bc.config.ConsumerTag, "delivery_tag", delivery.DeliveryTag}

	bc.Logger.Debug("[->] Started processing message", logArgs...)

	processErr := c.handler(ctx, delivery)
	if processErr == nil {
		_ = delivery.Ack(false)
		bc.Logger.Debug("[+] Message Ack'd", logArgs...)
		return
	}

	bc.Logger.Error(processErr, "Handler error for message", logArgs...)

	switch retryDecision(bc.config, deathCount(delivery, bc.actualQueueName)) {
	case decisionDrop:
		_ = delivery.Nack(false, false)
	case decisionRetry:
		bc.Logger.Info("Retrying message", logArgs...)
		_ = delivery.Nack(false, false)
	case decisionDeadLetter:
		err := bc.finalDlxPublisher.Publish(context.Background(), bc.config.FinalDLQRoutingKey, amqp.Publishing{
			ContentType:  delivery.ContentType,
			Body:         delivery.Body,
			Headers:      delivery.Headers,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		})
		if err != nil {
			bc.Logger.Error(err, "Failed to publish to final DLX. Nacking to trigger retry loop again.", logArgs...)
			_ = delivery.Nack(false, false)
			return
		}
		bc.Logger.Warn("Max retries reached, message moved to final DLQ", logArgs...)
		_ = delivery.Ack(false)
	}
}

type failureDecision int

const (
	decisionDrop failureDecision = iota
	decisionRetry
	decisionDeadLetter
)

// retryDecision решает судьбу сообщения после ошибки обработчика
func retryDecision(cfg ConsumerConfig, deaths int64) failureDecision {
	if !cfg.EnableRetryMechanism {
		return decisionDrop
	}
	if deaths < int64(cfg.MaxRetries) {
		return decisionRetry
	}
	return decisionDeadLetter
}

// Close останавливает потребителя
func (c *DistributingConsumer) Close() error {
	c.baseConsumer.Logger.Info("Closing consumer")
	return c.baseConsumer.Close()
}
