package rabbitmq_consumer

import "context"

// Consumer - общий контракт для всех видов потребителей
type Consumer interface {
	StartConsuming(ctx context.Context) error
	Close() error
}
