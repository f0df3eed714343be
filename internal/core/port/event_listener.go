package port

import "context"

// EventListenerPort определяет контракт для компонента, который слушает
// внешние события (сообщения из очереди) и запускает обход
type EventListenerPort interface {
	// Start блокируется до отмены ctx или потери соединения
	Start(ctx context.Context) error

	// Close останавливает слушателя, дожидаясь завершения активных задач
	Close() error
}
