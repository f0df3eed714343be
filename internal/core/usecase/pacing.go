package usecase

import (
	"context"
	"time"
)

// sleepFunc - пауза между запросами; возвращает ошибку контекста при отмене
type sleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext ждет d или отмены ctx, что наступит раньше
func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
