package port

import (
	"context"
	"land-crawler-service/internal/core/domain"
)

// CrawledPropertySinkPort - хранилище нормализованных объявлений.
// Повторный externalId не должен портить состояние: сохранение только создает записи.
type CrawledPropertySinkPort interface {
	CreateCrawledProperty(ctx context.Context, property domain.CrawledProperty) error
}
