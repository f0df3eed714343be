package usecases_port

import (
	"context"
	"land-crawler-service/internal/core/domain"
)

type OrchestrateCrawlPort interface {
	Execute(ctx context.Context, req domain.CrawlRequest) (*domain.CrawlOutcome, error)
}
