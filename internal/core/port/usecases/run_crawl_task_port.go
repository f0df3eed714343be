package usecases_port

import (
	"context"
	"land-crawler-service/internal/core/domain"

	"github.com/google/uuid"
)

type RunCrawlTaskPort interface {
	Execute(ctx context.Context, taskID uuid.UUID, req domain.CrawlRequest) error
}
