package port

import (
	"context"
	"land-crawler-service/internal/core/domain"

	"github.com/google/uuid"
)

type TaskReporterPort interface {
	ReportResults(ctx context.Context, taskID uuid.UUID, outcome *domain.CrawlOutcome) error
}
