package usecases_port

import (
	"context"
	"land-crawler-service/internal/core/domain"
)

type FetchSectorPort interface {
	Execute(ctx context.Context, sector domain.Sector, seen *domain.SeenSet) (domain.SectorStats, error)
}
