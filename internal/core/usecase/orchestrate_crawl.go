package usecase

import (
	"context"
	"fmt"
	"time"

	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/core/domain"
	"land-crawler-service/internal/core/port"
	usecases_port "land-crawler-service/internal/core/port/usecases"

	"github.com/google/uuid"
)

// OrchestrateCrawlUseCase - точка входа одного запуска обхода.
// Владеет множеством уже отправленных id на все время запуска и обходит секторы строго по очереди.
type OrchestrateCrawlUseCase struct {
	fetchSectorUC usecases_port.FetchSectorPort
	settings      domain.CrawlSettings
	sleep         sleepFunc
	now           func() time.Time
}

// NewOrchestrateCrawlUseCase создает новый экземпляр OrchestrateCrawlUseCase
func NewOrchestrateCrawlUseCase(fetchSectorUC usecases_port.FetchSectorPort, settings domain.CrawlSettings) *OrchestrateCrawlUseCase {
	return &OrchestrateCrawlUseCase{
		fetchSectorUC: fetchSectorUC,
		settings:      settings,
		sleep:         sleepContext,
		now:           time.Now,
	}
}

// Execute выполняет один ограниченный обход. Некорректный режим или прямоугольник
// возвращаются как ошибка без обращений к внешнему API. При отмене ctx возвращается
// частичный итог с Cancelled=true и ошибкой контекста.
func (uc *OrchestrateCrawlUseCase) Execute(ctx context.Context, req domain.CrawlRequest) (*domain.CrawlOutcome, error) {
	mode, err := domain.ParseCrawlMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	box := uc.defaultBox(mode)
	if req.Box != nil {
		box = *req.Box
	}
	if err := box.Validate(); err != nil {
		return nil, err
	}

	sectors, err := uc.planSectors(mode, box)
	if err != nil {
		return nil, err
	}

	outcome := &domain.CrawlOutcome{
		RunID:          uuid.New(),
		Mode:           mode,
		Box:            box,
		SectorsPlanned: len(sectors),
		FailedRecords:  []domain.FailedRecord{},
		FailedRequests: []domain.FailedRequest{},
		StartedAt:      uc.now().UTC(),
	}

	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "OrchestrateCrawl",
		"run_id":   outcome.RunID.String(),
		"mode":     string(mode),
	})
	ucLogger.Info("Starting crawl", port.Fields{"bbox": box.String(), "sectors": len(sectors)})

	seen := domain.NewSeenSet()

	var runErr error
	for i, sector := range sectors {
		if i > 0 {
			if runErr = uc.sleep(ctx, uc.settings.SectorDelay); runErr != nil {
				break
			}
		}

		sectorLogger := ucLogger.WithFields(port.Fields{
			"sector_row":     sector.Row,
			"sector_col":     sector.Col,
			"sector_geohash": sector.Geohash,
		})
		sectorCtx := contextkeys.ContextWithLogger(ctx, sectorLogger)

		stats, sectorErr := uc.fetchSectorUC.Execute(sectorCtx, sector, seen)
		outcome.Add(stats)
		if sectorErr != nil {
			runErr = sectorErr
			break
		}
	}

	outcome.FinishedAt = uc.now().UTC()

	summary := port.Fields{
		"sectors_visited": outcome.SectorsVisited,
		"requests_made":   outcome.RequestsMade,
		"attempted":       outcome.Attempted,
		"accepted":        outcome.Accepted,
		"duplicates":      outcome.Duplicates,
		"failed_records":  len(outcome.FailedRecords),
		"failed_requests": len(outcome.FailedRequests),
		"duration":        outcome.FinishedAt.Sub(outcome.StartedAt).String(),
	}

	if runErr != nil {
		outcome.Cancelled = true
		ucLogger.Warn("Crawl cancelled", summary)
		return outcome, fmt.Errorf("crawl %s cancelled: %w", outcome.RunID, runErr)
	}

	if outcome.Success() {
		ucLogger.Info("Crawl finished", summary)
	} else {
		ucLogger.Warn("Crawl finished with failures", summary)
	}
	return outcome, nil
}

func (uc *OrchestrateCrawlUseCase) defaultBox(mode domain.CrawlMode) domain.BoundingBox {
	if mode == domain.CrawlModeSingle {
		return uc.settings.DefaultSingleBox
	}
	return uc.settings.DefaultRegion
}

func (uc *OrchestrateCrawlUseCase) planSectors(mode domain.CrawlMode, box domain.BoundingBox) ([]domain.Sector, error) {
	if mode == domain.CrawlModeSingle {
		return []domain.Sector{domain.NewSector(box, 0, 0)}, nil
	}
	return domain.Partition(box, uc.settings.GridRows, uc.settings.GridCols)
}
