package usecase

import (
	"context"
	"errors"
	"fmt"

	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/core/domain"
	"land-crawler-service/internal/core/port"
)

// FetchSectorUseCase обходит один сектор по всем группам категорий
// с постраничными запросами, нормализует записи и отправляет новые в хранилище
type FetchSectorUseCase struct {
	fetcher    port.ListingsFetcherPort
	normalizer port.ListingNormalizerPort
	sink       port.CrawledPropertySinkPort
	settings   domain.CrawlSettings
	sleep      sleepFunc
}

// NewFetchSectorUseCase создает новый экземпляр FetchSectorUseCase
func NewFetchSectorUseCase(
	fetcher port.ListingsFetcherPort,
	normalizer port.ListingNormalizerPort,
	sink port.CrawledPropertySinkPort,
	settings domain.CrawlSettings,
) *FetchSectorUseCase {
	return &FetchSectorUseCase{
		fetcher:    fetcher,
		normalizer: normalizer,
		sink:       sink,
		settings:   settings,
		sleep:      sleepContext,
	}
}

// Execute обходит группы категорий сектора по порядку. Ошибка возвращается только
// при отмене ctx, вместе с уже накопленной статистикой. Сбой запроса прерывает
// пагинацию одной группы и попадает в stats.FailedRequests.
func (uc *FetchSectorUseCase) Execute(ctx context.Context, sector domain.Sector, seen *domain.SeenSet) (domain.SectorStats, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "FetchSector",
	})

	var stats domain.SectorStats

	for i, group := range uc.settings.Groups {
		if i > 0 {
			if err := uc.sleep(ctx, uc.settings.GroupDelay); err != nil {
				return stats, err
			}
		}

		groupLogger := ucLogger.WithFields(port.Fields{"category_group": group.Label})
		if err := uc.fetchGroup(contextkeys.ContextWithLogger(ctx, groupLogger), sector, group, seen, &stats); err != nil {
			return stats, err
		}
	}

	ucLogger.Info("Sector finished", port.Fields{
		"requests_made":   stats.RequestsMade,
		"attempted":       stats.Attempted,
		"accepted":        stats.Accepted,
		"duplicates":      stats.Duplicates,
		"failed_records":  len(stats.FailedRecords),
		"failed_requests": len(stats.FailedRequests),
	})

	return stats, nil
}

// fetchGroup листает страницы одной группы, пока не кончатся данные или не сработает лимит страниц
func (uc *FetchSectorUseCase) fetchGroup(ctx context.Context, sector domain.Sector, group domain.CategoryGroup, seen *domain.SeenSet, stats *domain.SectorStats) error {
	groupLogger := contextkeys.LoggerFromContext(ctx)

	for page := 1; page <= uc.settings.PageCap; page++ {
		if page > 1 {
			if err := uc.sleep(ctx, uc.settings.PageDelay); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pageLogger := groupLogger.WithFields(port.Fields{"page": page})
		pageLogger.Debug("Fetching page", nil)

		stats.RequestsMade++
		result, err := uc.fetcher.FetchPage(ctx, domain.ListingsQuery{
			Box:      sector.Box,
			Group:    group,
			Page:     page,
			Zoom:     uc.settings.Zoom,
			SortKey:  uc.settings.SortKey,
			DealType: uc.settings.DealType,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			kind := domain.FailureKindRequest
			if errors.Is(err, domain.ErrUpstreamParse) {
				kind = domain.FailureKindParse
			}
			pageLogger.Error("Page request failed, skipping rest of the group", err, port.Fields{"kind": kind})
			stats.FailedRequests = append(stats.FailedRequests, domain.FailedRequest{
				SectorRow: sector.Row,
				SectorCol: sector.Col,
				Group:     group.Label,
				Page:      page,
				Kind:      kind,
				Err:       err.Error(),
			})
			return nil
		}

		for _, raw := range result.Listings {
			if err := uc.processListing(ctx, raw, seen, stats); err != nil {
				return err
			}
		}

		pageLogger.Debug("Page processed", port.Fields{"records": len(result.Listings), "more": result.More})

		if !result.More || len(result.Listings) == 0 {
			return nil
		}
	}

	groupLogger.Debug("Page cap reached", port.Fields{"page_cap": uc.settings.PageCap})
	return nil
}

// processListing нормализует запись и передает ее в хранилище, если id еще не встречался.
// id помечается до вызова хранилища, поэтому запись с ошибкой сохранения повторно в этом запуске не отправляется.
func (uc *FetchSectorUseCase) processListing(ctx context.Context, raw domain.RawListing, seen *domain.SeenSet, stats *domain.SectorStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stats.Attempted++

	property := uc.normalizer.Normalize(raw)
	if property.ExternalID == "" {
		stats.FailedRecords = append(stats.FailedRecords, domain.FailedRecord{
			Err: fmt.Errorf("%w: record has no external id", domain.ErrPersistence).Error(),
		})
		return nil
	}

	if seen.Seen(property.ExternalID) {
		stats.Duplicates++
		return nil
	}
	seen.Mark(property.ExternalID)

	if err := uc.sink.CreateCrawledProperty(ctx, property); err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to store crawled property, skipping", err, port.Fields{"external_id": property.ExternalID})
		stats.FailedRecords = append(stats.FailedRecords, domain.FailedRecord{
			ExternalID: property.ExternalID,
			Err:        fmt.Errorf("%w: %v", domain.ErrPersistence, err).Error(),
		})
		return nil
	}

	stats.Accepted++
	return nil
}
