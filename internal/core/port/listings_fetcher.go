package port

import (
	"context"
	"land-crawler-service/internal/core/domain"
)

// ListingsFetcherPort - источник объявлений на карте.
// Ошибки оборачивают domain.ErrUpstreamRequest или domain.ErrUpstreamParse.
type ListingsFetcherPort interface {
	FetchPage(ctx context.Context, query domain.ListingsQuery) (*domain.ListingsPage, error)
}
