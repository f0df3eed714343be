package port

import "land-crawler-service/internal/core/domain"

// ListingNormalizerPort переводит запись внешнего API в CrawledProperty.
// Не возвращает ошибок: некорректное поле становится nil.
type ListingNormalizerPort interface {
	Normalize(raw domain.RawListing) domain.CrawledProperty
}
