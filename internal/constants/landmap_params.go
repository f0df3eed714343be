package constants

import (
	"time"

	"land-crawler-service/internal/core/domain"
)

// Коды типов недвижимости внешнего API, сгруппированные для раздельных проходов
const (
	ResidentialFilterCode    = "APT:OPST:ABYG:OBYG:VL:DDDGG:JWJT:SGJT:HOJT"
	CommercialFilterCode     = "SG:SMS:GM:GJCG"
	LandIndustrialFilterCode = "TJ:APTHGJ:GG"
)

// DealTypeAll - продажа, аренда, помесячная аренда, краткосрочная аренда
const DealTypeAll = "A1:B1:B2:B3"

const (
	DefaultZoom    = 15
	SortByRank     = "rank"
	DefaultPageCap = 3
)

const (
	DefaultPageDelay   = 300 * time.Millisecond
	DefaultGroupDelay  = 500 * time.Millisecond
	DefaultSectorDelay = 1000 * time.Millisecond
)

const (
	DefaultGridRows = 4
	DefaultGridCols = 4
)

const (
	DefaultBaseURL   = "https://m.land.naver.com/cluster/ajax/articleList"
	DefaultReferer   = "https://m.land.naver.com/"
	DefaultImageHost = "https://landthumb-phinf.pstatic.net"
)

// DisplayNamePlaceholder подставляется, если у объявления нет ни описания, ни названия
const DisplayNamePlaceholder = "Untitled"

// DefaultSingleBox - небольшой прямоугольник для ручных проверок
var DefaultSingleBox = domain.BoundingBox{MinLat: 37.55, MinLon: 126.96, MaxLat: 37.58, MaxLon: 127.00}

// DefaultRegion - полный регион для обхода сеткой
var DefaultRegion = domain.BoundingBox{MinLat: 37.4133, MinLon: 126.7341, MaxLat: 37.7151, MaxLon: 127.2693}

// CategoryGroups возвращает группы категорий в порядке обхода
func CategoryGroups() []domain.CategoryGroup {
	return []domain.CategoryGroup{
		{Label: "residential", FilterCode: ResidentialFilterCode},
		{Label: "commercial", FilterCode: CommercialFilterCode},
		{Label: "land_industrial", FilterCode: LandIndustrialFilterCode},
	}
}

// DefaultCrawlSettings возвращает параметры обхода по умолчанию
func DefaultCrawlSettings() domain.CrawlSettings {
	return domain.CrawlSettings{
		PageCap:          DefaultPageCap,
		PageDelay:        DefaultPageDelay,
		GroupDelay:       DefaultGroupDelay,
		SectorDelay:      DefaultSectorDelay,
		GridRows:         DefaultGridRows,
		GridCols:         DefaultGridCols,
		Zoom:             DefaultZoom,
		SortKey:          SortByRank,
		DealType:         DealTypeAll,
		Groups:           CategoryGroups(),
		DefaultSingleBox: DefaultSingleBox,
		DefaultRegion:    DefaultRegion,
	}
}
