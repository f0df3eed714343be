package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CrawlMode - режим обхода
type CrawlMode string

const (
	// CrawlModeSingle - весь прямоугольник обходится как один сектор
	CrawlModeSingle CrawlMode = "single"
	// CrawlModeGrid - прямоугольник сначала делится на сетку секторов
	CrawlModeGrid CrawlMode = "grid"
)

// ParseCrawlMode проверяет строковое значение режима
func ParseCrawlMode(s string) (CrawlMode, error) {
	switch CrawlMode(s) {
	case CrawlModeSingle, CrawlModeGrid:
		return CrawlMode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCrawlMode, s)
	}
}

// CrawlRequest - параметры одного запуска. Box == nil означает прямоугольник по умолчанию для режима.
type CrawlRequest struct {
	Mode CrawlMode
	Box  *BoundingBox
}

// CrawlSettings - настраиваемые параметры обхода
type CrawlSettings struct {
	PageCap     int
	PageDelay   time.Duration
	GroupDelay  time.Duration
	SectorDelay time.Duration
	GridRows    int
	GridCols    int

	Zoom     int
	SortKey  string
	DealType string

	// Упорядоченный список групп категорий; порядок обхода фиксирован
	Groups []CategoryGroup

	DefaultSingleBox BoundingBox
	DefaultRegion    BoundingBox
}

// ListingsQuery - один постраничный запрос к внешнему API
type ListingsQuery struct {
	Box      BoundingBox
	Group    CategoryGroup
	Page     int
	Zoom     int
	SortKey  string
	DealType string
}

// ListingsPage - одна страница ответа внешнего API
type ListingsPage struct {
	Listings []RawListing
	More     bool
}

// FailureKind классифицирует неудачный запрос
type FailureKind string

const (
	FailureKindRequest FailureKind = "request"
	FailureKindParse   FailureKind = "parse"
)

// FailedRequest - запрос (сектор, группа, страница), после которого пагинация группы прервана
type FailedRequest struct {
	SectorRow int         `json:"sector_row"`
	SectorCol int         `json:"sector_col"`
	Group     string      `json:"group"`
	Page      int         `json:"page"`
	Kind      FailureKind `json:"kind"`
	Err       string      `json:"error"`
}

// FailedRecord - запись, которую хранилище не приняло
type FailedRecord struct {
	ExternalID string `json:"external_id"`
	Err        string `json:"error"`
}

// SectorStats - счетчики обхода одного сектора
type SectorStats struct {
	RequestsMade   int
	Attempted      int
	Accepted       int
	Duplicates     int
	FailedRecords  []FailedRecord
	FailedRequests []FailedRequest
}

// CrawlOutcome - итог запуска
type CrawlOutcome struct {
	RunID          uuid.UUID       `json:"run_id"`
	Mode           CrawlMode       `json:"mode"`
	Box            BoundingBox     `json:"bbox"`
	SectorsPlanned int             `json:"sectors_planned"`
	SectorsVisited int             `json:"sectors_visited"`
	RequestsMade   int             `json:"requests_made"`
	Attempted      int             `json:"attempted"`
	Accepted       int             `json:"accepted"`
	Duplicates     int             `json:"duplicates"`
	FailedRecords  []FailedRecord  `json:"failed_records"`
	FailedRequests []FailedRequest `json:"failed_requests"`
	Cancelled      bool            `json:"cancelled"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
}

// Add добавляет счетчики сектора в итог запуска
func (o *CrawlOutcome) Add(s SectorStats) {
	o.SectorsVisited++
	o.RequestsMade += s.RequestsMade
	o.Attempted += s.Attempted
	o.Accepted += s.Accepted
	o.Duplicates += s.Duplicates
	o.FailedRecords = append(o.FailedRecords, s.FailedRecords...)
	o.FailedRequests = append(o.FailedRequests, s.FailedRequests...)
}

// Success - запуск завершен полностью и без единой ошибки
func (o *CrawlOutcome) Success() bool {
	return !o.Cancelled && len(o.FailedRecords) == 0 && len(o.FailedRequests) == 0
}
