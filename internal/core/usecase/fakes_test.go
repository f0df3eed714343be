package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"land-crawler-service/internal/core/domain"

	"github.com/google/uuid"
)

type pageResponder func(q domain.ListingsQuery) (*domain.ListingsPage, error)

type fakeFetcher struct {
	mu      sync.Mutex
	respond pageResponder
	queries []domain.ListingsQuery
}

func (f *fakeFetcher) FetchPage(ctx context.Context, q domain.ListingsQuery) (*domain.ListingsPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.respond(q)
}

func (f *fakeFetcher) requests() []domain.ListingsQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ListingsQuery(nil), f.queries...)
}

// fakeNormalizer берет id из поля "id", чтобы тесты use case не зависели от полей внешнего API
type fakeNormalizer struct{}

func (fakeNormalizer) Normalize(raw domain.RawListing) domain.CrawledProperty {
	id, _ := raw["id"].(string)
	return domain.CrawledProperty{ExternalID: id, DisplayName: "listing " + id}
}

type fakeSink struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]error
}

func (s *fakeSink) CreateCrawledProperty(ctx context.Context, p domain.CrawledProperty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, p.ExternalID)
	if err, ok := s.failOn[p.ExternalID]; ok {
		return err
	}
	return nil
}

func (s *fakeSink) callsFor(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == id {
			n++
		}
	}
	return n
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

type fakeReporter struct {
	reports map[uuid.UUID]*domain.CrawlOutcome
	err     error
}

func (r *fakeReporter) ReportResults(ctx context.Context, taskID uuid.UUID, outcome *domain.CrawlOutcome) error {
	if r.reports == nil {
		r.reports = make(map[uuid.UUID]*domain.CrawlOutcome)
	}
	r.reports[taskID] = outcome
	return r.err
}

func listings(ids ...string) []domain.RawListing {
	out := make([]domain.RawListing, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.RawListing{"id": id})
	}
	return out
}

func testSettings() domain.CrawlSettings {
	return domain.CrawlSettings{
		PageCap:     3,
		PageDelay:   300 * time.Millisecond,
		GroupDelay:  500 * time.Millisecond,
		SectorDelay: 1000 * time.Millisecond,
		GridRows:    4,
		GridCols:    4,
		Zoom:        15,
		SortKey:     "rank",
		DealType:    "A1:B1:B2:B3",
		Groups: []domain.CategoryGroup{
			{Label: "residential", FilterCode: "APT"},
			{Label: "commercial", FilterCode: "SG"},
			{Label: "land_industrial", FilterCode: "TJ"},
		},
		DefaultSingleBox: domain.BoundingBox{MinLat: 37.55, MinLon: 126.96, MaxLat: 37.58, MaxLon: 127.00},
		DefaultRegion:    domain.BoundingBox{MinLat: 37.4133, MinLon: 126.7341, MaxLat: 37.7151, MaxLon: 127.2693},
	}
}

// newCrawler собирает оркестратор с фейками и без реальных пауз
func newCrawler(settings domain.CrawlSettings, fetcher *fakeFetcher, sink *fakeSink, sleeps *sleepRecorder) *OrchestrateCrawlUseCase {
	fetchUC := NewFetchSectorUseCase(fetcher, fakeNormalizer{}, sink, settings)
	fetchUC.sleep = sleeps.sleep

	crawlUC := NewOrchestrateCrawlUseCase(fetchUC, settings)
	crawlUC.sleep = sleeps.sleep
	return crawlUC
}

func queryKey(q domain.ListingsQuery) string {
	return fmt.Sprintf("%s|%s|%d", q.Box, q.Group.Label, q.Page)
}
