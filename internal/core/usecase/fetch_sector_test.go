package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"land-crawler-service/internal/core/domain"
)

func singleSector() domain.Sector {
	return domain.NewSector(domain.BoundingBox{MinLat: 37.55, MinLon: 126.96, MaxLat: 37.58, MaxLon: 127.00}, 0, 0)
}

func TestFetchSector_PageCap(t *testing.T) {
	settings := testSettings()
	settings.Groups = settings.Groups[:1]

	fetcher := &fakeFetcher{respond: func(q domain.ListingsQuery) (*domain.ListingsPage, error) {
		return &domain.ListingsPage{Listings: listings(fmt.Sprintf("p%d", q.Page)), More: true}, nil
	}}
	sink := &fakeSink{}
	uc := NewFetchSectorUseCase(fetcher, fakeNormalizer{}, sink, settings)
	uc.sleep = (&sleepRecorder{}).sleep

	stats, err := uc.Execute(context.Background(), singleSector(), domain.NewSeenSet())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got := len(fetcher.requests()); got != 3 {
		t.Fatalf("requests: got %d, want 3", got)
	}
	if stats.RequestsMade != 3 || stats.Accepted != 3 {
		t.Fatalf("stats: got requests=%d accepted=%d, want 3 3", stats.RequestsMade, stats.Accepted)
	}
	for i, q := range fetcher.requests() {
		if q.Page != i+1 {
			t.Fatalf("request %d page: got %d, want %d", i, q.Page, i+1)
		}
	}
}

func TestFetchSector_StopsOnEmptyPage(t *testing.T) {
	settings := testSettings()
	settings.Groups = settings.Groups[:1]

	fetcher := &fakeFetcher{respond: func(q domain.ListingsQuery) (*domain.ListingsPage, error) {
		if q.Page == 1 {
			return &domain.ListingsPage{Listings: listings("a"), More: true}, nil
		}
		return &domain.ListingsPage{More: true}, nil
	}}
	uc := NewFetchSectorUseCase(fetcher, fakeNormalizer{}, &fakeSink{}, settings)
	uc.sleep = (&sleepRecorder{}).sleep

	if _, err := uc.Execute(context.Background(), singleSector(), domain.NewSeenSet()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := len(fetcher.requests()); got != 2 {
		t.Fatalf("requests: got %d, want 2", got)
	}
}

func TestFetchSector_FailureIsolatedToGroup(t *testing.T) {
	fetcher := &fakeFetcher{respond: func(q domain.ListingsQuery) (*domain.ListingsPage, error) {
		if q.Group.Label == "residential" && q.Page == 2 {
			return nil, fmt.Errorf("%w: connection reset", domain.ErrUpstreamRequest)
		}
		if q.Group.Label == "commercial" {
			return nil, fmt.Errorf("%w: unexpected token", domain.ErrUpstreamParse)
		}
		return &domain.ListingsPage{Listings: listings(queryKey(q)), More: true}, nil
	}}
	sink := &fakeSink{}
	uc := NewFetchSectorUseCase(fetcher, fakeNormalizer{}, sink, testSettings())
	uc.sleep = (&sleepRecorder{}).sleep

	stats, err := uc.Execute(context.Background(), singleSector(), domain.NewSeenSet())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var residential, commercialFirst, land int
	for _, q := range fetcher.requests() {
		switch {
		case q.Group.Label == "residential":
			residential++
		case q.Group.Label == "commercial" && q.Page == 1:
			commercialFirst++
		case q.Group.Label == "land_industrial":
			land++
		}
	}
	if residential != 2 {
		t.Fatalf("residential requests: got %d, want 2", residential)
	}
	if commercialFirst != 1 {
		t.Fatalf("commercial first page requests: got %d, want 1", commercialFirst)
	}
	if land != 3 {
		t.Fatalf("land_industrial requests: got %d, want 3", land)
	}

	if len(stats.FailedRequests) != 2 {
		t.Fatalf("failed requests: got %d, want 2", len(stats.FailedRequests))
	}
	first, second := stats.FailedRequests[0], stats.FailedRequests[1]
	if first.Group != "residential" || first.Page != 2 || first.Kind != domain.FailureKindRequest {
		t.Fatalf("first failure: got %+v", first)
	}
	if second.Group != "commercial" || second.Page != 1 || second.Kind != domain.FailureKindParse {
		t.Fatalf("second failure: got %+v", second)
	}
	if stats.Accepted != 4 {
		t.Fatalf("accepted: got %d, want 4", stats.Accepted)
	}
}

func TestFetchSector_DuplicateAcrossGroups(t *testing.T) {
	fetcher := &fakeFetcher{respond: func(q domain.ListingsQuery) (*domain.ListingsPage, error) {
		switch q.Group.Label {
		case "residential":
			return &domain.ListingsPage{Listings: listings("shared", "r1")}, nil
		case "commercial":
			return &domain.ListingsPage{Listings: listings("shared", "c1")}, nil
		default:
			return &domain.ListingsPage{}, nil
		}
	}}
	sink := &fakeSink{}
	uc := NewFetchSectorUseCase(fetcher, fakeNormalizer{}, sink, testSettings())
	uc.sleep = (&sleepRecorder{}).sleep

	stats, err := uc.Execute(context.Background(), singleSector(), domain.NewSeenSet())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got := sink.callsFor("shared"); got != 1 {
		t.Fatalf("sink calls for shared id: got %d, want 1", got)
	}
	if stats.Attempted != 4 || stats.Accepted != 3 || stats.Duplicates != 1 {
		t.Fatalf("stats: got attempted=%d accepted=%d duplicates=%d, want 4 3 1", stats.Attempted, stats.Accepted, stats.Duplicates)
	}
}

func TestFetchSector_SinkFailureSkipsRecordOnly(t *testing.T) {
	settings := testSettings()
	settings.Groups = settings.Groups[:2]

	fetcher := &fakeFetcher{respond: func(q domain.ListingsQuery) (*domain.ListingsPage, error) {
		return &domain.ListingsPage{Listings: listings("bad", q.Group.Label)}, nil
	}}
	sink := &fakeSink{failOn: map[string]error{"bad": errors.New("duplicate key")}}
	uc := NewFetchSectorUseCase(fetcher, fakeNormalizer{}, sink, settings)
	uc.sleep = (&sleepRecorder{}).sleep

	stats, err := uc.Execute(context.Background(), singleSector(), domain.NewSeenSet())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if stats.Accepted != 2 {
		t.Fatalf("accepted: got %d, want 2", stats.Accepted)
	}
	if len(stats.FailedRecords) != 1 || stats.FailedRecords[0].ExternalID != "bad" {
		t.Fatalf("failed records: got %+v", stats.FailedRecords)
	}
	if got := sink.callsFor("bad"); got != 1 {
		t.Fatalf("sink calls for failed id: got %d, want 1", got)
	}
	if stats.Duplicates != 1 {
		t.Fatalf("duplicates: got %d, want 1", stats.Duplicates)
	}
}

func TestFetchSector_MissingExternalID(t *testing.T) {
	settings := testSettings()
	settings.Groups = settings.Groups[:1]

	fetcher := &fakeFetcher{respond: func(q domain.ListingsQuery) (*domain.ListingsPage, error) {
		return &domain.ListingsPage{Listings: []domain.RawListing{{"name": "no id"}, {"id": "ok"}}}, nil
	}}
	sink := &fakeSink{}
	uc := NewFetchSectorUseCase(fetcher, fakeNormalizer{}, sink, settings)
	uc.sleep = (&sleepRecorder{}).sleep

	stats, err := uc.Execute(context.Background(), singleSector(), domain.NewSeenSet())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(sink.calls) != 1 || len(stats.FailedRecords) != 1 {
		t.Fatalf("got sink calls=%d failed records=%d, want 1 1", len(sink.calls), len(stats.FailedRecords))
	}
}

func TestFetchSector_PacingOrder(t *testing.T) {
	fetcher := &fakeFetcher{respond: func(q domain.ListingsQuery) (*domain.ListingsPage, error) {
		return &domain.ListingsPage{Listings: listings(queryKey(q)), More: q.Page == 1}, nil
	}}
	sleeps := &sleepRecorder{}
	uc := NewFetchSectorUseCase(fetcher, fakeNormalizer{}, &fakeSink{}, testSettings())
	uc.sleep = sleeps.sleep

	if _, err := uc.Execute(context.Background(), singleSector(), domain.NewSeenSet()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	page, group := 300*time.Millisecond, 500*time.Millisecond
	want := []time.Duration{page, group, page, group, page}
	if len(sleeps.delays) != len(want) {
		t.Fatalf("delays: got %v, want %v", sleeps.delays, want)
	}
	for i := range want {
		if sleeps.delays[i] != want[i] {
			t.Fatalf("delay %d: got %v, want %v", i, sleeps.delays[i], want[i])
		}
	}
}

func TestFetchSector_QueryCarriesSettings(t *testing.T) {
	settings := testSettings()
	settings.Groups = settings.Groups[:1]

	fetcher := &fakeFetcher{respond: func(q domain.ListingsQuery) (*domain.ListingsPage, error) {
		return &domain.ListingsPage{}, nil
	}}
	uc := NewFetchSectorUseCase(fetcher, fakeNormalizer{}, &fakeSink{}, settings)
	sector := singleSector()

	if _, err := uc.Execute(context.Background(), sector, domain.NewSeenSet()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	q := fetcher.requests()[0]
	if q.Box != sector.Box || q.Zoom != 15 || q.SortKey != "rank" || q.DealType != "A1:B1:B2:B3" || q.Group.FilterCode != "APT" {
		t.Fatalf("query: got %+v", q)
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Fatalf("zero delay: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled sleep: got %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancelled sleep blocked")
	}
}
