package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubFetcher struct {
	page *domain.ListingsPage
	err  error
}

func (s stubFetcher) FetchPage(ctx context.Context, q domain.ListingsQuery) (*domain.ListingsPage, error) {
	return s.page, s.err
}

type stubSink struct{ err error }

func (s stubSink) CreateCrawledProperty(ctx context.Context, p domain.CrawledProperty) error {
	return s.err
}

func TestInstrumentedFetcher(t *testing.T) {
	m := New(prometheus.NewRegistry())
	q := domain.ListingsQuery{Group: domain.CategoryGroup{Label: "residential"}}

	ok := NewInstrumentedFetcher(stubFetcher{page: &domain.ListingsPage{Listings: make([]domain.RawListing, 3)}}, m)
	if _, err := ok.FetchPage(context.Background(), q); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	failing := NewInstrumentedFetcher(stubFetcher{err: fmt.Errorf("%w: bad json", domain.ErrUpstreamParse)}, m)
	if _, err := failing.FetchPage(context.Background(), q); !errors.Is(err, domain.ErrUpstreamParse) {
		t.Fatalf("FetchPage: error must pass through, got %v", err)
	}

	if got := testutil.ToFloat64(m.pageRequests.WithLabelValues("residential", "ok")); got != 1 {
		t.Fatalf("ok requests: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.pageRequests.WithLabelValues("residential", "parse_error")); got != 1 {
		t.Fatalf("parse errors: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.listingsFetched.WithLabelValues("residential")); got != 3 {
		t.Fatalf("listings fetched: got %v, want 3", got)
	}
}

func TestInstrumentedSink(t *testing.T) {
	m := New(prometheus.NewRegistry())

	_ = NewInstrumentedSink(stubSink{}, m).CreateCrawledProperty(context.Background(), domain.CrawledProperty{})
	_ = NewInstrumentedSink(stubSink{err: errors.New("down")}, m).CreateCrawledProperty(context.Background(), domain.CrawledProperty{})

	if got := testutil.ToFloat64(m.sinkWrites.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok writes: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sinkWrites.WithLabelValues("error")); got != 1 {
		t.Fatalf("failed writes: got %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.sinkWrites.WithLabelValues("ok").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "land_crawler_sink_writes_total") {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}

func TestRouter(t *testing.T) {
	m := New(prometheus.NewRegistry())
	srv := httptest.NewServer(newRouter(m, contextkeys.LoggerFromContext(context.Background())))
	defer srv.Close()

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", 200},
		{"/metrics", 200},
		{"/unknown", 404},
	}
	for _, tt := range tests {
		resp, err := srv.Client().Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s: status %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}
