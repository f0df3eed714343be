package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"land-crawler-service/internal/core/domain"
	"land-crawler-service/internal/core/port"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics - счетчики обхода. Регистрируются в переданном реестре, глобального состояния нет.
type Metrics struct {
	registry        *prometheus.Registry
	pageRequests    *prometheus.CounterVec
	pageDuration    *prometheus.HistogramVec
	listingsFetched *prometheus.CounterVec
	sinkWrites      *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		pageRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "land_crawler_page_requests_total",
			Help: "Upstream listing page requests by category group and result",
		}, []string{"group", "result"}),
		pageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "land_crawler_page_request_duration_seconds",
			Help:    "Upstream listing page request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"group"}),
		listingsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "land_crawler_listings_fetched_total",
			Help: "Raw listings returned by the upstream API",
		}, []string{"group"}),
		sinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "land_crawler_sink_writes_total",
			Help: "Crawled property writes by result",
		}, []string{"result"}),
	}

	registry.MustRegister(m.pageRequests, m.pageDuration, m.listingsFetched, m.sinkWrites)
	return m
}

// Handler отдает метрики реестра в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func requestResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUpstreamParse):
		return "parse_error"
	default:
		return "request_error"
	}
}

// InstrumentedFetcher считает запросы к внешнему API
type InstrumentedFetcher struct {
	next    port.ListingsFetcherPort
	metrics *Metrics
}

func NewInstrumentedFetcher(next port.ListingsFetcherPort, m *Metrics) *InstrumentedFetcher {
	return &InstrumentedFetcher{next: next, metrics: m}
}

func (f *InstrumentedFetcher) FetchPage(ctx context.Context, query domain.ListingsQuery) (*domain.ListingsPage, error) {
	start := time.Now()
	page, err := f.next.FetchPage(ctx, query)

	group := query.Group.Label
	f.metrics.pageDuration.WithLabelValues(group).Observe(time.Since(start).Seconds())
	f.metrics.pageRequests.WithLabelValues(group, requestResult(err)).Inc()
	if err == nil && page != nil {
		f.metrics.listingsFetched.WithLabelValues(group).Add(float64(len(page.Listings)))
	}
	return page, err
}

// InstrumentedSink считает записи в хранилище
type InstrumentedSink struct {
	next    port.CrawledPropertySinkPort
	metrics *Metrics
}

func NewInstrumentedSink(next port.CrawledPropertySinkPort, m *Metrics) *InstrumentedSink {
	return &InstrumentedSink{next: next, metrics: m}
}

func (s *InstrumentedSink) CreateCrawledProperty(ctx context.Context, property domain.CrawledProperty) error {
	err := s.next.CreateCrawledProperty(ctx, property)
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.sinkWrites.WithLabelValues(result).Inc()
	return err
}
