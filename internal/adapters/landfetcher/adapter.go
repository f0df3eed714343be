package landfetcher

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config - параметры подключения к API карты объявлений
type Config struct {
	BaseURL        string
	Referer        string
	RequestTimeout time.Duration
}

// LandFetcherAdapter отвечает за все запросы к API карты объявлений
type LandFetcherAdapter struct {
	// родительский коллектор, клоны наследуют его лимиты и HTTP-клиент
	collector *colly.Collector
	baseURL   *url.URL
	referer   string
}

// NewLandFetcherAdapter - конструктор
func NewLandFetcherAdapter(cfg Config) (*LandFetcherAdapter, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("LandFetcherAdapter: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if baseURL.Hostname() == "" {
		return nil, fmt.Errorf("LandFetcherAdapter: base URL %q has no host", cfg.BaseURL)
	}

	// Clone() копирует UserAgent, но не обработчики, поэтому базовый UA задается полем
	c := colly.NewCollector(
		colly.AllowedDomains(baseURL.Hostname()),
		colly.AllowURLRevisit(),
		colly.UserAgent(browserUserAgent),
	)

	// Паузы между запросами задает use case, здесь только запрет параллельных запросов
	err = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("LandFetcherAdapter: failed to set limit rule: %w", err)
	}

	if cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cfg.RequestTimeout)
	}

	return &LandFetcherAdapter{
		collector: c,
		baseURL:   baseURL,
		referer:   cfg.Referer,
	}, nil
}
