package landfetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/core/domain"
	"land-crawler-service/internal/core/port"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// articleListResponse - ответ API со списком объявлений сектора
type articleListResponse struct {
	Code interface{}         `json:"code"`
	More bool                `json:"more"`
	Body []domain.RawListing `json:"body"`
}

func (a *LandFetcherAdapter) buildURL(query domain.ListingsQuery) string {
	lat, lon := query.Box.Center()

	u := *a.baseURL
	q := u.Query()
	q.Set("rletTpCd", query.Group.FilterCode)
	q.Set("tradTpCd", query.DealType)
	q.Set("z", strconv.Itoa(query.Zoom))
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("btm", formatCoord(query.Box.MinLat))
	q.Set("lft", formatCoord(query.Box.MinLon))
	q.Set("top", formatCoord(query.Box.MaxLat))
	q.Set("rgt", formatCoord(query.Box.MaxLon))
	if query.SortKey != "" {
		q.Set("sort", query.SortKey)
	}
	q.Set("page", strconv.Itoa(query.Page))

	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage запрашивает одну страницу объявлений для сектора и группы категорий
func (a *LandFetcherAdapter) FetchPage(ctx context.Context, query domain.ListingsQuery) (*domain.ListingsPage, error) {
	fetchLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "LandFetcherAdapter(FetchPage)"})

	// одноразовый клон: свои обработчики и свой контекст отмены
	collector := a.collector.Clone()
	collector.Context = ctx
	// API отвечает нестабильно без User-Agent реального браузера
	extensions.RandomUserAgent(collector)

	var page *domain.ListingsPage
	var responseErr error

	targetURL := a.buildURL(query)

	collector.OnRequest(func(r *colly.Request) {
		if a.referer != "" {
			r.Headers.Set("Referer", a.referer)
		}
		r.Headers.Set("Accept", "application/json")
		fetchLogger.Debug("Requesting listings page", port.Fields{"url": r.URL.String()})
	})

	collector.OnResponse(func(r *colly.Response) {
		decoder := json.NewDecoder(bytes.NewReader(r.Body))
		decoder.UseNumber()

		var data articleListResponse
		if err := decoder.Decode(&data); err != nil {
			responseErr = fmt.Errorf("%w: decoding %s: %v", domain.ErrUpstreamParse, r.Request.URL, err)
			return
		}

		listings := make([]domain.RawListing, 0, len(data.Body))
		for _, item := range data.Body {
			if item != nil {
				listings = append(listings, item)
			}
		}
		page = &domain.ListingsPage{Listings: listings, More: data.More}
	})

	collector.OnError(func(r *colly.Response, err error) {
		responseErr = fmt.Errorf("%w: request to %s failed with status %d: %v", domain.ErrUpstreamRequest, r.Request.URL, r.StatusCode, err)
	})

	visitErr := collector.Visit(targetURL)
	collector.Wait()

	if responseErr != nil {
		return nil, responseErr
	}
	if visitErr != nil {
		return nil, fmt.Errorf("%w: failed to visit %s: %v", domain.ErrUpstreamRequest, targetURL, visitErr)
	}
	if page == nil {
		return nil, fmt.Errorf("%w: empty response from %s", domain.ErrUpstreamParse, targetURL)
	}

	fetchLogger.Debug("Fetched listings page", port.Fields{
		"records": len(page.Listings),
		"more":    page.More,
	})

	return page, nil
}
