package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"land-crawler-service/internal/core/domain"
)

func TestParseCrawlRequest(t *testing.T) {
	req, err := parseCrawlRequest("grid", "37.45,126.80,37.70,127.20")
	if err != nil {
		t.Fatalf("parseCrawlRequest: %v", err)
	}
	if req.Mode != domain.CrawlModeGrid || req.Box == nil || req.Box.MaxLon != 127.20 {
		t.Fatalf("request: got %+v", req)
	}

	req, err = parseCrawlRequest("single", "")
	if err != nil || req.Box != nil {
		t.Fatalf("single without bbox: req=%+v err=%v", req, err)
	}
}

func TestParseCrawlRequest_Invalid(t *testing.T) {
	if _, err := parseCrawlRequest("spiral", ""); !errors.Is(err, domain.ErrUnknownCrawlMode) {
		t.Fatalf("mode: got %v", err)
	}
	if _, err := parseCrawlRequest("grid", "37.70,126.80,37.45,127.20"); !errors.Is(err, domain.ErrInvalidBoundingBox) {
		t.Fatalf("bbox: got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", domain.ErrInvalidBoundingBox), 2},
		{domain.ErrUnknownCrawlMode, 2},
		{fmt.Errorf("crawl cancelled: %w", context.Canceled), 130},
		{errors.New("db down"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
