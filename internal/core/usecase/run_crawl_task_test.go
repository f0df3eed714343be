package usecase

import (
	"context"
	"errors"
	"testing"

	"land-crawler-service/internal/core/domain"

	"github.com/google/uuid"
)

type stubCrawl struct {
	outcome *domain.CrawlOutcome
	err     error
}

func (s stubCrawl) Execute(ctx context.Context, req domain.CrawlRequest) (*domain.CrawlOutcome, error) {
	return s.outcome, s.err
}

func TestRunCrawlTask_ReportsOutcome(t *testing.T) {
	reporter := &fakeReporter{}
	outcome := &domain.CrawlOutcome{Accepted: 7}
	uc := NewRunCrawlTaskUseCase(stubCrawl{outcome: outcome}, reporter)

	taskID := uuid.New()
	if err := uc.Execute(context.Background(), taskID, domain.CrawlRequest{Mode: domain.CrawlModeSingle}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if reporter.reports[taskID] != outcome {
		t.Fatalf("report: got %+v, want %+v", reporter.reports[taskID], outcome)
	}
}

func TestRunCrawlTask_InvalidRequestIsNotRetried(t *testing.T) {
	reporter := &fakeReporter{}
	uc := NewRunCrawlTaskUseCase(stubCrawl{err: domain.ErrInvalidBoundingBox}, reporter)

	if err := uc.Execute(context.Background(), uuid.New(), domain.CrawlRequest{Mode: domain.CrawlModeGrid}); err != nil {
		t.Fatalf("Execute: got %v, want nil", err)
	}
	if len(reporter.reports) != 0 {
		t.Fatalf("reports: got %d, want 0", len(reporter.reports))
	}
}

func TestRunCrawlTask_CancelledRunStillReports(t *testing.T) {
	reporter := &fakeReporter{}
	partial := &domain.CrawlOutcome{Accepted: 2, Cancelled: true}
	uc := NewRunCrawlTaskUseCase(stubCrawl{outcome: partial, err: context.Canceled}, reporter)

	taskID := uuid.New()
	err := uc.Execute(context.Background(), taskID, domain.CrawlRequest{Mode: domain.CrawlModeGrid})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute: got %v, want context.Canceled", err)
	}
	if reporter.reports[taskID] != partial {
		t.Fatalf("partial outcome was not reported")
	}
}

func TestRunCrawlTask_ReportFailureIsReturned(t *testing.T) {
	reportErr := errors.New("broker unavailable")
	uc := NewRunCrawlTaskUseCase(stubCrawl{outcome: &domain.CrawlOutcome{}}, &fakeReporter{err: reportErr})

	if err := uc.Execute(context.Background(), uuid.New(), domain.CrawlRequest{Mode: domain.CrawlModeSingle}); !errors.Is(err, reportErr) {
		t.Fatalf("Execute: got %v, want %v", err, reportErr)
	}
}
