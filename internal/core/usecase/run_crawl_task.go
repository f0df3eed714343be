package usecase

import (
	"context"
	"errors"

	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/core/domain"
	"land-crawler-service/internal/core/port"
	usecases_port "land-crawler-service/internal/core/port/usecases"

	"github.com/google/uuid"
)

// RunCrawlTaskUseCase выполняет обход по задаче из очереди и отправляет отчет
type RunCrawlTaskUseCase struct {
	crawlUC  usecases_port.OrchestrateCrawlPort
	reporter port.TaskReporterPort
}

// NewRunCrawlTaskUseCase создает новый экземпляр RunCrawlTaskUseCase
func NewRunCrawlTaskUseCase(crawlUC usecases_port.OrchestrateCrawlPort, reporter port.TaskReporterPort) *RunCrawlTaskUseCase {
	return &RunCrawlTaskUseCase{
		crawlUC:  crawlUC,
		reporter: reporter,
	}
}

// Execute возвращает ошибку только если задачу имеет смысл повторить.
// Некорректный запрос не повторяется: он логируется и подтверждается.
func (uc *RunCrawlTaskUseCase) Execute(ctx context.Context, taskID uuid.UUID, req domain.CrawlRequest) error {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "RunCrawlTask",
		"task_id":  taskID.String(),
	})
	ctx = contextkeys.ContextWithLogger(ctx, ucLogger)

	outcome, err := uc.crawlUC.Execute(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidBoundingBox) || errors.Is(err, domain.ErrInvalidGrid) || errors.Is(err, domain.ErrUnknownCrawlMode) {
			ucLogger.Error("Rejected crawl task with invalid parameters", err, nil)
			return nil
		}
		if outcome == nil {
			return err
		}
		// отмена: частичный итог все равно отправляем
		ucLogger.Warn("Crawl task interrupted, reporting partial outcome", port.Fields{"error": err.Error()})
	}

	// отчет отправляется и после отмены запуска
	if reportErr := uc.reporter.ReportResults(context.WithoutCancel(ctx), taskID, outcome); reportErr != nil {
		ucLogger.Error("Failed to send task report", reportErr, nil)
		return reportErr
	}

	return err
}
