package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"land-crawler-service/internal/constants"
	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/core/domain"
	"land-crawler-service/internal/core/port"

	"github.com/google/uuid"
)

type TaskReporterAdapter struct {
	producer   publisher
	routingKey string
}

func NewTaskReporterAdapter(producer publisher, routingKey string) (*TaskReporterAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &TaskReporterAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

func (a *TaskReporterAdapter) ReportResults(ctx context.Context, taskID uuid.UUID, outcome *domain.CrawlOutcome) error {
	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "TaskReporterAdapter",
		"routing_key": a.routingKey,
	})

	if outcome == nil {
		outcome = &domain.CrawlOutcome{}
	}

	body, err := json.Marshal(toTaskResultDTO(taskID, outcome))
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal report for task %s: %w", taskID, err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, constants.PublishTimeout)
	defer cancel()

	adapterLogger.Info("Publishing report for task", nil)
	if err := a.producer.Publish(publishCtx, a.routingKey, newEventMessage(ctx, constants.EventTypeTaskResult, body)); err != nil {
		adapterLogger.Error("Failed to publish report for task", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish report for task %s: %w", taskID, err)
	}

	adapterLogger.Info("Successfully published report for task", nil)
	return nil
}
