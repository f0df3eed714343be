package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"land-crawler-service/internal/constants"
	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/contracts"
	"land-crawler-service/internal/core/domain"
	"land-crawler-service/internal/core/port"
	usecases_port "land-crawler-service/internal/core/port/usecases"
	"land-crawler-service/pkg/rabbitmq/rabbitmq_common"
	"land-crawler-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CrawlTasksConsumerAdapter слушает очередь задач на обход и запускает их
type CrawlTasksConsumerAdapter struct {
	consumer rabbitmq_consumer.Consumer
	runUC    usecases_port.RunCrawlTaskPort
	logger   port.LoggerPort
}

func NewCrawlTasksConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	runUC usecases_port.RunCrawlTaskPort,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*CrawlTasksConsumerAdapter, error) {
	adapter := &CrawlTasksConsumerAdapter{
		runUC:  runUC,
		logger: logger,
	}

	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_distributing_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewDistributingConsumer(consumerCfg, adapter.messageHandler, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for crawl tasks: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

// messageHandler возвращает ошибку только для повторяемых сбоев.
// Сообщение, не прошедшее проверку схемы, подтверждается и отбрасывается.
func (a *CrawlTasksConsumerAdapter) messageHandler(ctx context.Context, d amqp.Delivery) error {
	traceID, ok := d.Headers["x-trace-id"].(string)
	if !ok || traceID == "" {
		traceID = uuid.New().String()
	}

	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"delivery_tag": d.DeliveryTag,
	})
	ctx = contextkeys.ContextWithLogger(ctx, msgLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	msgLogger.Info("Received new crawl task", nil)

	if err := contracts.ValidateEvent(constants.EventTypeCrawlTask, constants.EventVersionV1, d.Body); err != nil {
		msgLogger.Error("Crawl task does not match schema, dropping", err, nil)
		return nil
	}

	var taskDTO CrawlTaskDTO
	if err := json.Unmarshal(d.Body, &taskDTO); err != nil {
		msgLogger.Error("Error unmarshalling crawl task, dropping", err, nil)
		return nil
	}

	req, err := translateTask(taskDTO)
	if err != nil {
		msgLogger.Error("Cannot translate crawl task", err, port.Fields{"task_id": taskDTO.TaskID.String()})
		return nil
	}

	if err := a.runUC.Execute(ctx, taskDTO.TaskID, req); err != nil {
		msgLogger.Error("Crawl task failed", err, port.Fields{"task_id": taskDTO.TaskID.String()})
		return err
	}
	return nil
}

func translateTask(dto CrawlTaskDTO) (domain.CrawlRequest, error) {
	mode, err := domain.ParseCrawlMode(dto.Mode)
	if err != nil {
		return domain.CrawlRequest{}, err
	}
	if dto.BBox != nil {
		if err := dto.BBox.Validate(); err != nil {
			return domain.CrawlRequest{}, err
		}
	}
	return domain.CrawlRequest{Mode: mode, Box: dto.BBox}, nil
}

// Start реализует EventListenerPort
func (a *CrawlTasksConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

// Close реализует EventListenerPort
func (a *CrawlTasksConsumerAdapter) Close() error {
	return a.consumer.Close()
}
