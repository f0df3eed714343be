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
)

// CrawledPropertyQueueAdapter отправляет объявления в очередь хранилища.
// Идемпотентность по externalId обеспечивает потребитель очереди.
type CrawledPropertyQueueAdapter struct {
	producer   publisher
	routingKey string
}

func NewCrawledPropertyQueueAdapter(producer publisher, routingKey string) (*CrawledPropertyQueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("routingKey cannot be empty")
	}
	return &CrawledPropertyQueueAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

// CreateCrawledProperty публикует CrawledPropertyEvent, предварительно проверив его по схеме
func (a *CrawledPropertyQueueAdapter) CreateCrawledProperty(ctx context.Context, property domain.CrawledProperty) error {
	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "CrawledPropertyQueueAdapter",
		"routing_key": a.routingKey,
		"external_id": property.ExternalID,
	})

	body, err := json.Marshal(property)
	if err != nil {
		return fmt.Errorf("%w: marshal crawled property %s: %v", domain.ErrPersistence, property.ExternalID, err)
	}

	if err := contracts.ValidateEvent(constants.EventTypeCrawledProperty, constants.EventVersionV1, body); err != nil {
		adapterLogger.Error("Crawled property does not match event schema", err, nil)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, constants.PublishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, newEventMessage(ctx, constants.EventTypeCrawledProperty, body)); err != nil {
		adapterLogger.Error("Failed to publish crawled property", err, nil)
		return fmt.Errorf("%w: publish crawled property %s: %v", domain.ErrPersistence, property.ExternalID, err)
	}

	adapterLogger.Debug("Published crawled property", nil)
	return nil
}
