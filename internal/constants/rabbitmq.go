package constants

import "time"

// CrawlerExchange - общий direct-обменник сервиса
const CrawlerExchange = "crawler_exchange"

// Имена очередей
const (
	QueueCrawlTasks = "crawl_tasks_land"
)

// Ключи маршрутизации
const (
	RoutingKeyCrawlTasks        = "land.crawl.tasks"
	RoutingKeyCrawledProperties = "db.crawled_properties.create"
	RoutingKeyTaskResults       = "notify.task.result"
)

const (
	FinalDLXExchangeForCrawlTasks   = "crawl_tasks_final_dlx"
	FinalDLQForCrawlTasks           = "crawl_tasks_final_dlq"
	FinalDLQRoutingKeyForCrawlTasks = "crawl_tasks.dlq.key"
)

const (
	CrawlTasksRetryExchange = "crawl_tasks_retry_exchange"
	CrawlTasksRetryQueue    = "crawl_tasks_retry_wait_30s"
	CrawlTasksRetryTTLMs    = 30000
	CrawlTasksMaxRetries    = 3
)

// Типы и версии событий для валидации по схеме
const (
	EventTypeCrawledProperty = "CrawledPropertyEvent"
	EventTypeCrawlTask       = "CrawlTaskEvent"
	EventTypeTaskResult      = "TaskResultEvent"
	EventVersionV1           = "1.0.0"
)

const PublishTimeout = 10 * time.Second
