package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"land-crawler-service/internal/adapters/landfetcher"
	logger_adapter "land-crawler-service/internal/adapters/logger"
	"land-crawler-service/internal/adapters/metrics"
	postgres_adapter "land-crawler-service/internal/adapters/postgres"
	rabbitmq_adapter "land-crawler-service/internal/adapters/rabbitmq"
	"land-crawler-service/internal/configs"
	"land-crawler-service/internal/constants"
	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/core/domain"
	"land-crawler-service/internal/core/port"
	usecases_port "land-crawler-service/internal/core/port/usecases"
	"land-crawler-service/internal/core/usecase"
	fluentlogger "land-crawler-service/pkg/fluent_logger"
	"land-crawler-service/pkg/postgres"
	"land-crawler-service/pkg/rabbitmq/rabbitmq_common"
	"land-crawler-service/pkg/rabbitmq/rabbitmq_consumer"
	"land-crawler-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// App – структура приложения
type App struct {
	config        *configs.AppConfig
	dbPool        *pgxpool.Pool
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
	fluentClient  *fluent.Fluent
	metricsServer *metrics.Server
	logger        port.LoggerPort
	baseLogger    port.LoggerPort

	crawlUC usecases_port.OrchestrateCrawlPort

	// Входящий порт, nil если потребитель задач выключен или не serve
	crawlTasksListener port.EventListenerPort
}

// NewApp создает приложение и связывает все зависимости.
// serve=false собирает только то, что нужно для разового обхода из CLI.
func NewApp(serve bool, envPath ...string) (*App, error) {
	appConfig, err := configs.LoadConfig(envPath...)
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	a := &App{config: appConfig}

	if err := a.initLoggers(); err != nil {
		return nil, err
	}
	if err := a.initComponents(serve); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) initLoggers() error {
	cfg := a.config
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Writer:   os.Stderr,
		Level:    logger_adapter.ParseLevel(cfg.StdoutLogger.Level),
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	if cfg.FluentBit.Enabled {
		fluentClient, err := fluentlogger.NewClient(fluentlogger.Config{
			Host:      cfg.FluentBit.Host,
			Port:      cfg.FluentBit.Port,
			TagPrefix: cfg.AppName,
			Async:     true,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, logger_adapter.ParseLevel(cfg.FluentBit.Level))
		if err != nil {
			fluentClient.Close()
			return fmt.Errorf("failed to create fluentbit adapter: %w", err)
		}
		a.fluentClient = fluentClient
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiLoggerAdapter(activeLoggers...)
	if err != nil {
		return fmt.Errorf("failed to create multi-logger: %w", err)
	}

	a.baseLogger = multiLogger.WithFields(port.Fields{"service_name": cfg.AppName})
	a.logger = a.baseLogger.WithFields(port.Fields{"component": "app"})
	a.logger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": cfg.FluentBit.Enabled,
	})
	return nil
}

func (a *App) initComponents(serve bool) error {
	cfg := a.config

	// 1. Брокер, если он нужен приемнику или потребителю задач
	if cfg.NeedsRabbitMQ(serve) {
		connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(a.baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"}))
		connManager, err := rabbitmq_common.NewConnectionManager(rabbitmq_common.Config{URL: cfg.RabbitMQ.URL}, connManagerBridge)
		if err != nil {
			a.logger.Error("Failed to create connection manager", err, nil)
			return fmt.Errorf("failed to create connection manager: %w", err)
		}
		a.connManager = connManager

		eventProducer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			Config:                   rabbitmq_common.Config{URL: cfg.RabbitMQ.URL},
			ExchangeName:             constants.CrawlerExchange,
			ExchangeType:             "direct",
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(a.baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
		}, connManager)
		if err != nil {
			a.logger.Error("Failed to create event producer", err, nil)
			return fmt.Errorf("failed to create event producer: %w", err)
		}
		a.eventProducer = eventProducer
		a.logger.Info("RabbitMQ Event Producer initialized.", nil)
	}

	// 2. Исходящие адаптеры
	fetcherAdapter, err := landfetcher.NewLandFetcherAdapter(landfetcher.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		Referer:        cfg.Upstream.Referer,
		RequestTimeout: cfg.Upstream.RequestTimeout,
	})
	if err != nil {
		a.logger.Error("Failed to create Land Fetcher Adapter", err, nil)
		return fmt.Errorf("failed to initialize land fetcher: %w", err)
	}
	var fetcher port.ListingsFetcherPort = fetcherAdapter

	normalizer := landfetcher.NewListingMapper(cfg.Upstream.ImageHost, constants.DisplayNamePlaceholder)

	var sink port.CrawledPropertySinkPort
	switch cfg.Sink.Type {
	case configs.SinkTypePostgres:
		dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: cfg.Database.URL})
		if err != nil {
			a.logger.Error("Failed to connect to PostgreSQL", err, nil)
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		a.dbPool = dbPool
		sink = postgres_adapter.NewCrawledPropertySinkAdapter(dbPool)
		a.logger.Info("Successfully connected to PostgreSQL pool!", nil)
	case configs.SinkTypeRabbitMQ:
		queueSink, err := rabbitmq_adapter.NewCrawledPropertyQueueAdapter(a.eventProducer, constants.RoutingKeyCrawledProperties)
		if err != nil {
			return fmt.Errorf("failed to create crawled property queue adapter: %w", err)
		}
		sink = queueSink
	}

	if serve && cfg.Metrics.Enabled {
		m := metrics.New(prometheus.NewRegistry())
		fetcher = metrics.NewInstrumentedFetcher(fetcher, m)
		sink = metrics.NewInstrumentedSink(sink, m)
		a.metricsServer = metrics.NewServer(cfg.Metrics.Port, m, a.baseLogger.WithFields(port.Fields{"component": "metrics_server"}))
	}
	a.logger.Info("All outgoing adapters initialized.", port.Fields{"sink_type": cfg.Sink.Type})

	// 3. Use cases
	fetchSectorUC := usecase.NewFetchSectorUseCase(fetcher, normalizer, sink, cfg.Crawl)
	a.crawlUC = usecase.NewOrchestrateCrawlUseCase(fetchSectorUC, cfg.Crawl)

	// 4. Входящий адаптер
	if serve && cfg.TasksConsumer.Enabled {
		reporter, err := rabbitmq_adapter.NewTaskReporterAdapter(a.eventProducer, constants.RoutingKeyTaskResults)
		if err != nil {
			return fmt.Errorf("failed to create task reporter: %w", err)
		}
		runTaskUC := usecase.NewRunCrawlTaskUseCase(a.crawlUC, reporter)

		listener, err := rabbitmq_adapter.NewCrawlTasksConsumerAdapter(crawlTasksConsumerConfig(cfg.RabbitMQ.URL), runTaskUC, a.baseLogger, a.connManager)
		if err != nil {
			a.logger.Error("Failed to initialize Crawl Tasks Listener", err, nil)
			return err
		}
		a.crawlTasksListener = listener
		a.logger.Info("Crawl Tasks Listener initialized.", nil)
	}

	return nil
}

func crawlTasksConsumerConfig(url string) rabbitmq_consumer.ConsumerConfig {
	return rabbitmq_consumer.ConsumerConfig{
		Config:                 rabbitmq_common.Config{URL: url},
		QueueName:              constants.QueueCrawlTasks,
		RoutingKeyForBind:      constants.RoutingKeyCrawlTasks,
		ExchangeNameForBind:    constants.CrawlerExchange,
		DeclareExchangeForBind: true,
		ExchangeTypeForBind:    "direct",
		// один обход за раз: upstream ограничивает частоту запросов
		PrefetchCount: 1,
		DurableQueue:  true,
		ConsumerTag:   "crawl-tasks-processor-adapter",
		DeclareQueue:  true,

		EnableRetryMechanism: true,
		RetryExchange:        constants.CrawlTasksRetryExchange,
		RetryQueue:           constants.CrawlTasksRetryQueue,
		RetryTTL:             constants.CrawlTasksRetryTTLMs,

		FinalDLXExchange:   constants.FinalDLXExchangeForCrawlTasks,
		FinalDLQ:           constants.FinalDLQForCrawlTasks,
		FinalDLQRoutingKey: constants.FinalDLQRoutingKeyForCrawlTasks,

		// Ретраи помимо первой попытки
		MaxRetries: constants.CrawlTasksMaxRetries,
	}
}

// Crawl выполняет один обход без брокера задач. Используется командой crawl.
func (a *App) Crawl(ctx context.Context, req domain.CrawlRequest) (*domain.CrawlOutcome, error) {
	ctx = contextkeys.ContextWithLogger(ctx, a.baseLogger.WithFields(port.Fields{"component": "cli_crawl"}))
	return a.crawlUC.Execute(ctx, req)
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)
		a.Close()
	}()

	a.logger.Info("Application is starting...", nil)

	componentErrors := make(chan error, 2)

	if a.crawlTasksListener != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listenerLogger := a.logger.WithFields(port.Fields{"listener_name": "Crawl Tasks Listener"})
			listenerLogger.Info("Starting listener...", nil)

			if err := a.crawlTasksListener.Start(appCtx); err != nil {
				listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
				componentErrors <- fmt.Errorf("crawl tasks listener error: %w", err)
			} else {
				listenerLogger.Info("Listener stopped gracefully due to context cancellation.", nil)
			}
		}()
	} else {
		a.logger.Warn("Crawl tasks consumer is disabled, waiting for a signal only", nil)
	}

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.Start(); err != nil {
				componentErrors <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or component error...", nil)
	var runErr error
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received signal, shutting down", port.Fields{"signal": receivedSignal.String()})
	case err := <-componentErrors:
		a.logger.Error("A critical component failed, shutting down", err, nil)
		runErr = err
	}

	// Отмена контекста прерывает текущий обход между запросами
	cancelApp()

	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error shutting down metrics server", err, nil)
		}
	}

	return runErr
}

// Close освобождает ресурсы в обратном порядке создания
func (a *App) Close() {
	if a.crawlTasksListener != nil {
		if err := a.crawlTasksListener.Close(); err != nil {
			a.logger.Error("Error closing crawl tasks listener", err, nil)
		}
		a.crawlTasksListener = nil
	}
	if a.eventProducer != nil {
		if err := a.eventProducer.Close(); err != nil {
			a.logger.Error("Error closing event producer", err, nil)
		}
		a.eventProducer = nil
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection manager", err, nil)
		}
		a.connManager = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
		a.dbPool = nil
	}

	if a.fluentClient != nil {
		a.logger.Info("Closing Fluent Bit connection...", nil)
		if err := a.fluentClient.Close(); err != nil {
			log.Printf("App: Error closing fluent client: %v\n", err)
		}
		a.fluentClient = nil
	}
}
