package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"land-crawler-service/internal/constants"
	"land-crawler-service/internal/core/domain"

	"github.com/joho/godotenv"
)

const (
	SinkTypePostgres = "postgres"
	SinkTypeRabbitMQ = "rabbitmq"
)

type RabbitMQConfig struct {
	URL string
}

type DBconfig struct {
	URL string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// UpstreamConfig - параметры API карты объявлений
type UpstreamConfig struct {
	BaseURL        string
	Referer        string
	ImageHost      string
	RequestTimeout time.Duration
}

type SinkConfig struct {
	Type string
}

type TasksConsumerConfig struct {
	Enabled bool
}

type MetricsConfig struct {
	Enabled bool
	Port    string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName       string
	Database      DBconfig
	RabbitMQ      RabbitMQConfig
	FluentBit     FluentBitConfig
	StdoutLogger  StdoutLogConfig
	Upstream      UpstreamConfig
	Crawl         domain.CrawlSettings
	Sink          SinkConfig
	TasksConsumer TasksConsumerConfig
	Metrics       MetricsConfig
}

// LoadConfig загружает конфигурацию из .env и переменных окружения.
// Отсутствие .env не ошибка: используются переменные процесса.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath...)
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v. Using process environment.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "land-crawler-service")

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.Upstream.BaseURL = getEnvAsString("UPSTREAM_BASE_URL", constants.DefaultBaseURL)
	cfg.Upstream.Referer = getEnvAsString("UPSTREAM_REFERER", constants.DefaultReferer)
	cfg.Upstream.ImageHost = getEnvAsString("UPSTREAM_IMAGE_HOST", constants.DefaultImageHost)
	cfg.Upstream.RequestTimeout = getEnvAsDuration("UPSTREAM_REQUEST_TIMEOUT", 15*time.Second)

	crawl := constants.DefaultCrawlSettings()
	crawl.PageCap = getEnvAsInt("CRAWL_PAGE_CAP", crawl.PageCap)
	crawl.PageDelay = getEnvAsDuration("CRAWL_PAGE_DELAY", crawl.PageDelay)
	crawl.GroupDelay = getEnvAsDuration("CRAWL_GROUP_DELAY", crawl.GroupDelay)
	crawl.SectorDelay = getEnvAsDuration("CRAWL_SECTOR_DELAY", crawl.SectorDelay)
	crawl.GridRows = getEnvAsInt("CRAWL_GRID_ROWS", crawl.GridRows)
	crawl.GridCols = getEnvAsInt("CRAWL_GRID_COLS", crawl.GridCols)
	crawl.Zoom = getEnvAsInt("CRAWL_ZOOM", crawl.Zoom)
	crawl.SortKey = getEnvAsString("CRAWL_SORT", crawl.SortKey)

	if crawl.DefaultSingleBox, err = getEnvAsBoundingBox("CRAWL_DEFAULT_SINGLE_BOX", crawl.DefaultSingleBox); err != nil {
		return nil, err
	}
	if crawl.DefaultRegion, err = getEnvAsBoundingBox("CRAWL_DEFAULT_REGION", crawl.DefaultRegion); err != nil {
		return nil, err
	}
	cfg.Crawl = crawl

	cfg.Sink.Type = strings.ToLower(getEnvAsString("SINK_TYPE", SinkTypePostgres))
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	cfg.TasksConsumer.Enabled = getEnvAsBool("TASKS_CONSUMER_ENABLED", true)

	cfg.Metrics.Enabled = getEnvAsBool("METRICS_ENABLED", false)
	cfg.Metrics.Port = getEnvAsString("METRICS_PORT", "9102")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Sink.Type {
	case SinkTypePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for SINK_TYPE=%s", SinkTypePostgres)
		}
	case SinkTypeRabbitMQ:
		if c.RabbitMQ.URL == "" {
			return fmt.Errorf("RABBITMQ_URL environment variable is required for SINK_TYPE=%s", SinkTypeRabbitMQ)
		}
	default:
		return fmt.Errorf("unknown SINK_TYPE %q (expected %s or %s)", c.Sink.Type, SinkTypePostgres, SinkTypeRabbitMQ)
	}

	if c.Crawl.PageCap < 1 {
		return fmt.Errorf("CRAWL_PAGE_CAP must be at least 1, got %d", c.Crawl.PageCap)
	}
	if c.Crawl.GridRows < 1 || c.Crawl.GridCols < 1 {
		return fmt.Errorf("%w: CRAWL_GRID_ROWS=%d CRAWL_GRID_COLS=%d", domain.ErrInvalidGrid, c.Crawl.GridRows, c.Crawl.GridCols)
	}
	if c.Crawl.PageDelay < 0 || c.Crawl.GroupDelay < 0 || c.Crawl.SectorDelay < 0 {
		return fmt.Errorf("crawl delays must not be negative")
	}
	return nil
}

// NeedsRabbitMQ - нужен ли брокер при запуске сервиса
func (c *AppConfig) NeedsRabbitMQ(serve bool) bool {
	return c.Sink.Type == SinkTypeRabbitMQ || (serve && c.TasksConsumer.Enabled)
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию.
// Логирует предупреждение, если значение есть, но не разбирается.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsDuration принимает "300ms", "1s" или целое число миллисекунд
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if ms, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return d
}

// getEnvAsBoundingBox разбирает "minLat,minLon,maxLat,maxLon". Некорректный прямоугольник - ошибка конфигурации.
func getEnvAsBoundingBox(key string, defaultValue domain.BoundingBox) (domain.BoundingBox, error) {
	valStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valStr) == "" {
		return defaultValue, nil
	}
	box, err := domain.ParseBoundingBox(valStr)
	if err != nil {
		return domain.BoundingBox{}, fmt.Errorf("%s: %w", key, err)
	}
	return box, nil
}
