package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"land-crawler-service/internal/contextkeys"
	"land-crawler-service/internal/core/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type fakePublisher struct {
	routingKey string
	msgs       []amqp.Publishing
	err        error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	p.routingKey = routingKey
	p.msgs = append(p.msgs, msg)
	return p.err
}

type fakeRunUC struct {
	taskID uuid.UUID
	req    domain.CrawlRequest
	calls  int
	err    error
}

func (f *fakeRunUC) Execute(ctx context.Context, taskID uuid.UUID, req domain.CrawlRequest) error {
	f.calls++
	f.taskID = taskID
	f.req = req
	return f.err
}

func TestCrawledPropertyQueueAdapter_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	adapter, err := NewCrawledPropertyQueueAdapter(pub, "db.crawled_properties.create")
	if err != nil {
		t.Fatalf("NewCrawledPropertyQueueAdapter: %v", err)
	}

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-1")
	img := "https://landthumb-phinf.pstatic.net/a.jpg"
	err = adapter.CreateCrawledProperty(ctx, domain.CrawledProperty{ExternalID: "42", DisplayName: "Plot", ImageURL: &img})
	if err != nil {
		t.Fatalf("CreateCrawledProperty: %v", err)
	}

	if pub.routingKey != "db.crawled_properties.create" || len(pub.msgs) != 1 {
		t.Fatalf("publish: key=%q msgs=%d", pub.routingKey, len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.Headers["x-trace-id"] != "trace-1" || msg.Headers["event-type"] != "CrawledPropertyEvent" {
		t.Fatalf("headers: got %v", msg.Headers)
	}
	if msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("delivery mode: got %d, want persistent", msg.DeliveryMode)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["externalId"] != "42" || body["imageUrl"] != img || body["direction"] != nil {
		t.Fatalf("body: got %v", body)
	}
	if _, present := body["secondaryAreaRaw"]; !present {
		t.Fatalf("null fields must be present in the event body")
	}
}

func TestCrawledPropertyQueueAdapter_InvalidRecord(t *testing.T) {
	pub := &fakePublisher{}
	adapter, _ := NewCrawledPropertyQueueAdapter(pub, "db.crawled_properties.create")

	err := adapter.CreateCrawledProperty(context.Background(), domain.CrawledProperty{DisplayName: "no id"})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("CreateCrawledProperty: got %v, want ErrPersistence", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("invalid record was published")
	}
}

func TestCrawledPropertyQueueAdapter_PublishError(t *testing.T) {
	adapter, _ := NewCrawledPropertyQueueAdapter(&fakePublisher{err: errors.New("channel closed")}, "k")

	err := adapter.CreateCrawledProperty(context.Background(), domain.CrawledProperty{ExternalID: "1", DisplayName: "x"})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("CreateCrawledProperty: got %v, want ErrPersistence", err)
	}
}

func TestTaskReporterAdapter_ReportResults(t *testing.T) {
	pub := &fakePublisher{}
	reporter, err := NewTaskReporterAdapter(pub, "notify.task.result")
	if err != nil {
		t.Fatalf("NewTaskReporterAdapter: %v", err)
	}

	taskID := uuid.New()
	outcome := &domain.CrawlOutcome{
		Attempted: 10, Accepted: 7, Duplicates: 2, SectorsVisited: 16, RequestsMade: 48,
		FailedRecords:  []domain.FailedRecord{{ExternalID: "9", Err: "boom"}},
		FailedRequests: []domain.FailedRequest{{Page: 2}, {Page: 1}},
	}
	if err := reporter.ReportResults(context.Background(), taskID, outcome); err != nil {
		t.Fatalf("ReportResults: %v", err)
	}

	var dto TaskResultDTO
	if err := json.Unmarshal(pub.msgs[0].Body, &dto); err != nil {
		t.Fatalf("body: %v", err)
	}
	want := TaskResultsDTO{Attempted: 10, Accepted: 7, Duplicates: 2, FailedRecords: 1, FailedRequests: 2, SectorsVisited: 16, RequestsMade: 48}
	if dto.TaskID != taskID || dto.Results != want {
		t.Fatalf("report: got %+v, want %+v", dto.Results, want)
	}
}

func TestCrawlTasksConsumer_MessageHandler(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name      string
		body      string
		wantCalls int
		wantMode  domain.CrawlMode
		wantBox   bool
	}{
		{"grid with bbox", `{"task_id":"` + taskID.String() + `","mode":"grid","bbox":{"minLat":37.58,"minLon":126.25,"maxLat":37.8,"maxLon":126.55}}`, 1, domain.CrawlModeGrid, true},
		{"single default box", `{"task_id":"` + taskID.String() + `","mode":"single"}`, 1, domain.CrawlModeSingle, false},
		{"inverted bbox dropped", `{"task_id":"` + taskID.String() + `","mode":"grid","bbox":{"minLat":37.8,"minLon":126.25,"maxLat":37.58,"maxLon":126.55}}`, 0, "", false},
		{"schema violation dropped", `{"mode":"grid"}`, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeRunUC{}
			adapter := &CrawlTasksConsumerAdapter{runUC: uc, logger: contextkeys.LoggerFromContext(context.Background())}

			if err := adapter.messageHandler(context.Background(), amqp.Delivery{Body: []byte(tt.body)}); err != nil {
				t.Fatalf("messageHandler: %v", err)
			}
			if uc.calls != tt.wantCalls {
				t.Fatalf("use case calls: got %d, want %d", uc.calls, tt.wantCalls)
			}
			if tt.wantCalls == 0 {
				return
			}
			if uc.taskID != taskID || uc.req.Mode != tt.wantMode || (uc.req.Box != nil) != tt.wantBox {
				t.Fatalf("request: got task=%s %+v", uc.taskID, uc.req)
			}
		})
	}
}

func TestCrawlTasksConsumer_RetryableFailure(t *testing.T) {
	uc := &fakeRunUC{err: errors.New("broker unavailable")}
	adapter := &CrawlTasksConsumerAdapter{runUC: uc, logger: contextkeys.LoggerFromContext(context.Background())}

	body := `{"task_id":"` + uuid.New().String() + `","mode":"single"}`
	if err := adapter.messageHandler(context.Background(), amqp.Delivery{Body: []byte(body)}); err == nil {
		t.Fatalf("messageHandler: expected error to trigger retry")
	}
}

func TestPkgLoggerBridge_ToFields(t *testing.T) {
	b := &PkgLoggerBridge{}
	fields := b.toFields("queue", "crawl_tasks_land", 42, "skipped", "dangling")
	if len(fields) != 1 || fields["queue"] != "crawl_tasks_land" {
		t.Fatalf("toFields: got %v", fields)
	}
}
