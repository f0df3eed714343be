package rabbitmq

import (
	"land-crawler-service/internal/core/domain"

	"github.com/google/uuid"
)

// CrawlTaskDTO - задача на обход из очереди crawl_tasks_land
type CrawlTaskDTO struct {
	TaskID uuid.UUID           `json:"task_id"`
	Mode   string              `json:"mode"`
	BBox   *domain.BoundingBox `json:"bbox,omitempty"`
}

// TaskResultDTO - отчет о выполненной задаче
type TaskResultDTO struct {
	TaskID  uuid.UUID      `json:"task_id"`
	Results TaskResultsDTO `json:"results"`
}

type TaskResultsDTO struct {
	Attempted      int  `json:"attempted"`
	Accepted       int  `json:"accepted"`
	Duplicates     int  `json:"duplicates"`
	FailedRecords  int  `json:"failed_records"`
	FailedRequests int  `json:"failed_requests"`
	SectorsVisited int  `json:"sectors_visited"`
	RequestsMade   int  `json:"requests_made"`
	Cancelled      bool `json:"cancelled"`
}

func toTaskResultDTO(taskID uuid.UUID, o *domain.CrawlOutcome) TaskResultDTO {
	return TaskResultDTO{
		TaskID: taskID,
		Results: TaskResultsDTO{
			Attempted:      o.Attempted,
			Accepted:       o.Accepted,
			Duplicates:     o.Duplicates,
			FailedRecords:  len(o.FailedRecords),
			FailedRequests: len(o.FailedRequests),
			SectorsVisited: o.SectorsVisited,
			RequestsMade:   o.RequestsMade,
			Cancelled:      o.Cancelled,
		},
	}
}
