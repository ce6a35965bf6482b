package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exsim-backend/internal/config"
	"github.com/stemsi/exsim-backend/internal/model"
)

// ReportQueue hands finished reports to the report worker through a Redis list.
type ReportQueue struct {
	rdb *redis.Client
}

// NewReportQueue creates a new ReportQueue.
func NewReportQueue(rdb *redis.Client) *ReportQueue {
	return &ReportQueue{rdb: rdb}
}

// SaveReport enqueues the report for asynchronous persistence.
func (q *ReportQueue) SaveReport(ctx context.Context, report *model.ExamReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistReportsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue report: %w", err)
	}
	return nil
}
