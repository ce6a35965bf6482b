package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exsim-backend/internal/config"
	"github.com/stemsi/exsim-backend/internal/logger"
	"github.com/stemsi/exsim-backend/internal/model"
)

const (
	ReportBatchSize    = 50
	ReportBatchTimeout = 2 * time.Second
	ReportPollTimeout  = 1 * time.Second
)

// ReportSink is the durable archive behind the queue.
type ReportSink interface {
	SaveBatch(ctx context.Context, reports []*model.ExamReport) error
	SaveReport(ctx context.Context, report *model.ExamReport) error
}

// ReportWorker drains the report queue into the archive. Reports that cannot
// be written are logged and dropped; archival is best-effort and never retried.
type ReportWorker struct {
	sink ReportSink
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewReportWorker(sink ReportSink, rdb *redis.Client, log zerolog.Logger) *ReportWorker {
	return &ReportWorker{
		sink: sink,
		rdb:  rdb,
		log:  logger.Component(log, "report_worker"),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ReportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReportWorker started")

	batch := make([]*model.ExamReport, 0, ReportBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ReportBatchSize || time.Since(lastFlush) >= ReportBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ReportPollTimeout, config.WorkerKey.PersistReportsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					// Back off so a dead Redis does not spin the loop.
					time.Sleep(ReportPollTimeout)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var report model.ExamReport
			if err := json.Unmarshal([]byte(item[1]), &report); err != nil {
				w.log.Error().Err(err).Msg("Invalid report payload, dropping")
				continue
			}
			if report.SessionID == "" || report.OwnerID == "" {
				w.log.Error().Msg("Report payload without session or owner, dropping")
				continue
			}

			batch = append(batch, &report)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with single-row fallback
// ----------------------------------------------------------------

func (w *ReportWorker) flushSafe(ctx context.Context, batch []*model.ExamReport) {
	if len(batch) == 0 {
		return
	}

	err := w.sink.SaveBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Archived report batch")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Batch report insert failed, using fallback")

	for _, r := range batch {
		if err := w.sink.SaveReport(ctx, r); err != nil {
			w.log.Error().Err(err).
				Str("session_id", r.SessionID).
				Str("owner_id", r.OwnerID).
				Msg("Report archival failed, dropping")
		}
	}
}
