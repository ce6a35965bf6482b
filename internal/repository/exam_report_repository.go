package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exsim-backend/internal/model"
)

const insertReportSQL = `
	INSERT INTO exam_reports (
		session_id, owner_id, exam_mode, started_at, completed_at,
		module_count, results, categories, pass_count, fail_count,
		mean_level, final_score, ability_index, raw_index,
		ability_band, band_label, ability_estimate
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (session_id) DO NOTHING`

const selectReportSQL = `
	SELECT session_id, owner_id, exam_mode, started_at, completed_at,
	       module_count, results, categories, pass_count, fail_count,
	       mean_level, final_score, ability_index, raw_index,
	       ability_band, band_label, ability_estimate
	FROM exam_reports`

// ExamReportRepository archives finished reports in PostgreSQL.
// Each session is written at most once.
type ExamReportRepository struct {
	pool *pgxpool.Pool
}

// NewExamReportRepository creates a new ExamReportRepository.
func NewExamReportRepository(pool *pgxpool.Pool) *ExamReportRepository {
	return &ExamReportRepository{pool: pool}
}

// SaveReport inserts one report. A duplicate session id is ignored.
func (r *ExamReportRepository) SaveReport(ctx context.Context, report *model.ExamReport) error {
	args, err := reportArgs(report)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, insertReportSQL, args...); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// SaveBatch inserts many reports in one round trip.
func (r *ExamReportRepository) SaveBatch(ctx context.Context, reports []*model.ExamReport) error {
	if len(reports) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, report := range reports {
		args, err := reportArgs(report)
		if err != nil {
			return err
		}
		batch.Queue(insertReportSQL, args...)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range reports {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch insert reports: %w", err)
		}
	}
	return nil
}

// GetByID returns one of the owner's reports.
func (r *ExamReportRepository) GetByID(ctx context.Context, ownerID, sessionID string) (*model.ExamReport, error) {
	row := r.pool.QueryRow(ctx, selectReportSQL+` WHERE session_id = $1 AND owner_id = $2`, sessionID, ownerID)
	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListByOwner returns the owner's most recent reports, newest first.
func (r *ExamReportRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.ExamReport, error) {
	rows, err := r.pool.Query(ctx,
		selectReportSQL+` WHERE owner_id = $1 ORDER BY completed_at DESC LIMIT $2`, ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []model.ExamReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

func reportArgs(report *model.ExamReport) ([]any, error) {
	results, err := json.Marshal(report.Results)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	categories, err := json.Marshal(report.Categories)
	if err != nil {
		return nil, fmt.Errorf("marshal categories: %w", err)
	}
	return []any{
		report.SessionID, report.OwnerID, report.ExamMode, report.StartedAt, report.CompletedAt,
		report.ModuleCount, results, categories, report.PassCount, report.FailCount,
		report.MeanLevel, report.Percentage, report.AbilityIndex, report.RawIndex,
		report.Band, report.BandLabel, report.AbilityEstimate,
	}, nil
}

func scanReport(row pgx.Row) (*model.ExamReport, error) {
	var (
		rep        model.ExamReport
		results    []byte
		categories []byte
	)
	err := row.Scan(
		&rep.SessionID, &rep.OwnerID, &rep.ExamMode, &rep.StartedAt, &rep.CompletedAt,
		&rep.ModuleCount, &results, &categories, &rep.PassCount, &rep.FailCount,
		&rep.MeanLevel, &rep.Percentage, &rep.AbilityIndex, &rep.RawIndex,
		&rep.Band, &rep.BandLabel, &rep.AbilityEstimate,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(results, &rep.Results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	if err := json.Unmarshal(categories, &rep.Categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return &rep, nil
}
