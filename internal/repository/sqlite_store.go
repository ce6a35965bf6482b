package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/stemsi/exsim-backend/internal/model"
)

const (
	snapshotTable = "session_snapshots"
	reportTable   = "exam_reports"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS session_snapshots (
		owner_id   TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS exam_reports (
		session_id    TEXT PRIMARY KEY,
		owner_id      TEXT NOT NULL,
		completed_at  INTEGER NOT NULL,
		ability_index INTEGER NOT NULL,
		payload       BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exam_reports_owner ON exam_reports (owner_id, completed_at)`,
}

// SQLiteStore keeps snapshots and reports in a local SQLite file for the
// offline CLI. It serves as both the snapshot store and the report archive.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates the tables if needed and returns the store.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ensure sqlite schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// Save upserts the owner's snapshot.
func (s *SQLiteStore) Save(ctx context.Context, ownerID string, data []byte) error {
	query, args := builder().
		Insert(snapshotTable).
		Columns("owner_id", "data", "updated_at").
		Values(ownerID, data, s.now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("owner_id"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the owner's snapshot or nil when none exists.
func (s *SQLiteStore) Load(ctx context.Context, ownerID string) ([]byte, error) {
	query, args := builder().
		Select("data").
		From(entsql.Table(snapshotTable)).
		Where(entsql.EQ("owner_id", ownerID)).
		Limit(1).
		Query()

	var data []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}

// Delete removes the owner's snapshot.
func (s *SQLiteStore) Delete(ctx context.Context, ownerID string) error {
	query, args := builder().
		Delete(snapshotTable).
		Where(entsql.EQ("owner_id", ownerID)).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// SaveReport stores the report once; a repeated session id is ignored.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.ExamReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query, args := builder().
		Insert(reportTable).
		Columns("session_id", "owner_id", "completed_at", "ability_index", "payload").
		Values(report.SessionID, report.OwnerID, report.CompletedAt.UnixMilli(), report.AbilityIndex, payload).
		OnConflict(entsql.ConflictColumns("session_id"), entsql.DoNothing()).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// GetByID returns one of the owner's reports.
func (s *SQLiteStore) GetByID(ctx context.Context, ownerID, sessionID string) (*model.ExamReport, error) {
	query, args := builder().
		Select("payload").
		From(entsql.Table(reportTable)).
		Where(entsql.And(
			entsql.EQ("session_id", sessionID),
			entsql.EQ("owner_id", ownerID),
		)).
		Query()

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	var report model.ExamReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// ListByOwner returns the owner's most recent reports, newest first.
func (s *SQLiteStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.ExamReport, error) {
	query, args := builder().
		Select("payload").
		From(entsql.Table(reportTable)).
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy(entsql.Desc("completed_at")).
		Limit(limit).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []model.ExamReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var report model.ExamReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
