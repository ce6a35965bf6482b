package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exsim-backend/internal/engine"
	"github.com/stemsi/exsim-backend/internal/model"
	"github.com/stemsi/exsim-backend/internal/scoring"
)

const (
	DefaultReportLimit = 20
	MaxReportLimit     = 100
)

// ReportHistory reads archived reports back.
type ReportHistory interface {
	GetByID(ctx context.Context, ownerID, sessionID string) (*model.ExamReport, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.ExamReport, error)
}

// ExamSessionService drives owners' sessions. Each call restores the owner's
// manager from the snapshot store while holding the owner's lock, so
// transitions for one owner never interleave.
type ExamSessionService struct {
	snapshots engine.SnapshotStore
	reports   engine.ReportStore
	history   ReportHistory
	catalog   *CatalogService
	options   engine.Options
	locks     *ownerLocks
	log       zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService. options carries
// the publisher, policy and seams passed to every engine.Manager.
func NewExamSessionService(
	snapshots engine.SnapshotStore,
	reports engine.ReportStore,
	history ReportHistory,
	catalogService *CatalogService,
	options engine.Options,
	log zerolog.Logger,
) *ExamSessionService {
	options.Modules = catalogService.ModuleTable()
	options.Modes = catalogService.ModeTable()

	return &ExamSessionService{
		snapshots: snapshots,
		reports:   reports,
		history:   history,
		catalog:   catalogService,
		options:   options,
		locks:     newOwnerLocks(),
		log:       log,
	}
}

// SessionState is a restored session with derived progress and aggregate.
type SessionState struct {
	Session    *model.ExamSession `json:"session"`
	Progress   model.Progress     `json:"progress"`
	Summary    scoring.Summary    `json:"summary"`
	Assignment *model.Assignment  `json:"assignment,omitempty"`
}

// withManager runs fn on the owner's restored manager under the owner lock.
func (s *ExamSessionService) withManager(ctx context.Context, ownerID string, fn func(m *engine.Manager) error) error {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	m := engine.NewManager(ownerID, s.snapshots, s.reports, s.log, s.options)
	if _, err := m.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	return fn(m)
}

// Start begins a session in mode for the owner.
func (s *ExamSessionService) Start(ctx context.Context, ownerID, mode string) (*SessionState, error) {
	var state *SessionState
	err := s.withManager(ctx, ownerID, func(m *engine.Manager) error {
		if _, err := m.Start(ctx, mode); err != nil {
			return err
		}
		state = stateOf(m)
		return nil
	})
	return state, err
}

// State returns the owner's current session, or engine.ErrNoSession.
func (s *ExamSessionService) State(ctx context.Context, ownerID string) (*SessionState, error) {
	var state *SessionState
	err := s.withManager(ctx, ownerID, func(m *engine.Manager) error {
		if m.Session() == nil {
			return engine.ErrNoSession
		}
		state = stateOf(m)
		return nil
	})
	return state, err
}

// Current returns the assignment the module runner should present next.
func (s *ExamSessionService) Current(ctx context.Context, ownerID string) (*model.Assignment, error) {
	var assignment *model.Assignment
	err := s.withManager(ctx, ownerID, func(m *engine.Manager) error {
		a, err := m.Assignment()
		assignment = a
		return err
	})
	return assignment, err
}

// Submit records the outcome of the owner's current module.
func (s *ExamSessionService) Submit(ctx context.Context, ownerID string, outcome model.Outcome) (*SessionState, error) {
	var state *SessionState
	err := s.withManager(ctx, ownerID, func(m *engine.Manager) error {
		if _, err := m.SubmitResult(ctx, outcome); err != nil {
			return err
		}
		state = stateOf(m)
		return nil
	})
	return state, err
}

// Finish scores the owner's completed session and returns the report.
func (s *ExamSessionService) Finish(ctx context.Context, ownerID string) (*model.ExamReport, error) {
	var report *model.ExamReport
	err := s.withManager(ctx, ownerID, func(m *engine.Manager) error {
		r, err := m.Finish(ctx)
		report = r
		return err
	})
	return report, err
}

// Abandon discards the owner's session.
func (s *ExamSessionService) Abandon(ctx context.Context, ownerID string) error {
	return s.withManager(ctx, ownerID, func(m *engine.Manager) error {
		return m.Abandon(ctx)
	})
}

// Reports lists the owner's archived reports, newest first.
func (s *ExamSessionService) Reports(ctx context.Context, ownerID string, limit int) ([]model.ExamReport, error) {
	if limit <= 0 {
		limit = DefaultReportLimit
	}
	if limit > MaxReportLimit {
		limit = MaxReportLimit
	}
	reports, err := s.history.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	if reports == nil {
		reports = []model.ExamReport{}
	}
	return reports, nil
}

// Report returns one of the owner's archived reports.
func (s *ExamSessionService) Report(ctx context.Context, ownerID, sessionID string) (*model.ExamReport, error) {
	return s.history.GetByID(ctx, ownerID, sessionID)
}

func stateOf(m *engine.Manager) *SessionState {
	state := &SessionState{
		Session:  m.Session(),
		Progress: m.Progress(),
		Summary:  m.Summary(),
	}
	if a, err := m.Assignment(); err == nil {
		state.Assignment = a
	}
	return state
}
