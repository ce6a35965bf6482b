// Package engine runs one owner's assessment session: it selects modules,
// adapts difficulty, records outcomes, persists snapshots and builds the
// final report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exsim-backend/internal/catalog"
	"github.com/stemsi/exsim-backend/internal/difficulty"
	"github.com/stemsi/exsim-backend/internal/logger"
	"github.com/stemsi/exsim-backend/internal/model"
	"github.com/stemsi/exsim-backend/internal/scoring"
)

// DefaultArchiveTimeout bounds the best-effort report write in Finish.
const DefaultArchiveTimeout = 5 * time.Second

// Options customizes a Manager. Zero fields fall back to defaults.
type Options struct {
	Modules        []model.Module
	Modes          []model.ExamMode
	Policy         *scoring.Policy
	Rand           catalog.RandomSource
	Now            func() time.Time
	NewID          func() string
	Publisher      Publisher
	ArchiveTimeout time.Duration
}

// Manager owns the session of a single owner. It is not safe for concurrent
// use; callers serialize transitions.
type Manager struct {
	ownerID        string
	snapshots      SnapshotStore
	reports        ReportStore
	publisher      Publisher
	modules        []model.Module
	modes          []model.ExamMode
	policy         scoring.Policy
	rng            catalog.RandomSource
	now            func() time.Time
	newID          func() string
	archiveTimeout time.Duration
	log            zerolog.Logger

	session *model.ExamSession
}

// NewManager creates an inactive Manager for ownerID.
func NewManager(ownerID string, snapshots SnapshotStore, reports ReportStore, log zerolog.Logger, opts Options) *Manager {
	m := &Manager{
		ownerID:        ownerID,
		snapshots:      snapshots,
		reports:        reports,
		publisher:      opts.Publisher,
		modules:        opts.Modules,
		modes:          opts.Modes,
		rng:            opts.Rand,
		now:            opts.Now,
		newID:          opts.NewID,
		archiveTimeout: opts.ArchiveTimeout,
		log:            logger.Component(log, "exam_engine").With().Str("owner_id", ownerID).Logger(),
	}

	if m.modules == nil {
		m.modules = catalog.Modules()
	}
	if m.modes == nil {
		m.modes = catalog.Modes()
	}
	if opts.Policy != nil {
		m.policy = *opts.Policy
	} else {
		m.policy = scoring.DefaultPolicy()
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	if m.newID == nil {
		m.newID = func() string { return uuid.New().String() }
	}
	if m.archiveTimeout <= 0 {
		m.archiveTimeout = DefaultArchiveTimeout
	}
	return m
}

// OwnerID returns the owner this manager serves.
func (m *Manager) OwnerID() string { return m.ownerID }

// Session returns a copy of the current session, or nil when inactive.
func (m *Manager) Session() *model.ExamSession {
	return m.session.Clone()
}

// Restore replaces the in-memory state with the owner's snapshot. A missing,
// corrupt or foreign snapshot leaves the manager inactive and is not an error.
func (m *Manager) Restore(ctx context.Context) (*model.ExamSession, error) {
	data, err := m.snapshots.Load(ctx, m.ownerID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if data == nil {
		m.session = nil
		return nil, nil
	}

	s, err := DecodeSnapshot(data)
	if err != nil {
		m.log.Warn().Err(err).Msg("Ignoring unreadable session snapshot")
		m.session = nil
		return nil, nil
	}
	if s.OwnerID != m.ownerID {
		m.log.Warn().Str("snapshot_owner", s.OwnerID).Msg("Ignoring snapshot of another owner")
		m.session = nil
		return nil, nil
	}

	m.session = s
	return s.Clone(), nil
}

// Start begins a new session in the given mode. Unknown modes fall back to
// the default mode.
func (m *Manager) Start(ctx context.Context, modeID string) (*model.ExamSession, error) {
	if m.session != nil {
		return nil, ErrSessionActive
	}

	mode := catalog.ResolveMode(m.modes, modeID)
	selected := catalog.Select(m.modules, mode.ModuleCount, m.rng)
	if len(selected) == 0 {
		return nil, ErrNoModulesAvailable
	}

	s := &model.ExamSession{
		ID:           m.newID(),
		OwnerID:      m.ownerID,
		ExamMode:     mode.ID,
		StartedAt:    m.now(),
		Modules:      selected,
		CurrentIndex: 0,
		CurrentLevel: difficulty.StartLevel,
		Results:      []model.ModuleResult{},
		Status:       model.SessionStatusActive,
	}

	if err := m.persist(ctx, s); err != nil {
		return nil, err
	}
	m.session = s

	m.log.Info().
		Str("session_id", s.ID).
		Str("mode", mode.ID).
		Int("modules", len(selected)).
		Msg("Exam session started")

	m.publish(ctx, model.EventSessionStarted, nil, nil)
	return s.Clone(), nil
}

// CurrentModule returns the module awaiting an outcome.
func (m *Manager) CurrentModule() (model.Module, bool) {
	if m.session == nil || m.session.Status != model.SessionStatusActive ||
		m.session.CurrentIndex >= len(m.session.Modules) {
		return model.Module{}, false
	}
	return m.session.Modules[m.session.CurrentIndex], true
}

// Assignment describes the current module for the module runner, tuned to
// the level it will be attempted at.
func (m *Manager) Assignment() (*model.Assignment, error) {
	if m.session == nil {
		return nil, ErrNoSession
	}
	mod, ok := m.CurrentModule()
	if !ok {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidTransition, m.session.Status)
	}

	profile := difficulty.ProfileFor(m.session.CurrentLevel)
	return &model.Assignment{
		ModuleID:            mod.ID,
		Title:               mod.Title,
		Link:                mod.Link,
		Category:            mod.Category,
		Level:               profile.Level,
		Profile:             profile,
		TimeLimitSeconds:    difficulty.TimeLimit(mod.TimeLimit, profile.Level),
		ItemCountMultiplier: profile.ItemCountMultiplier,
		Position:            m.session.CurrentIndex + 1,
		Total:               len(m.session.Modules),
	}, nil
}

// SubmitResult records the outcome of the current module, re-levels and
// advances. The snapshot is written before the change is committed; when
// that write fails the session is left exactly as it was.
func (m *Manager) SubmitResult(ctx context.Context, outcome model.Outcome) (*model.ExamSession, error) {
	if m.session == nil {
		return nil, ErrNoSession
	}
	mod, ok := m.CurrentModule()
	if !ok {
		return nil, fmt.Errorf("%w: cannot submit a result, session is %s", ErrInvalidTransition, m.session.Status)
	}
	if err := validateOutcome(outcome); err != nil {
		return nil, err
	}

	next := m.session.Clone()
	result := model.ModuleResult{
		ModuleID:    mod.ID,
		ModuleTitle: mod.Title,
		Level:       next.CurrentLevel,
		Passed:      outcome.Passed,
		Score:       outcome.Score,
		MaxScore:    outcome.MaxScore,
		Duration:    outcome.DurationSeconds,
		Category:    mod.Category,
	}
	next.CurrentLevel = difficulty.NextLevel(next.CurrentLevel, outcome.Passed)
	next.Results = append(next.Results, result)
	next.CurrentIndex++

	if next.CurrentIndex >= len(next.Modules) {
		completedAt := m.now()
		next.Status = model.SessionStatusCompleted
		next.CompletedAt = &completedAt
	}

	if err := m.persist(ctx, next); err != nil {
		return nil, err
	}
	m.session = next

	m.log.Debug().
		Str("session_id", next.ID).
		Str("module_id", mod.ID).
		Bool("passed", outcome.Passed).
		Int("level", result.Level).
		Int("next_level", next.CurrentLevel).
		Msg("Module result recorded")

	m.publish(ctx, model.EventResultRecorded, &result, nil)

	if next.Status == model.SessionStatusCompleted {
		m.log.Info().Str("session_id", next.ID).Msg("Exam session completed")
		m.publish(ctx, model.EventSessionComplete, nil, nil)
	}
	return next.Clone(), nil
}

// Finish scores a completed session, archives the report best-effort and
// clears the snapshot. The manager is inactive afterwards.
func (m *Manager) Finish(ctx context.Context) (*model.ExamReport, error) {
	if m.session == nil {
		return nil, ErrNoSession
	}
	if m.session.Status != model.SessionStatusCompleted {
		return nil, fmt.Errorf("%w: cannot finish, session is %s", ErrInvalidTransition, m.session.Status)
	}

	report := m.policy.BuildReport(m.session)
	m.archive(ctx, report)

	m.clearSnapshot(ctx, report.SessionID)

	m.log.Info().
		Str("session_id", report.SessionID).
		Int("ability_index", report.AbilityIndex).
		Int("percentage", report.Percentage).
		Str("band", report.Band).
		Msg("Exam session finished")

	m.publish(ctx, model.EventSessionFinished, nil, report)
	m.session = nil
	return report, nil
}

// Abandon discards the session without recording anything. Confirmation
// is the caller's responsibility.
func (m *Manager) Abandon(ctx context.Context) error {
	if m.session == nil {
		return ErrNoSession
	}

	if err := m.snapshots.Delete(ctx, m.ownerID); err != nil {
		return fmt.Errorf("%w: clear snapshot: %w", ErrSaveFailed, err)
	}

	m.session.Status = model.SessionStatusAbandoned
	m.log.Info().
		Str("session_id", m.session.ID).
		Int("completed_modules", m.session.CurrentIndex).
		Msg("Exam session abandoned")

	m.publish(ctx, model.EventSessionAbandon, nil, nil)
	m.session = nil
	return nil
}

// Progress reports how far the session has come. An inactive manager
// reports zero progress.
func (m *Manager) Progress() model.Progress {
	if m.session == nil {
		return model.Progress{}
	}
	return progressOf(m.session)
}

// Summary aggregates the results recorded so far.
func (m *Manager) Summary() scoring.Summary {
	if m.session == nil {
		return scoring.Summarize(nil)
	}
	return scoring.Summarize(m.session.Results)
}

func progressOf(s *model.ExamSession) model.Progress {
	total := len(s.Modules)
	if total == 0 {
		return model.Progress{}
	}
	current := s.CurrentIndex + 1
	if current > total {
		current = total
	}
	return model.Progress{
		Current:    current,
		Total:      total,
		Percentage: int(math.Round(float64(s.CurrentIndex) / float64(total) * 100)),
	}
}

func validateOutcome(o model.Outcome) error {
	for name, v := range map[string]float64{
		"score":     o.Score,
		"max_score": o.MaxScore,
		"duration":  o.DurationSeconds,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidOutcome, name)
		}
	}
	return nil
}

func (m *Manager) persist(ctx context.Context, s *model.ExamSession) error {
	data, err := EncodeSnapshot(s)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrSaveFailed, err)
	}
	if err := m.snapshots.Save(ctx, m.ownerID, data); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return nil
}

// archive writes the report without letting a caller cancellation abort
// the in-flight write. Failures are logged and swallowed.
func (m *Manager) archive(ctx context.Context, report *model.ExamReport) {
	if m.reports == nil {
		return
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.archiveTimeout)
	defer cancel()

	if err := m.reports.SaveReport(actx, report); err != nil {
		m.log.Error().Err(err).Str("session_id", report.SessionID).Msg("Failed to archive exam report")
	}
}

// clearSnapshot removes the finished session's snapshot even when the
// caller has gone away, so a finished session is never restored.
func (m *Manager) clearSnapshot(ctx context.Context, sessionID string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.archiveTimeout)
	defer cancel()

	if err := m.snapshots.Delete(dctx, m.ownerID); err != nil {
		m.log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to clear session snapshot")
	}
}

func (m *Manager) publish(ctx context.Context, typ model.SessionEventType, result *model.ModuleResult, report *model.ExamReport) {
	if m.publisher == nil || m.session == nil {
		return
	}

	event := model.SessionEvent{
		Type:      typ,
		OwnerID:   m.ownerID,
		SessionID: m.session.ID,
		Progress:  progressOf(m.session),
		Level:     m.session.CurrentLevel,
		Result:    result,
		Report:    report,
		At:        m.now(),
	}
	if err := m.publisher.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		m.log.Warn().Err(err).Str("event", string(typ)).Msg("Failed to publish session event")
	}
}
