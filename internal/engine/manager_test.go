package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exsim-backend/internal/model"
)

func assertInvariants(t *testing.T, s *model.ExamSession) {
	t.Helper()
	require.NotNil(t, s)
	assert.GreaterOrEqual(t, s.CurrentIndex, 0)
	assert.LessOrEqual(t, s.CurrentIndex, len(s.Modules))
	assert.Len(t, s.Results, s.CurrentIndex)
	assert.GreaterOrEqual(t, s.CurrentLevel, 1)
	assert.LessOrEqual(t, s.CurrentLevel, 5)
	assert.Equal(t, s.CurrentIndex == len(s.Modules), s.Status == model.SessionStatusCompleted)
	assert.Equal(t, s.Status == model.SessionStatusCompleted, s.CompletedAt != nil)
}

func TestStart_QuickMode(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	s, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)
	assertInvariants(t, s)

	assert.Len(t, s.Modules, 5)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, 1, s.CurrentLevel)
	assert.Empty(t, s.Results)
	assert.Equal(t, model.SessionStatusActive, s.Status)
	assert.Equal(t, "quick", s.ExamMode)
	assert.Equal(t, "owner-1", s.OwnerID)
	assert.NotNil(t, h.snapshots.get("owner-1"), "snapshot must be written before Start returns")
}

func TestStart_UnknownModeFallsBackToStandard(t *testing.T) {
	h := newHarness(t, nil)

	s, err := h.manager.Start(context.Background(), "marathon")
	require.NoError(t, err)
	assert.Equal(t, "standard", s.ExamMode)
	assert.Len(t, s.Modules, 10)
}

func TestStart_WhileActive(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)

	_, err = h.manager.Start(ctx, "quick")
	require.ErrorIs(t, err, ErrSessionActive)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStart_NoActiveModules(t *testing.T) {
	mods := fiveModules()
	for i := range mods {
		mods[i].Active = false
	}
	h := newHarness(t, mods)

	_, err := h.manager.Start(context.Background(), "quick")
	require.ErrorIs(t, err, ErrNoModulesAvailable)
	assert.Nil(t, h.manager.Session())
}

func TestStart_SaveFailure(t *testing.T) {
	h := newHarness(t, fiveModules())
	h.snapshots.failSave = true

	_, err := h.manager.Start(context.Background(), "quick")
	require.ErrorIs(t, err, ErrSaveFailed)
	assert.Nil(t, h.manager.Session())
	assert.Empty(t, h.publisher.events)
}

func TestSubmit_QuickScenarioAllPasses(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)

	s, err := h.manager.SubmitResult(ctx, pass(10, 10))
	require.NoError(t, err)
	assertInvariants(t, s)
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, 2, s.CurrentLevel)
	require.Len(t, s.Results, 1)
	assert.Equal(t, 1, s.Results[0].Level)

	wantLevels := []int{3, 4, 5, 5}
	for i, want := range wantLevels {
		assert.Equal(t, model.SessionStatusActive, s.Status, "completed too early at submit %d", i+2)
		s, err = h.manager.SubmitResult(ctx, pass(10, 10))
		require.NoError(t, err)
		assertInvariants(t, s)
		assert.Equal(t, want, s.CurrentLevel)
	}

	assert.Equal(t, 5, s.CurrentIndex)
	assert.Equal(t, model.SessionStatusCompleted, s.Status)
	require.NotNil(t, s.CompletedAt)

	levels := make([]int, 0, len(s.Results))
	for _, r := range s.Results {
		levels = append(levels, r.Level)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, levels)

	for i, r := range s.Results {
		assert.Equal(t, s.Modules[i].ID, r.ModuleID)
		assert.Equal(t, s.Modules[i].Category, r.Category)
	}
}

func TestSubmit_LevelFloor(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		s, err := h.manager.SubmitResult(ctx, fail(0, 10))
		require.NoError(t, err)
		assert.Equal(t, 1, s.CurrentLevel)
	}
}

func TestSubmit_NoSession(t *testing.T) {
	h := newHarness(t, fiveModules())

	_, err := h.manager.SubmitResult(context.Background(), pass(1, 1))
	require.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmit_AfterCompletion(t *testing.T) {
	h := newHarness(t, fiveModules()[:1])
	ctx := context.Background()

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)
	_, err = h.manager.SubmitResult(ctx, pass(1, 1))
	require.NoError(t, err)

	_, err = h.manager.SubmitResult(ctx, pass(1, 1))
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, h.manager.Session().Results, 1)
}

func TestSubmit_SaveFailureLeavesSessionUnchanged(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)
	_, err = h.manager.SubmitResult(ctx, pass(10, 10))
	require.NoError(t, err)

	before := h.manager.Session()
	snapshotBefore := h.snapshots.get("owner-1")
	events := len(h.publisher.events)

	h.snapshots.failSave = true
	_, err = h.manager.SubmitResult(ctx, pass(10, 10))
	require.ErrorIs(t, err, ErrSaveFailed)
	assert.ErrorIs(t, err, errStoreDown)

	assert.Equal(t, before, h.manager.Session())
	assert.Equal(t, snapshotBefore, h.snapshots.get("owner-1"))
	assert.Len(t, h.publisher.events, events)

	h.snapshots.failSave = false
	s, err := h.manager.SubmitResult(ctx, pass(10, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentIndex)
	assert.Equal(t, 2, s.Results[1].Level)
}

func TestSubmit_InvalidOutcome(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)

	_, err = h.manager.SubmitResult(ctx, model.Outcome{Passed: true, Score: -1, MaxScore: 10})
	require.ErrorIs(t, err, ErrInvalidOutcome)
	assert.Equal(t, 0, h.manager.Session().CurrentIndex)
}

func TestFinish_SingleFailHitsFloor(t *testing.T) {
	h := newHarness(t, fiveModules()[:1])
	ctx := context.Background()

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)
	_, err = h.manager.SubmitResult(ctx, fail(0, 10))
	require.NoError(t, err)

	report, err := h.manager.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 70, report.AbilityIndex)
	assert.Equal(t, "needs_support", report.Band)
	assert.Equal(t, 0, report.Percentage)
	assert.Equal(t, -3.0, report.AbilityEstimate)

	require.Len(t, h.reports.reports, 1)
	assert.Equal(t, report.SessionID, h.reports.reports[0].SessionID)
	assert.Nil(t, h.snapshots.get("owner-1"))
	assert.Nil(t, h.manager.Session())
}

func TestFinish_PerfectAtLevelOne(t *testing.T) {
	h := newHarness(t, fiveModules()[:1])
	ctx := context.Background()

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)
	_, err = h.manager.SubmitResult(ctx, pass(10, 10))
	require.NoError(t, err)

	report, err := h.manager.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 112, report.AbilityIndex)
	assert.Equal(t, 100, report.Percentage)
	assert.Equal(t, 3.0, report.AbilityEstimate)
	assert.Equal(t, 1, report.ModuleCount)
	assert.False(t, report.CompletedAt.IsZero())
}

func TestFinish_BeforeCompletion(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err)

	_, err = h.manager.Finish(ctx)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotNil(t, h.snapshots.get("owner-1"))
	assert.Empty(t, h.reports.reports)
}

func TestFinish_Twice(t *testing.T) {
	h := newHarness(t, fiveModules()[:1])
	ctx := context.Background()

	_, _ = h.manager.Start(ctx, "quick")
	_, _ = h.manager.SubmitResult(ctx, pass(5, 10))
	_, err := h.manager.Finish(ctx)
	require.NoError(t, err)

	_, err = h.manager.Finish(ctx)
	require.ErrorIs(t, err, ErrNoSession)
	assert.Len(t, h.reports.reports, 1)
}

func TestFinish_ArchiveFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, fiveModules()[:2])
	ctx := context.Background()
	h.reports.fail = true

	_, _ = h.manager.Start(ctx, "quick")
	_, _ = h.manager.SubmitResult(ctx, pass(10, 10))
	_, _ = h.manager.SubmitResult(ctx, fail(2, 10))

	report, err := h.manager.Finish(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 60, report.Percentage)
	assert.Nil(t, h.snapshots.get("owner-1"), "snapshot is cleared even when archival fails")
	assert.Nil(t, h.manager.Session())
}

func TestFinish_ArchiveIgnoresCallerCancellation(t *testing.T) {
	h := newHarness(t, fiveModules()[:1])
	ctx, cancel := context.WithCancel(context.Background())

	_, _ = h.manager.Start(ctx, "quick")
	_, _ = h.manager.SubmitResult(ctx, pass(10, 10))
	cancel()

	_, err := h.manager.Finish(ctx)
	require.NoError(t, err)
	require.Len(t, h.reports.reports, 1)
	assert.NoError(t, h.reports.ctxErr)
}

func TestFinish_ClearsSnapshotAfterCallerCancellation(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx, cancel := context.WithCancel(context.Background())

	_, _ = h.manager.Start(ctx, "quick")
	for i := 0; i < 5; i++ {
		_, err := h.manager.SubmitResult(ctx, pass(10, 10))
		require.NoError(t, err)
	}
	require.NotNil(t, h.snapshots.get("owner-1"))
	cancel()

	report, err := h.manager.Finish(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Nil(t, h.snapshots.get("owner-1"))

	restored, err := h.newManager("owner-1", fiveModules()).Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, restored, "a finished session must not come back")
}

func TestFinish_WithoutReportStore(t *testing.T) {
	h := newHarness(t, fiveModules()[:1])
	h.manager.reports = nil
	ctx := context.Background()

	_, _ = h.manager.Start(ctx, "quick")
	_, _ = h.manager.SubmitResult(ctx, pass(10, 10))

	report, err := h.manager.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 112, report.AbilityIndex)
}

func TestAbandon_MidSession(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, _ = h.manager.Start(ctx, "quick")
	_, _ = h.manager.SubmitResult(ctx, pass(10, 10))

	require.NoError(t, h.manager.Abandon(ctx))
	assert.Nil(t, h.snapshots.get("owner-1"))
	assert.Empty(t, h.reports.reports)
	assert.Nil(t, h.manager.Session())

	_, err := h.manager.Start(ctx, "quick")
	require.NoError(t, err, "a new session may start after abandoning")
}

func TestAbandon_CompletedButUnfinished(t *testing.T) {
	h := newHarness(t, fiveModules()[:1])
	ctx := context.Background()

	_, _ = h.manager.Start(ctx, "quick")
	_, _ = h.manager.SubmitResult(ctx, pass(10, 10))

	require.NoError(t, h.manager.Abandon(ctx))
	assert.Empty(t, h.reports.reports)
	assert.Nil(t, h.snapshots.get("owner-1"))
}

func TestAbandon_NoSession(t *testing.T) {
	h := newHarness(t, fiveModules())
	require.ErrorIs(t, h.manager.Abandon(context.Background()), ErrNoSession)
}

func TestAbandon_DeleteFailureKeepsSession(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, _ = h.manager.Start(ctx, "quick")
	h.snapshots.failDelete = true

	err := h.manager.Abandon(ctx)
	require.ErrorIs(t, err, ErrSaveFailed)
	require.NotNil(t, h.manager.Session())
	assert.Equal(t, model.SessionStatusActive, h.manager.Session().Status)
}

func TestRestore_RoundTrip(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, _ = h.manager.Start(ctx, "quick")
	_, _ = h.manager.SubmitResult(ctx, pass(10, 10))
	want, err := h.manager.SubmitResult(ctx, fail(3, 10))
	require.NoError(t, err)

	other := h.newManager("owner-1", fiveModules())
	got, err := other.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	s, err := other.SubmitResult(ctx, pass(10, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentIndex)
	// pass then fail: 1 -> 2 -> 1, so the restored session attempts at level 1.
	assert.Equal(t, 1, s.Results[2].Level)
	assert.Equal(t, 2, s.CurrentLevel)
}

func TestRestore_NoSnapshot(t *testing.T) {
	h := newHarness(t, fiveModules())

	s, err := h.manager.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRestore_CorruptSnapshot(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"modules": [`},
		{"missing current_index", `{"id":"x","owner_id":"owner-1","started_at":"2026-01-01T00:00:00Z","modules":[{"id":"m1","category":"memory","time_limit":90}],"current_level":1,"results":[],"status":"active"}`},
		{"missing modules", `{"id":"x","owner_id":"owner-1","started_at":"2026-01-01T00:00:00Z","current_index":0,"current_level":1,"results":[],"status":"active"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, fiveModules())
			h.snapshots.data["owner-1"] = []byte(tt.data)

			s, err := h.manager.Restore(context.Background())
			require.NoError(t, err)
			assert.Nil(t, s)
			assert.Nil(t, h.manager.Session())

			_, err = h.manager.Start(context.Background(), "quick")
			require.NoError(t, err, "a corrupt snapshot must not block a new session")
		})
	}
}

func TestRestore_ForeignOwner(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, _ = h.manager.Start(ctx, "quick")
	h.snapshots.data["owner-2"] = h.snapshots.get("owner-1")

	other := h.newManager("owner-2", fiveModules())
	s, err := other.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRestore_LoadError(t *testing.T) {
	h := newHarness(t, fiveModules())
	h.snapshots.failLoad = true

	_, err := h.manager.Restore(context.Background())
	require.ErrorIs(t, err, errStoreDown)
}

func TestProgress(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	assert.Equal(t, model.Progress{}, h.manager.Progress())

	_, _ = h.manager.Start(ctx, "quick")
	assert.Equal(t, model.Progress{Current: 1, Total: 5, Percentage: 0}, h.manager.Progress())

	_, _ = h.manager.SubmitResult(ctx, pass(1, 1))
	_, _ = h.manager.SubmitResult(ctx, pass(1, 1))
	assert.Equal(t, model.Progress{Current: 3, Total: 5, Percentage: 40}, h.manager.Progress())

	for i := 0; i < 3; i++ {
		_, _ = h.manager.SubmitResult(ctx, pass(1, 1))
	}
	assert.Equal(t, model.Progress{Current: 5, Total: 5, Percentage: 100}, h.manager.Progress())
}

func TestAssignment(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, err := h.manager.Assignment()
	require.ErrorIs(t, err, ErrNoSession)

	s, _ := h.manager.Start(ctx, "quick")
	a, err := h.manager.Assignment()
	require.NoError(t, err)
	assert.Equal(t, s.Modules[0].ID, a.ModuleID)
	assert.Equal(t, 1, a.Level)
	assert.Equal(t, "easy", a.Profile.Name)
	assert.Equal(t, int(float64(s.Modules[0].TimeLimit)*1.5+0.5), a.TimeLimitSeconds)
	assert.Equal(t, 1, a.Position)
	assert.Equal(t, 5, a.Total)

	_, _ = h.manager.SubmitResult(ctx, pass(1, 1))
	a, err = h.manager.Assignment()
	require.NoError(t, err)
	assert.Equal(t, s.Modules[1].ID, a.ModuleID)
	assert.Equal(t, 2, a.Level)
	assert.Equal(t, 0.8, a.ItemCountMultiplier)

	for i := 0; i < 4; i++ {
		_, _ = h.manager.SubmitResult(ctx, pass(1, 1))
	}
	_, err = h.manager.Assignment()
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSummary(t *testing.T) {
	h := newHarness(t, fiveModules())
	ctx := context.Background()

	_, _ = h.manager.Start(ctx, "quick")
	_, _ = h.manager.SubmitResult(ctx, pass(8, 10))
	_, _ = h.manager.SubmitResult(ctx, fail(2, 10))

	sum := h.manager.Summary()
	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1.5, sum.MeanLevel)
	assert.Equal(t, 10.0, sum.ScoreSum)
}

func TestEvents(t *testing.T) {
	h := newHarness(t, fiveModules()[:2])
	ctx := context.Background()

	_, _ = h.manager.Start(ctx, "quick")
	_, _ = h.manager.SubmitResult(ctx, pass(1, 1))
	_, _ = h.manager.SubmitResult(ctx, pass(1, 1))
	_, _ = h.manager.Finish(ctx)

	assert.Equal(t, []model.SessionEventType{
		model.EventSessionStarted,
		model.EventResultRecorded,
		model.EventResultRecorded,
		model.EventSessionComplete,
		model.EventSessionFinished,
	}, h.publisher.types())

	last := h.publisher.events[len(h.publisher.events)-1]
	require.NotNil(t, last.Report)
	assert.Equal(t, "owner-1", last.OwnerID)
	require.NotNil(t, h.publisher.events[1].Result)
	assert.Equal(t, 1, h.publisher.events[1].Result.Level)
}

func TestSession_ReturnsCopy(t *testing.T) {
	h := newHarness(t, fiveModules())
	_, _ = h.manager.Start(context.Background(), "quick")

	s := h.manager.Session()
	s.Modules[0].ID = "tampered"
	s.CurrentIndex = 4
	assert.NotEqual(t, "tampered", h.manager.Session().Modules[0].ID)
	assert.Equal(t, 0, h.manager.Session().CurrentIndex)
}
