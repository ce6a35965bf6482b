package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exsim-backend/internal/model"
)

var errStoreDown = errors.New("store unavailable")

type memSnapshots struct {
	mu         sync.Mutex
	data       map[string][]byte
	failSave   bool
	failLoad   bool
	failDelete bool
	saves      int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: make(map[string][]byte)}
}

func (s *memSnapshots) Save(_ context.Context, ownerID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errStoreDown
	}
	s.saves++
	s.data[ownerID] = append([]byte(nil), data...)
	return nil
}

func (s *memSnapshots) Load(_ context.Context, ownerID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad {
		return nil, errStoreDown
	}
	return s.data[ownerID], nil
}

func (s *memSnapshots) Delete(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failDelete {
		return errStoreDown
	}
	delete(s.data, ownerID)
	return nil
}

func (s *memSnapshots) get(ownerID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[ownerID]
}

type memReports struct {
	reports []*model.ExamReport
	fail    bool
	ctxErr  error
}

func (r *memReports) SaveReport(ctx context.Context, report *model.ExamReport) error {
	r.ctxErr = ctx.Err()
	if r.fail {
		return errStoreDown
	}
	r.reports = append(r.reports, report)
	return nil
}

type recordingPublisher struct {
	events []model.SessionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.SessionEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []model.SessionEventType {
	out := make([]model.SessionEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

var testEpoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func fiveModules() []model.Module {
	return []model.Module{
		{ID: "m1", Title: "One", Link: "/games/one", Category: model.CategoryMemory, TimeLimit: 120, Active: true},
		{ID: "m2", Title: "Two", Link: "/games/two", Category: model.CategoryLogic, TimeLimit: 90, Active: true},
		{ID: "m3", Title: "Three", Link: "/games/three", Category: model.CategoryAttention, TimeLimit: 90, Active: true},
		{ID: "m4", Title: "Four", Link: "/games/four", Category: model.CategoryVerbal, TimeLimit: 60, Active: true},
		{ID: "m5", Title: "Five", Link: "/games/five", Category: model.CategorySpeed, TimeLimit: 150, Active: true},
	}
}

type harness struct {
	snapshots *memSnapshots
	reports   *memReports
	publisher *recordingPublisher
	manager   *Manager
}

func newHarness(t *testing.T, modules []model.Module) *harness {
	t.Helper()
	h := &harness{
		snapshots: newMemSnapshots(),
		reports:   &memReports{},
		publisher: &recordingPublisher{},
	}
	h.manager = h.newManager("owner-1", modules)
	return h
}

func (h *harness) newManager(ownerID string, modules []model.Module) *Manager {
	clock := &fixedClock{t: testEpoch}
	ids := 0
	return NewManager(ownerID, h.snapshots, h.reports, zerolog.Nop(), Options{
		Modules:   modules,
		Rand:      rand.New(rand.NewPCG(1, 2)),
		Now:       clock.now,
		NewID:     func() string { ids++; return "session-" + string(rune('0'+ids)) },
		Publisher: h.publisher,
	})
}

func pass(score, max float64) model.Outcome {
	return model.Outcome{Passed: true, Score: score, MaxScore: max, DurationSeconds: 30}
}

func fail(score, max float64) model.Outcome {
	return model.Outcome{Passed: false, Score: score, MaxScore: max, DurationSeconds: 30}
}
