package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exsim-backend/internal/engine"
	"github.com/stemsi/exsim-backend/internal/middleware"
	"github.com/stemsi/exsim-backend/internal/repository"
	"github.com/stemsi/exsim-backend/internal/response"
	"github.com/stemsi/exsim-backend/internal/service"
	"github.com/stemsi/exsim-backend/internal/validator"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type testEnv struct {
	mr      *miniredis.Miniredis
	rdb     *redis.Client
	reports *repository.MemoryStore
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	reports := repository.NewMemoryStore()
	sessionService := service.NewExamSessionService(
		repository.NewSnapshotRepository(rdb, time.Hour),
		reports,
		reports,
		service.NewCatalogService(),
		engine.Options{Publisher: repository.NewEventPublisher(rdb)},
		zerolog.Nop(),
	)

	env := &testEnv{mr: mr, rdb: rdb, reports: reports}
	env.router = buildTestRouter(rdb, sessionService)
	return env
}

// buildTestRouter mirrors the production route table without the
// process-wide middlewares.
func buildTestRouter(rdb *redis.Client, sessionService *service.ExamSessionService) *gin.Engine {
	log := zerolog.Nop()
	examHandler := NewExamHandler(sessionService, log)
	catalogHandler := NewCatalogHandler(service.NewCatalogService())
	wsHandler := NewWSHandler(rdb, sessionService, log, nil)
	monitorHandler := NewMonitorHandler(rdb, sessionService, log)
	systemHandler := NewSystemHandler(rdb, map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, "direct", log)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	r.GET("/health", systemHandler.Health)

	catalog := r.Group("/api/v1/catalog")
	catalog.GET("/modules", catalogHandler.ListModules)
	catalog.GET("/modes", catalogHandler.ListModes)
	catalog.GET("/difficulty", catalogHandler.ListDifficultyProfiles)

	exam := r.Group("/api/v1/exam", middleware.RequireOwner())
	exam.POST("/start", examHandler.StartExam)
	exam.GET("/session", examHandler.GetSession)
	exam.GET("/current", examHandler.GetCurrentModule)
	exam.POST("/results", examHandler.SubmitResult)
	exam.POST("/finish", examHandler.FinishExam)
	exam.POST("/abandon", examHandler.AbandonExam)
	exam.GET("/reports", examHandler.ListReports)
	exam.GET("/reports/:id", examHandler.GetReport)
	exam.GET("/events", monitorHandler.StreamSessionEvents)

	r.GET("/ws/v1/exam/stream", middleware.RequireOwnerWS(), wsHandler.ExamEventStream)
	r.GET("/api/v1/system/status", systemHandler.Status)
	return r
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func do(t *testing.T, r http.Handler, method, path, owner, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set(middleware.HeaderOwnerID, owner)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// failingSaves rejects every snapshot write.
type failingSaves struct {
	*repository.MemoryStore
}

func (failingSaves) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}
