package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REPORT_SINK", "")
	t.Setenv("SNAPSHOT_TTL_HOURS", "")
	t.Setenv("SCORE_CENTER", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")

	cfg := Load()
	assert.Equal(t, ReportSinkDirect, cfg.ReportSink)
	assert.Equal(t, 72*time.Hour, cfg.SnapshotTTL)
	assert.Equal(t, 0.5, cfg.ScoreCenter)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REPORT_SINK", "QUEUE")
	t.Setenv("SNAPSHOT_TTL_HOURS", "0")
	t.Setenv("SCORE_MIN", "150")
	t.Setenv("SCORE_MAX", "60")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	assert.Equal(t, ReportSinkQueue, cfg.ReportSink)
	assert.Equal(t, time.Duration(0), cfg.SnapshotTTL)
	assert.Equal(t, 60.0, cfg.ScoreMin)
	assert.Equal(t, 150.0, cfg.ScoreMax)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 120, cfg.RateLimitPerMinute, "unparsable values fall back to the default")
}

func TestLoad_UnknownSinkFallsBack(t *testing.T) {
	t.Setenv("REPORT_SINK", "kafka")
	assert.Equal(t, ReportSinkDirect, Load().ReportSink)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "user:42:exam_session", CacheKey.ExamSessionKey("42"))
	assert.Equal(t, "user:42:exam_events", CacheKey.ExamEventsChannel("42"))
}
