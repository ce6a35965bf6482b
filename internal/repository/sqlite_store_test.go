package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exsim-backend/internal/database"
	"github.com/stemsi/exsim-backend/internal/model"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(context.Background(), db)
	require.NoError(t, err)
	return store
}

func TestSQLiteStore_Snapshots(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	data, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, store.Save(ctx, "u1", []byte(`{"v":1}`)))
	require.NoError(t, store.Save(ctx, "u1", []byte(`{"v":2}`)))
	require.NoError(t, store.Save(ctx, "u2", []byte(`{"v":9}`)))

	data, err = store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	require.NoError(t, store.Delete(ctx, "u1"))
	data, err = store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = store.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, `{"v":9}`, string(data))
}

func TestSQLiteStore_Reports(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.SaveReport(ctx, &model.ExamReport{
			SessionID:    id,
			OwnerID:      "u1",
			CompletedAt:  base.Add(time.Duration(i) * time.Hour),
			AbilityIndex: 100 + i,
			Results:      []model.ModuleResult{{ModuleID: "stroop", Level: 1, Passed: true}},
		}))
	}
	require.NoError(t, store.SaveReport(ctx, &model.ExamReport{SessionID: "x1", OwnerID: "u2", CompletedAt: base}))

	// Write-once: a second save of s1 does not overwrite it.
	require.NoError(t, store.SaveReport(ctx, &model.ExamReport{SessionID: "s1", OwnerID: "u1", AbilityIndex: 1, CompletedAt: base}))

	got, err := store.GetByID(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.AbilityIndex)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "stroop", got.Results[0].ModuleID)

	_, err = store.GetByID(ctx, "u2", "s1")
	require.ErrorIs(t, err, ErrReportNotFound)

	list, err := store.ListByOwner(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s3", list[0].SessionID)
	assert.Equal(t, "s2", list[1].SessionID)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, "u1", []byte("a")))
	data, _ := store.Load(ctx, "u1")
	assert.Equal(t, "a", string(data))
	require.NoError(t, store.Delete(ctx, "u1"))
	data, _ = store.Load(ctx, "u1")
	assert.Nil(t, data)

	require.NoError(t, store.SaveReport(ctx, &model.ExamReport{SessionID: "s1", OwnerID: "u1", CompletedAt: base}))
	require.NoError(t, store.SaveReport(ctx, &model.ExamReport{SessionID: "s2", OwnerID: "u1", CompletedAt: base.Add(time.Hour)}))

	list, err := store.ListByOwner(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].SessionID)

	_, err = store.GetByID(ctx, "u9", "s1")
	assert.ErrorIs(t, err, ErrReportNotFound)
}
