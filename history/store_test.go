package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akila/convert-api/models"
)

func sampleRecord(i int, at time.Time) models.ConversionRecord {
	return models.ConversionRecord{
		ID:           fmt.Sprintf("rec-%02d", i),
		OriginalName: "report.pdf",
		InputFormat:  "pdf",
		OutputFormat: "xlsx",
		InputSize:    1024,
		OutputSize:   2048,
		Status:       models.StatusDone,
		Duration:     1500 * time.Millisecond,
		CreatedAt:    at,
	}
}

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Record(ctx, sampleRecord(i, base.Add(time.Duration(i)*time.Minute))))
	}
	failed := sampleRecord(3, base.Add(time.Hour))
	failed.Status = models.StatusFailed
	failed.Error = "No tables found in PDF."
	require.NoError(t, s.Record(ctx, failed))

	recs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec-03", recs[0].ID)
	assert.Equal(t, models.StatusFailed, recs[0].Status)
	assert.Equal(t, "No tables found in PDF.", recs[0].Error)
	assert.Equal(t, "rec-02", recs[1].ID)
	assert.Equal(t, 1500*time.Millisecond, recs[1].Duration)
	assert.Equal(t, int64(2048), recs[1].OutputSize)
	assert.True(t, base.Add(2*time.Minute).Equal(recs[1].CreatedAt))
}

func TestRecordDuplicateID(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	rec := sampleRecord(1, time.Now())

	require.NoError(t, s.Record(ctx, rec))
	assert.Error(t, s.Record(ctx, rec))
}

func TestOpenReusesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, sampleRecord(1, time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn, driver, source string
	}{
		{"postgres://u:p@db:5432/app?sslmode=disable", "postgres", "postgres://u:p@db:5432/app?sslmode=disable"},
		{"postgresql://db/app", "postgres", "postgresql://db/app"},
		{"sqlite://data/history.db", "sqlite3", "data/history.db"},
		{"history.db", "sqlite3", "history.db"},
	}
	for _, tt := range tests {
		driver, source := parseDSN(tt.dsn)
		assert.Equal(t, tt.driver, driver, tt.dsn)
		assert.Equal(t, tt.source, source, tt.dsn)
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: "postgres"}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))
	lite := &Store{driver: "sqlite3"}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestOpenEmpty(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}
