package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circleapp/photomatch/internal/store"
)

func TestWriterPersistsRunMetrics(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	w := NewWriter(db.Conn(), nil)
	w.Write(RunMetric{
		RunID:          "run-1",
		Memories:       12,
		Photos:         40,
		Matched:        9,
		UniquePhotos:   15,
		FallbackReuses: 1,
		DurationMs:     7,
		CreatedAt:      time.Now(),
	})
	// Close drains the queue before returning.
	w.Close()

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM match_runs").Scan(&count))
	assert.Equal(t, 1, count)

	var matched int
	require.NoError(t, db.Conn().QueryRow("SELECT matched FROM match_runs WHERE run_id = ?", "run-1").Scan(&matched))
	assert.Equal(t, 9, matched)
}

func TestNilWriterIsSafe(t *testing.T) {
	var w *Writer
	w.Write(RunMetric{RunID: "ignored"})
	w.Close()
}

func TestWriteAfterCloseIsDropped(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	w := NewWriter(db.Conn(), nil)
	w.Close()
	w.Write(RunMetric{RunID: "late"})

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM match_runs").Scan(&count))
	assert.Zero(t, count)
}
