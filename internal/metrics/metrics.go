package metrics

import (
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const bufferSize = 100

// RunMetric records the outcome of one batch match run.
type RunMetric struct {
	RunID          string
	Memories       int
	Photos         int
	Matched        int
	UniquePhotos   int
	FallbackReuses int
	DurationMs     int64
	CreatedAt      time.Time
}

// Writer persists run metrics asynchronously so recording never blocks a
// match call. A nil *Writer is valid and does nothing, which is how metrics
// are disabled.
type Writer struct {
	db        *sql.DB
	logger    *zap.Logger
	metrics   chan RunMetric
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

// NewWriter starts the background writer. Pass nil for db to disable
// metrics entirely.
func NewWriter(db *sql.DB, logger *zap.Logger) *Writer {
	if db == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Writer{
		db:      db,
		logger:  logger,
		metrics: make(chan RunMetric, bufferSize),
		done:    make(chan struct{}),
	}

	w.wg.Add(1)
	go w.writeLoop()

	return w
}

// Write queues a metric. Non-blocking; drops the metric if the buffer is
// full.
func (w *Writer) Write(metric RunMetric) {
	if w == nil || w.closed.Load() {
		return
	}

	select {
	case w.metrics <- metric:
	default:
		w.logger.Debug("metrics buffer full, dropping run metric",
			zap.String("run_id", metric.RunID),
		)
	}
}

// Close shuts the writer down, flushing anything still queued.
func (w *Writer) Close() {
	if w == nil {
		return
	}

	w.closeOnce.Do(func() {
		w.closed.Store(true)
		close(w.done)
	})
	w.wg.Wait()
}

func (w *Writer) writeLoop() {
	defer w.wg.Done()

	for {
		select {
		case metric := <-w.metrics:
			w.writeMetric(metric)
		case <-w.done:
			for {
				select {
				case metric := <-w.metrics:
					w.writeMetric(metric)
				default:
					return
				}
			}
		}
	}
}

func (w *Writer) writeMetric(metric RunMetric) {
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = time.Now()
	}

	_, err := w.db.Exec(`
		INSERT INTO match_runs (
			run_id, memories, photos, matched, unique_photos,
			fallback_reuses, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		metric.RunID,
		metric.Memories,
		metric.Photos,
		metric.Matched,
		metric.UniquePhotos,
		metric.FallbackReuses,
		metric.DurationMs,
		metric.CreatedAt,
	)

	if err != nil {
		w.logger.Error("failed to write run metric",
			zap.Error(err),
			zap.String("run_id", metric.RunID),
		)
	}
}
