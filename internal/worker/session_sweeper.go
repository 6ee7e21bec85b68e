package worker

import (
	"context"
	"time"

	"taskit/internal/logger"

	"go.uber.org/zap"
)

type SessionStore interface {
	SweepExpired(ctx context.Context) (int, error)
}

// SessionSweeper removes expired sessions. Removing a session signs it out,
// so requests still running under it are cancelled.
type SessionSweeper struct {
	store   SessionStore
	timeout time.Duration
}

func NewSessionSweeper(store SessionStore, timeout time.Duration) *SessionSweeper {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &SessionSweeper{store: store, timeout: timeout}
}

// Check runs one sweep bounded by the sweeper timeout.
func (w *SessionSweeper) Check(ctx context.Context) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	removed, err := w.store.SweepExpired(ctx)
	if err != nil {
		logger.Warn("Worker: session sweep failed", zap.Error(err))
		return
	}

	logger.Info("Worker: session sweep finished",
		zap.Int("removed", removed),
		zap.Duration("ms", time.Since(start)))
}
