package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taskit/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job interface {
	Check(ctx context.Context)
}

// Scheduler runs jobs on cron specs ("@every 30m", "0 * * * *"). Jobs get
// a context that is cancelled when the scheduler stops.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if s.ctx.Err() != nil {
			return
		}
		logger.Debug("Worker: job started", zap.String("job", name))
		job.Check(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	logger.Info("Worker: job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	var stopped context.Context
	s.once.Do(func() {
		s.cancel()
		stopped = s.cron.Stop()
	})
	if stopped == nil {
		return nil
	}
	select {
	case <-stopped.Done():
		logger.Info("Worker: scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
