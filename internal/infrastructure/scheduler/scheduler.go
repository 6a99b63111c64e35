package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	ErrSchedulerNotRunning = errors.New("scheduler: not running")
	ErrInvalidSchedule     = errors.New("scheduler: invalid cron schedule")
)

// CronScheduler runs background jobs on cron schedules. Jobs run one at a
// time per entry; a tick that fires while the previous run is still going
// is skipped.
type CronScheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	baseCtx   context.Context
}

// NewCronScheduler creates a scheduler using standard 5-field cron specs
func NewCronScheduler(logger *zap.Logger) *CronScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronScheduler{
		cron: cron.New(
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
		),
		logger: logger,
	}
}

// AddJob registers fn to run on the given cron spec
func (s *CronScheduler) AddJob(name, spec string, fn func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		ctx := s.baseCtx
		s.mu.Unlock()
		if ctx == nil {
			return
		}

		start := time.Now()
		s.logger.Info("job started", zap.String("job", name))
		fn(ctx)
		s.logger.Info("job finished",
			zap.String("job", name),
			zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}

	s.logger.Info("job registered",
		zap.String("job", name),
		zap.String("schedule", spec))
	return nil
}

// Start begins running registered jobs
func (s *CronScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish, bounded
// by ctx
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		cancel()
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		cancel()
		s.logger.Warn("scheduler stop timed out")
		return ctx.Err()
	}
}

// cronLogger adapts zap to the cron.Logger interface
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
