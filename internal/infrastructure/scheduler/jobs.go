package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/moneta/backend/internal/infrastructure/config"
)

// DueSweeper posts scheduled transactions whose due date has arrived
type DueSweeper interface {
	SweepDue(ctx context.Context, batchSize int) (int, error)
}

// BankSyncer triggers data refreshes for active bank connections
type BankSyncer interface {
	SyncActive(ctx context.Context) (int, error)
}

// RegisterJobs wires the background jobs onto the scheduler according to
// configuration
func RegisterJobs(s *CronScheduler, cfg config.SchedulerConfig, sweeper DueSweeper, syncer BankSyncer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if sweeper != nil && cfg.DueSweepSchedule != "" {
		err := s.AddJob("due-schedule-sweep", cfg.DueSweepSchedule, func(ctx context.Context) {
			posted, err := sweeper.SweepDue(ctx, cfg.DueSweepBatch)
			if err != nil {
				logger.Error("due sweep failed", zap.Error(err))
				return
			}
			logger.Info("due sweep completed", zap.Int("posted", posted))
		})
		if err != nil {
			return err
		}
	}

	if syncer != nil && cfg.BankSyncSchedule != "" {
		err := s.AddJob("bank-connection-sync", cfg.BankSyncSchedule, func(ctx context.Context) {
			refreshed, err := syncer.SyncActive(ctx)
			if err != nil {
				logger.Error("bank sync failed", zap.Error(err))
				return
			}
			logger.Info("bank sync completed", zap.Int("refreshed", refreshed))
		})
		if err != nil {
			return err
		}
	}

	return nil
}
