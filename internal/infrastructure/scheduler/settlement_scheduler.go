package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/wekeepgrowing/wallet-ledger/internal/config"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"go.uber.org/zap"
)

// SettlementRunner is implemented by usecase.SettlementUsecase
type SettlementRunner interface {
	RunSettlement(ctx context.Context) (*entity.SettlementReport, error)
}

// SettlementScheduler triggers the settlement sweep once a day at a fixed
// wall-clock time
type SettlementScheduler struct {
	runner   SettlementRunner
	schedule config.DailySchedule
	logger   *zap.Logger
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
}

func NewSettlementScheduler(runner SettlementRunner, schedule config.DailySchedule, logger *zap.Logger) *SettlementScheduler {
	return &SettlementScheduler{
		runner:   runner,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
		after:    time.After,
	}
}

// Next returns the first scheduled instant strictly after t
func (s *SettlementScheduler) Next(t time.Time) time.Time {
	local := t.In(s.schedule.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(),
		s.schedule.Hour, s.schedule.Minute, 0, 0, s.schedule.Location)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1,
			s.schedule.Hour, s.schedule.Minute, 0, 0, s.schedule.Location)
	}
	return next
}

// Run blocks until ctx is done. A run in progress is cancelled with ctx and
// reports what it settled before stopping.
func (s *SettlementScheduler) Run(ctx context.Context) {
	for {
		next := s.Next(s.now())
		s.logger.Info("Next settlement run scheduled", zap.Time("at", next))

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(s.now())):
		}

		s.runOnce(ctx)
	}
}

func (s *SettlementScheduler) runOnce(ctx context.Context) {
	report, err := s.runner.RunSettlement(ctx)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSettlementInProgress) {
			s.logger.Info("Settlement skipped, another run holds the lock")
			return
		}
		s.logger.Error("Scheduled settlement failed", zap.Error(err))
		return
	}

	s.logger.Info("Scheduled settlement finished",
		zap.Int("settled", len(report.Items)),
		zap.Int("failed", len(report.Errors)),
		zap.String("total_amount", report.TotalAmount.StringFixed(2)),
		zap.Bool("cancelled", report.Cancelled))
}
