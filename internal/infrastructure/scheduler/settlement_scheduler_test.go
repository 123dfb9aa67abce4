package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/wallet-ledger/internal/config"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunSettlement(ctx context.Context) (*entity.SettlementReport, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &entity.SettlementReport{TotalAmount: decimal.Zero}, nil
}

func TestSettlementScheduler_Next(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	s := NewSettlementScheduler(&countingRunner{}, config.DailySchedule{Hour: 23, Minute: 59, Location: kolkata}, zap.NewNop())

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later the same day",
			now:  time.Date(2026, 3, 10, 9, 0, 0, 0, kolkata),
			want: time.Date(2026, 3, 10, 23, 59, 0, 0, kolkata),
		},
		{
			name: "exactly at the run time rolls over",
			now:  time.Date(2026, 3, 10, 23, 59, 0, 0, kolkata),
			want: time.Date(2026, 3, 11, 23, 59, 0, 0, kolkata),
		},
		{
			name: "input in UTC is converted",
			// 18:40 UTC is 00:10 IST the next day
			now:  time.Date(2026, 3, 10, 18, 40, 0, 0, time.UTC),
			want: time.Date(2026, 3, 11, 23, 59, 0, 0, kolkata),
		},
		{
			name: "month end",
			now:  time.Date(2026, 1, 31, 23, 59, 30, 0, kolkata),
			want: time.Date(2026, 2, 1, 23, 59, 0, 0, kolkata),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(s.Next(tt.now)), "got %s", s.Next(tt.now))
		})
	}
}

func TestSettlementScheduler_RunFiresAndStops(t *testing.T) {
	runner := &countingRunner{}
	s := NewSettlementScheduler(runner, config.DailySchedule{Hour: 0, Minute: 0, Location: time.UTC}, zap.NewNop())

	var waits atomic.Int32
	s.after = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		// Fire the first two waits at once, then block until cancelled
		if waits.Add(1) <= 2 {
			ch <- time.Now()
		}
		return ch
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runner.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestSettlementScheduler_RunOnceToleratesLockContention(t *testing.T) {
	runner := &countingRunner{err: domainErrors.ErrSettlementInProgress}
	s := NewSettlementScheduler(runner, config.DailySchedule{Location: time.UTC}, zap.NewNop())

	s.runOnce(context.Background())
	assert.Equal(t, int32(1), runner.calls.Load())
}
