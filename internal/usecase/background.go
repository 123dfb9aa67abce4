package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskGroup runs post-commit side effects outside the request that caused
// them. Tasks get a context detached from the caller's cancellation and
// bounded by the group timeout; failures are logged and never returned.
type TaskGroup struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *zap.Logger
}

// NewTaskGroup creates a task group whose tasks time out after timeout
func NewTaskGroup(timeout time.Duration, logger *zap.Logger) *TaskGroup {
	return &TaskGroup{timeout: timeout, logger: logger}
}

// Go starts fn in the background
func (g *TaskGroup) Go(parent context.Context, name string, fn func(ctx context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("Background task panicked",
					zap.String("task", name),
					zap.String("panic", fmt.Sprint(r)))
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), g.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			g.logger.Warn("Background task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Wait blocks until every started task finished or ctx is done
func (g *TaskGroup) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
