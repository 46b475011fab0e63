package status

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a background job. It must return once ctx is done.
type Task func(ctx context.Context) error

// Group runs background tasks tied to a session. Stop cancels them and
// waits for them to return.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
	once   sync.Once
}

// NewGroup returns a group whose tasks stop when parent is done or Stop
// is called.
func NewGroup(parent context.Context, logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(parent)
	return &Group{ctx: ctx, cancel: cancel, logger: logger}
}

// Go starts task. Errors other than cancellation are logged.
func (g *Group) Go(name string, task Task) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("background task panicked", "task", name, "panic", r)
			}
		}()
		g.logger.Debug("background task started", "task", name)
		if err := task(g.ctx); err != nil && g.ctx.Err() == nil {
			g.logger.Warn("background task failed", "task", name, "error", err)
		}
	}()
}

// Stop cancels every task and waits for them. It is safe to call more
// than once.
func (g *Group) Stop() {
	g.once.Do(func() {
		g.cancel()
		g.wg.Wait()
		g.logger.Debug("background tasks stopped")
	})
}

// Every returns a task calling fn with a tick count starting at 1, first
// after one interval.
func Every(interval time.Duration, fn func(ctx context.Context, tick int)) Task {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return fmt.Errorf("invalid interval %v", interval)
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for tick := 1; ; tick++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				fn(ctx, tick)
			}
		}
	}
}

// Counter shows "counter: 1" in the counter slot of r at once and counts
// up on every tick.
func Counter(r *Region, interval time.Duration) Task {
	show := func(n int) {
		r.Update(SlotCounter, []string{fmt.Sprintf("counter: %d", n)})
	}
	every := Every(interval, func(_ context.Context, tick int) { show(tick + 1) })
	return func(ctx context.Context) error {
		show(1)
		return every(ctx)
	}
}

// Timer prints a greeting above the prompt on every tick.
func Timer(r *Region, interval time.Duration) Task {
	return Every(interval, func(context.Context, int) {
		r.Print("Hello world!\n")
	})
}
