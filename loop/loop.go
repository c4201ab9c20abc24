// Package loop implements a cooperative deferred-task queue. Work posted from
// any goroutine is executed later, in posting order, by whoever drives the loop.
package loop

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// ErrQueueFull is returned by Post when the queue has no free slot.
var ErrQueueFull = errors.New("loop: task queue full")

const defaultQueueLen = 32

// Config configures a Loop.
type Config struct {
	// QueueLen is the maximum number of pending tasks. Defaults to 32.
	QueueLen int
	Logger   *slog.Logger
}

// Loop is a bounded FIFO of deferred tasks. The zero value is not usable, use New.
type Loop struct {
	tasks  chan func()
	logger *slog.Logger
}

// New returns a Loop ready to accept tasks.
func New(cfg Config) *Loop {
	if cfg.QueueLen <= 0 {
		cfg.QueueLen = defaultQueueLen
	}
	return &Loop{
		tasks:  make(chan func(), cfg.QueueLen),
		logger: cfg.Logger,
	}
}

// Post enqueues fn for later execution. It never runs fn inline and never
// blocks, so it is safe to call from event-source context.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return errors.New("loop: nil task")
	}
	select {
	case l.tasks <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of tasks waiting to run.
func (l *Loop) Pending() int { return len(l.tasks) }

// RunPending runs the tasks queued at the time of the call and returns how many
// ran. Tasks posted by running tasks are left for the next call.
func (l *Loop) RunPending() int {
	n := len(l.tasks)
	for i := 0; i < n; i++ {
		l.run(<-l.tasks)
	}
	return n
}

// Run executes tasks as they arrive until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil && l.logger != nil {
			l.logger.LogAttrs(context.Background(), slog.LevelError, "loop:task-panic", slog.Any("panic", r))
		}
	}()
	fn()
}
