// AngelaMos | 2026
// dispatcher.go

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wattgrid/marketplace-api/internal/core"
)

const (
	DefaultTaskTimeout = 30 * time.Second
	errorBuffer        = 64
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

// Recorder receives one outcome per task.
type Recorder interface {
	NotificationSent(kind string)
	NotificationFailed(kind string)
}

type Failure struct {
	Kind string
	Err  error
	At   time.Time
}

// Dispatcher runs side-effect tasks detached from the request that queued
// them. A failed task is logged and counted once. Nothing is retried or
// persisted, so a failed delivery is lost.
type Dispatcher struct {
	logger   *slog.Logger
	recorder Recorder
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	tasks  sync.WaitGroup

	errs    chan Failure
	drained chan struct{}
}

func NewDispatcher(
	logger *slog.Logger,
	recorder Recorder,
	timeout time.Duration,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}

	d := &Dispatcher{
		logger:   logger,
		recorder: recorder,
		timeout:  timeout,
		errs:     make(chan Failure, errorBuffer),
		drained:  make(chan struct{}),
	}

	go d.drainErrors()

	return d
}

// Go starts fn on its own goroutine and returns immediately. fn gets a fresh
// context bounded by the dispatcher timeout, never the caller's.
func (d *Dispatcher) Go(kind string, fn func(ctx context.Context) error) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.logger.Warn("notification dropped after shutdown", "kind", kind)
		d.fail(kind)
		return
	}
	d.tasks.Add(1)
	d.mu.RUnlock()

	go func() {
		defer d.tasks.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		ctx, span := core.StartSpan(ctx, "notify."+kind, attribute.String("notify.kind", kind))
		defer span.End()

		err := runSafely(ctx, fn)
		if err != nil {
			core.SetSpanError(ctx, err)
			d.errs <- Failure{Kind: kind, Err: err, At: time.Now()}
			return
		}

		core.AddSpanEvent(ctx, "notification.sent")
		if d.recorder != nil {
			d.recorder.NotificationSent(kind)
		}
	}()
}

func runSafely(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("notification panic: %v", rec)
		}
	}()
	return fn(ctx)
}

func (d *Dispatcher) drainErrors() {
	defer close(d.drained)

	for f := range d.errs {
		d.logger.Error("notification failed",
			"kind", f.Kind,
			"error", f.Err,
		)
		d.fail(f.Kind)
	}
}

func (d *Dispatcher) fail(kind string) {
	if d.recorder != nil {
		d.recorder.NotificationFailed(kind)
	}
}

// Close stops accepting tasks and waits for in-flight ones, or for ctx.
// Tasks still running when ctx ends are abandoned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.tasks.Wait()
		close(d.errs)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("drain notifications: %w", ctx.Err())
	}

	select {
	case <-d.drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain notification errors: %w", ctx.Err())
	}
}
