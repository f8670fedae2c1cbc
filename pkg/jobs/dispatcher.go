package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotRunning is returned by Enqueue before Start or after Stop.
	ErrNotRunning = errors.New("dispatcher not running")
	// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
	ErrQueueFull = errors.New("dispatcher queue full")
)

// Task wraps a payload with delivery bookkeeping.
type Task[T any] struct {
	ID       string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// HandlerFunc processes one task. Returning an error schedules a retry.
type HandlerFunc[T any] func(ctx context.Context, task Task[T]) error

// Options tunes the worker pool.
type Options struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Dispatcher is an in-memory fire-and-forget worker pool with linear back-off retries.
type Dispatcher[T any] struct {
	name    string
	handler HandlerFunc[T]
	opts    Options

	tasks   chan Task[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

// NewDispatcher builds a dispatcher; call Start before enqueueing.
func NewDispatcher[T any](name string, handler HandlerFunc[T], opts Options) *Dispatcher[T] {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = opts.Workers * 16
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Dispatcher[T]{
		name:    name,
		handler: handler,
		opts:    opts,
		tasks:   make(chan Task[T], opts.BufferSize),
	}
}

// Start launches the workers. Subsequent calls are no-ops.
func (d *Dispatcher[T]) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.running = true
	d.opts.Logger.Info("dispatcher started", zap.String("dispatcher", d.name), zap.Int("workers", d.opts.Workers))
}

// Stop cancels the workers and waits for in-flight tasks to return.
func (d *Dispatcher[T]) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
	d.opts.Logger.Info("dispatcher stopped", zap.String("dispatcher", d.name))
}

// Enqueue hands the payload to a worker. It never blocks longer than the caller's context.
func (d *Dispatcher[T]) Enqueue(ctx context.Context, payload T) (string, error) {
	task := Task[T]{ID: uuid.NewString(), Payload: payload, Enqueued: time.Now().UTC()}
	return task.ID, d.push(ctx, task)
}

// TryEnqueue hands the payload to a worker only if the buffer has room. It never blocks.
func (d *Dispatcher[T]) TryEnqueue(payload T) (string, error) {
	task := Task[T]{ID: uuid.NewString(), Payload: payload, Enqueued: time.Now().UTC()}
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running {
		return "", fmt.Errorf("%s: %w", d.name, ErrNotRunning)
	}

	select {
	case d.tasks <- task:
		return task.ID, nil
	default:
		return "", fmt.Errorf("%s: %w", d.name, ErrQueueFull)
	}
}

func (d *Dispatcher[T]) push(ctx context.Context, task Task[T]) error {
	d.mu.RLock()
	running, workerCtx := d.running, d.ctx
	d.mu.RUnlock()
	if !running {
		return fmt.Errorf("%s: %w", d.name, ErrNotRunning)
	}

	select {
	case d.tasks <- task:
		return nil
	case <-workerCtx.Done():
		return fmt.Errorf("%s: %w", d.name, ErrNotRunning)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher[T]) work() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case task := <-d.tasks:
			if err := d.handler(d.ctx, task); err != nil {
				d.retry(task, err)
			}
		}
	}
}

func (d *Dispatcher[T]) retry(task Task[T], cause error) {
	task.Attempt++
	log := d.opts.Logger.With(zap.String("dispatcher", d.name), zap.String("task_id", task.ID), zap.Int("attempt", task.Attempt), zap.Error(cause))
	if task.Attempt > d.opts.MaxRetries {
		log.Error("task dropped after retries")
		return
	}
	log.Warn("task failed, retrying")

	delay := time.Duration(task.Attempt) * d.opts.RetryDelay
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-d.ctx.Done():
		case <-timer.C:
			if err := d.push(d.ctx, task); err != nil {
				log.Error("task requeue failed", zap.NamedError("requeue_error", err))
			}
		}
	}()
}
