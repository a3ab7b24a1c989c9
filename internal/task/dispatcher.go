package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pierre-chaville/lessons/internal/store"
)

// Handler processes one task type. Handle returns a short result
// description on success; any error marks the task failed with the
// error message recorded on the task.
type Handler interface {
	// Type returns the task type this handler processes.
	Type() TaskType

	// Handle runs the task to completion.
	Handle(ctx context.Context, t *Task) (string, error)
}

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	// PollInterval is how long the dispatcher sleeps between polls of
	// the task store.
	PollInterval time.Duration
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{PollInterval: 5 * time.Second}
}

// Dispatcher is the single-threaded polling loop that drives background
// tasks. Each poll it claims the oldest pending task, runs the handler
// registered for its type, and records the outcome. Tasks run one at a
// time; a handler failure is recorded on the task and the loop keeps
// polling.
type Dispatcher struct {
	store      TaskStore
	handlers   map[TaskType]Handler
	config     DispatcherConfig
	logger     *slog.Logger
	notify     chan struct{}
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	started    bool
	mu         sync.Mutex
}

// NewDispatcher creates a Dispatcher polling the given store.
func NewDispatcher(taskStore TaskStore, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultDispatcherConfig().PollInterval
	}
	return &Dispatcher{
		store:    taskStore,
		handlers: make(map[TaskType]Handler),
		config:   config,
		logger:   logger,
		notify:   make(chan struct{}, 1),
	}
}

// Notify wakes the polling loop so a freshly created task is picked up
// without waiting for the next poll interval. Safe to call from any
// goroutine; notifications coalesce while a task is running.
func (d *Dispatcher) Notify() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Register adds a handler for its task type. Registering two handlers
// for the same type is a programming error.
func (d *Dispatcher) Register(h Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("cannot register handler after dispatcher start")
	}
	if _, dup := d.handlers[h.Type()]; dup {
		return fmt.Errorf("handler already registered for task type %q", h.Type())
	}
	d.handlers[h.Type()] = h
	return nil
}

// Start launches the polling loop in a background goroutine.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("dispatcher already started")
	}
	d.started = true

	ctx, cancel := context.WithCancel(context.Background())
	d.cancelFunc = cancel

	d.wg.Add(1)
	go d.loop(ctx)

	d.logger.Info("task dispatcher started",
		"poll_interval", d.config.PollInterval,
		"handlers", len(d.handlers))
	return nil
}

// Stop signals the loop to exit and waits for any in-flight task to
// reach a terminal status before returning. Shutdown cancels the
// context handlers run under, so a long external call aborts and the
// task is recorded as failed rather than left running.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancelFunc
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	d.wg.Wait()
	d.logger.Info("task dispatcher stopped")
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	// Poll once immediately so startup does not wait a full interval.
	d.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.pollOnce(ctx)
		case <-d.notify:
			d.pollOnce(ctx)
		}
	}
}

// pollOnce claims and runs at most one task.
func (d *Dispatcher) pollOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	claimed, err := d.store.ClaimOldestPending(ctx, time.Now().UTC())
	if err != nil {
		if !store.IsNotFoundError(err) && ctx.Err() == nil {
			d.logger.Error("failed to claim pending task", "error", err)
		}
		return
	}

	d.runTask(ctx, claimed)
}

// runTask executes the handler for a claimed task and records the
// terminal status. Handler panics are recovered and recorded as
// failures so one bad task never kills the loop.
func (d *Dispatcher) runTask(ctx context.Context, t *Task) {
	log := d.logger.With("task_id", t.ID, "task_type", t.Type)
	log.Info("task started")

	result, err := func() (result string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task handler panicked: %v", r)
			}
		}()
		handler, ok := d.handlers[t.Type]
		if !ok {
			return "", fmt.Errorf("no handler registered for task type %q", t.Type)
		}
		return handler.Handle(ctx, t)
	}()

	// Outcome writes use a fresh context so a shutdown during the task
	// still records its terminal status.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if err != nil {
		log.Warn("task failed", "error", err)
		if ferr := d.store.Finish(finishCtx, t.ID, TaskStatusFailed, "", err.Error(), now); ferr != nil {
			log.Error("failed to record task failure", "error", ferr)
		}
		return
	}

	log.Info("task completed", "result", result)
	if ferr := d.store.Finish(finishCtx, t.ID, TaskStatusCompleted, result, "", now); ferr != nil {
		log.Error("failed to record task completion", "error", ferr)
	}
}
