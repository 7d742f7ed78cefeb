package ci

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"stew/internal/logging"
)

// Observer receives live progress notifications. TaskCompleted is always
// invoked from the orchestrating goroutine, in completion order, so
// implementations need no locking of their own.
type Observer interface {
	TaskStarted(task *Task)
	TaskCompleted(task *Task, result *Result)
}

type nopObserver struct{}

func (nopObserver) TaskStarted(*Task)            {}
func (nopObserver) TaskCompleted(*Task, *Result) {}

// Config assembles an orchestrator run. Environments and Checks are
// mandatory; everything else has usable defaults (parallel execution,
// unbounded within a batch, crashes converted to Error results).
type Config struct {
	Environments []Environment
	Checks       []Check
	Options      WorkflowOptions

	// RaiseErrors propagates the first internal check error out of
	// Orchestrate instead of swallowing it into an Error result. Used by
	// fail-fast callers; interactive runs keep the default so one broken
	// tool doesn't abort the remaining checks.
	RaiseErrors bool

	// MaxParallel bounds concurrent tasks within a batch. Zero means
	// unbounded (every task in the batch runs at once).
	MaxParallel int

	Observer Observer
}

// Orchestrator executes the batches produced by the Matrix and accumulates
// one Result per planned task. State is scoped to a single run; construct a
// fresh instance per run.
type Orchestrator struct {
	matrix      *Matrix
	options     WorkflowOptions
	raiseErrors bool
	maxParallel int
	observer    Observer
	logger      *slog.Logger

	mu         sync.Mutex
	results    []*Result
	inProgress []*Task
	completed  []*Task
}

// NewOrchestrator validates the configuration and builds the run matrix.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	matrix, err := NewMatrix(cfg.Environments, cfg.Checks)
	if err != nil {
		return nil, err
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Orchestrator{
		matrix:      matrix,
		options:     cfg.Options,
		raiseErrors: cfg.RaiseErrors,
		maxParallel: cfg.MaxParallel,
		observer:    observer,
		logger:      logging.New("orchestrator"),
	}, nil
}

// Orchestrate runs every batch in matrix order and returns the most severe
// status observed. On cancellation, every planned task that never ran is
// recorded with a Cancelled result so the final result list always contains
// exactly one entry per planned task.
func (o *Orchestrator) Orchestrate(ctx context.Context) (Status, error) {
	batches, err := o.matrix.TaskBatches(o.options)
	if err != nil {
		return NotRan, err
	}

	var runErr error
	for i, batch := range batches {
		if runErr != nil || ctx.Err() != nil {
			o.cancelBatch(batch)
			continue
		}

		o.logger.Debug("starting batch", "batch", i, "tasks", len(batch))
		if o.options.Has(WorkflowSequential) {
			runErr = o.runSequential(ctx, batch)
		} else {
			runErr = o.runParallel(ctx, batch)
		}
	}

	return o.OverallStatus(), runErr
}

// OverallStatus collapses the recorded results into one verdict.
func (o *Orchestrator) OverallStatus() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	statuses := make([]Status, len(o.results))
	for i, r := range o.results {
		statuses[i] = r.Status
	}
	return OverallStatus(statuses)
}

// Results returns a snapshot of the recorded results, in recording order.
func (o *Orchestrator) Results() []*Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Result, len(o.results))
	copy(out, o.results)
	return out
}

// InProgress returns a snapshot of the tasks currently executing.
func (o *Orchestrator) InProgress() []*Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Task, len(o.inProgress))
	copy(out, o.inProgress)
	return out
}

// Completed returns a snapshot of the tasks that finished executing.
func (o *Orchestrator) Completed() []*Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Task, len(o.completed))
	copy(out, o.completed)
	return out
}

func (o *Orchestrator) runSequential(ctx context.Context, batch []*Task) error {
	for _, task := range batch {
		if ctx.Err() != nil {
			o.cancelTask(task)
			continue
		}
		result, err := o.runTask(ctx, task)
		o.observer.TaskCompleted(task, result)
		if err != nil && o.raiseErrors && !isCancellation(err) {
			return err
		}
	}
	return nil
}

type completion struct {
	task   *Task
	result *Result
}

func (o *Orchestrator) runParallel(ctx context.Context, batch []*Task) error {
	done := make(chan completion, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	if o.maxParallel > 0 {
		g.SetLimit(o.maxParallel)
	}

	launched := 0
	for _, task := range batch {
		if gctx.Err() != nil {
			o.cancelTask(task)
			continue
		}
		launched++
		task := task
		g.Go(func() error {
			result, err := o.runTask(gctx, task)
			done <- completion{task: task, result: result}
			if err != nil && o.raiseErrors && !isCancellation(err) {
				return err
			}
			return nil
		})
	}

	// Record completions as they arrive: a slow task must not delay the
	// report of a faster one.
	for i := 0; i < launched; i++ {
		c := <-done
		o.observer.TaskCompleted(c.task, c.result)
	}

	return g.Wait()
}

// runTask drives one task through its lifecycle: start, launch, end. The
// task's end timestamp is recorded regardless of outcome so every result
// carries a duration.
func (o *Orchestrator) runTask(ctx context.Context, task *Task) (*Result, error) {
	o.markStarted(task)
	if err := task.StartsNow(); err != nil {
		result := NewResult(task.Name(), task.Environment)
		result.Status = Error
		result.Err = err
		o.markCompleted(task, result)
		return result, err
	}
	o.observer.TaskStarted(task)

	result, err := task.Check.Launch(ctx, task.Environment, task.EnableAutofix)
	if endErr := task.EndsNow(); endErr != nil && err == nil {
		err = endErr
	}

	if result == nil {
		result = NewResult(task.Name(), task.Environment)
	}
	if result.Name == "" {
		result.Name = task.Name()
	}
	if err != nil {
		if isCancellation(err) {
			result.Status = Cancelled
		} else {
			result.Status = Error
			o.logger.Error("check crashed", "task", task.Name(), "error", err)
		}
		if result.Err == nil {
			result.Err = err
		}
	}
	result.Duration = task.Duration()

	o.markCompleted(task, result)
	return result, err
}

// cancelBatch records a Cancelled result for every task in a batch that was
// never started.
func (o *Orchestrator) cancelBatch(batch []*Task) {
	for _, task := range batch {
		o.cancelTask(task)
	}
}

func (o *Orchestrator) cancelTask(task *Task) {
	result := NewResult(task.Name(), task.Environment)
	result.Status = Cancelled

	o.mu.Lock()
	o.results = append(o.results, result)
	o.mu.Unlock()

	o.observer.TaskCompleted(task, result)
}

func (o *Orchestrator) markStarted(task *Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inProgress = append(o.inProgress, task)
}

func (o *Orchestrator) markCompleted(task *Task, result *Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
	for i, t := range o.inProgress {
		if t == task {
			o.inProgress = append(o.inProgress[:i], o.inProgress[i+1:]...)
			break
		}
	}
	o.completed = append(o.completed, task)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
