package ci

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// recordingObserver captures completion order for assertions.
type recordingObserver struct {
	mu        sync.Mutex
	started   []string
	completed []string
}

func (o *recordingObserver) TaskStarted(task *Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, task.Name())
}

func (o *recordingObserver) TaskCompleted(task *Task, result *Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, task.Name()+":"+result.Status.String())
}

func (o *recordingObserver) completions() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.completed))
	copy(out, o.completed)
	return out
}

func TestNewOrchestratorRequiresChecks(t *testing.T) {
	_, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.11")},
		Options:      WorkflowCheck,
	})
	if !errors.Is(err, ErrNoChecks) {
		t.Fatalf("NewOrchestrator without checks = %v, want ErrNoChecks", err)
	}
}

func TestOrchestrateAllSuccess(t *testing.T) {
	orch, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.9"), fakeEnv("py3.11")},
		Checks: []Check{
			&fakeCheck{name: "mypy", delay: time.Millisecond},
			&fakeCheck{name: "pytest", delay: time.Millisecond},
		},
		Options: WorkflowCheck,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	status, err := orch.Orchestrate(context.Background())
	if err != nil {
		t.Fatalf("Orchestrate: %v", err)
	}
	if status != Success {
		t.Errorf("overall status = %v, want Success", status)
	}
	if got := len(orch.Results()); got != 4 {
		t.Errorf("got %d results, want 4", got)
	}
	for _, result := range orch.Results() {
		if result.Duration <= 0 {
			t.Errorf("result %s has no duration", result.Name)
		}
	}
	if got := len(orch.InProgress()); got != 0 {
		t.Errorf("%d tasks still in progress after run", got)
	}
	if got := len(orch.Completed()); got != 4 {
		t.Errorf("got %d completed tasks, want 4", got)
	}
}

func TestOrchestrateCheckFailedDominates(t *testing.T) {
	orch, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.11")},
		Checks: []Check{
			&fakeCheck{name: "mypy"},
			&fakeCheck{name: "black", status: CheckFailed},
		},
		Options: WorkflowCheck,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	status, err := orch.Orchestrate(context.Background())
	if err != nil {
		t.Fatalf("Orchestrate: %v", err)
	}
	if status != CheckFailed {
		t.Errorf("overall status = %v, want CheckFailed", status)
	}
}

func TestOrchestrateCrashBecomesErrorResult(t *testing.T) {
	boom := errors.New("executable not found")
	orch, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.11")},
		Checks: []Check{
			&fakeCheck{name: "mypy"},
			&fakeCheck{name: "broken", err: boom},
			&fakeCheck{name: "pytest"},
		},
		Options: WorkflowCheck,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	status, err := orch.Orchestrate(context.Background())
	if err != nil {
		t.Fatalf("Orchestrate without RaiseErrors = %v, want nil", err)
	}
	if status != Error {
		t.Errorf("overall status = %v, want Error", status)
	}

	// The crash must not prevent the other checks from running.
	if got := len(orch.Results()); got != 3 {
		t.Fatalf("got %d results, want 3", got)
	}
	var crashed *Result
	for _, result := range orch.Results() {
		if result.Name == "broken" {
			crashed = result
		}
	}
	if crashed == nil {
		t.Fatal("no result recorded for the crashed check")
	}
	if crashed.Status != Error || !errors.Is(crashed.Err, boom) {
		t.Errorf("crashed result = %v/%v, want Error wrapping the launch error", crashed.Status, crashed.Err)
	}
}

func TestOrchestrateRaiseErrorsPropagates(t *testing.T) {
	boom := errors.New("tool exploded")
	orch, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.11")},
		Checks:       []Check{&fakeCheck{name: "broken", err: boom}},
		Options:      WorkflowCheck | WorkflowSequential,
		RaiseErrors:  true,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	status, err := orch.Orchestrate(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Orchestrate = %v, want the launch error", err)
	}
	if status != Error {
		t.Errorf("overall status = %v, want Error", status)
	}
}

func TestOrchestrateSequentialOrder(t *testing.T) {
	observer := &recordingObserver{}
	orch, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.9"), fakeEnv("py3.11")},
		Checks:       []Check{&fakeCheck{name: "mypy"}, &fakeCheck{name: "pytest"}},
		Options:      WorkflowCheck | WorkflowSequential,
		Observer:     observer,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	if _, err := orch.Orchestrate(context.Background()); err != nil {
		t.Fatalf("Orchestrate: %v", err)
	}

	want := []string{
		"mypy:Success", "pytest:Success", // py3.9
		"mypy:Success", "pytest:Success", // py3.11
	}
	if diff := cmp.Diff(want, observer.completions()); diff != "" {
		t.Errorf("sequential completion order mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrateParallelReportsFastTaskFirst(t *testing.T) {
	observer := &recordingObserver{}
	orch, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.11")},
		Checks: []Check{
			&fakeCheck{name: "slow", delay: 300 * time.Millisecond},
			&fakeCheck{name: "fast", delay: 10 * time.Millisecond},
		},
		Options:  WorkflowCheck,
		Observer: observer,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	if _, err := orch.Orchestrate(context.Background()); err != nil {
		t.Fatalf("Orchestrate: %v", err)
	}

	completions := observer.completions()
	if len(completions) != 2 {
		t.Fatalf("got %d completions, want 2", len(completions))
	}
	if completions[0] != "fast:Success" {
		t.Errorf("first completion = %q, want the fast task", completions[0])
	}
}

func TestOrchestrateAutofixBeforeCheck(t *testing.T) {
	black := &fakeCheck{name: "black", autofix: true}
	observer := &recordingObserver{}
	orch, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.9"), fakeEnv("py3.11")},
		Checks:       []Check{black, &fakeCheck{name: "mypy"}},
		Options:      WorkflowCheck | WorkflowAutofix,
		Observer:     observer,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	if _, err := orch.Orchestrate(context.Background()); err != nil {
		t.Fatalf("Orchestrate: %v", err)
	}

	// 1 autofix task + 4 check tasks.
	if got := len(orch.Results()); got != 5 {
		t.Fatalf("got %d results, want 5", got)
	}
	completions := observer.completions()
	if completions[0] != "black (autofix):Success" {
		t.Errorf("first completion = %q, want the autofix pass", completions[0])
	}

	// The autofix launch targets the first environment and enables the fix;
	// the verification launches that follow never do.
	black.mu.Lock()
	defer black.mu.Unlock()
	if len(black.launches) != 3 {
		t.Fatalf("black launched %d times, want 3", len(black.launches))
	}
	first := black.launches[0]
	if !first.autoFix || first.env.Key() != "py3.9" {
		t.Errorf("autofix launch = %+v, want autofix on py3.9", first)
	}
	for _, launch := range black.launches[1:] {
		if launch.autoFix {
			t.Errorf("check launch unexpectedly enabled autofix: %+v", launch)
		}
	}
}

func TestOrchestrateCancellationCompleteness(t *testing.T) {
	// Cancel while the first batch is still executing: the planned check
	// batch must still be represented in the results, entirely Cancelled.
	ctx, cancel := context.WithCancel(context.Background())

	blocker := &fakeCheck{name: "blocker", autofix: true, delay: 10 * time.Second}
	fast := &fakeCheck{name: "fast"}
	orch, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.9"), fakeEnv("py3.11")},
		Checks:       []Check{blocker, fast},
		Options:      WorkflowCheck | WorkflowAutofix,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	status, err := orch.Orchestrate(ctx)
	if err != nil {
		t.Fatalf("Orchestrate after cancellation = %v, want nil", err)
	}

	// 1 autofix task + 4 check tasks planned; every one must be accounted for.
	results := orch.Results()
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	cancelled := 0
	for _, result := range results {
		if result.Status == Cancelled {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("expected at least one Cancelled result")
	}
	if status != Cancelled {
		t.Errorf("overall status = %v, want Cancelled", status)
	}
}

func TestOrchestrateMaxParallel(t *testing.T) {
	var mu sync.Mutex
	running, peak := 0, 0

	checks := make([]Check, 4)
	for i := range checks {
		checks[i] = &gaugeCheck{name: string(rune('a' + i)), mu: &mu, running: &running, peak: &peak}
	}

	orch, err := NewOrchestrator(Config{
		Environments: []Environment{fakeEnv("py3.11")},
		Checks:       checks,
		Options:      WorkflowCheck,
		MaxParallel:  2,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	if _, err := orch.Orchestrate(context.Background()); err != nil {
		t.Fatalf("Orchestrate: %v", err)
	}

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

// gaugeCheck tracks peak concurrency across launches.
type gaugeCheck struct {
	name    string
	mu      *sync.Mutex
	running *int
	peak    *int
}

func (c *gaugeCheck) Name() string          { return c.name }
func (c *gaugeCheck) SupportsAutoFix() bool { return false }

func (c *gaugeCheck) Launch(ctx context.Context, env Environment, autoFix bool) (*Result, error) {
	c.mu.Lock()
	*c.running++
	if *c.running > *c.peak {
		*c.peak = *c.running
	}
	c.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	c.mu.Lock()
	*c.running--
	c.mu.Unlock()

	result := NewResult(c.name, env)
	result.Status = Success
	return result, nil
}
