package ci

import (
	"errors"
	"time"
)

// Task purposes. Autofix tasks mutate source files; check tasks verify.
const (
	PurposeCheck   = "check"
	PurposeAutofix = "autofix"
)

var (
	ErrTaskRestart    = errors.New("task already started, cannot restart")
	ErrTaskNotStarted = errors.New("task is not in progress")
	ErrTaskComplete   = errors.New("task is already complete")
)

// Task pairs a check with an environment for a single execution. It is a
// single-use execution record: once started it cannot be restarted, and once
// ended it cannot be ended again.
type Task struct {
	Check         Check
	Environment   Environment
	EnableAutofix bool
	Purpose       string

	startedAt time.Time
	endedAt   time.Time
}

// Name decorates the check name with the purpose when it isn't a plain check.
func (t *Task) Name() string {
	if t.Purpose != PurposeCheck {
		return t.Check.Name() + " (" + t.Purpose + ")"
	}
	return t.Check.Name()
}

func (t *Task) InProgress() bool {
	return !t.startedAt.IsZero() && t.endedAt.IsZero()
}

func (t *Task) Complete() bool {
	return !t.endedAt.IsZero()
}

// StartsNow marks the task as started.
func (t *Task) StartsNow() error {
	if t.InProgress() || t.Complete() {
		return ErrTaskRestart
	}
	t.startedAt = time.Now()
	return nil
}

// EndsNow marks the task as ended.
func (t *Task) EndsNow() error {
	if t.Complete() {
		return ErrTaskComplete
	}
	if !t.InProgress() {
		return ErrTaskNotStarted
	}
	t.endedAt = time.Now()
	return nil
}

// Duration reports the elapsed execution time: zero before start, time since
// start while in progress, and the final duration once complete.
func (t *Task) Duration() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	if t.endedAt.IsZero() {
		return time.Since(t.startedAt)
	}
	return t.endedAt.Sub(t.startedAt)
}
