package ci

import (
	"strings"
	"time"
)

// Result holds the outcome of one task execution. It is populated once by
// the check (or synthesized by the orchestrator for crashes and cancelled
// tasks) and treated as immutable afterwards.
type Result struct {
	Name        string
	Status      Status
	ExitCode    int // -1 until the underlying process exits
	Output      []string
	Err         error
	Environment Environment // nil when the task never reached an environment
	Duration    time.Duration
}

// NewResult returns a Result in its default state (NotRan, no exit code).
func NewResult(name string, env Environment) *Result {
	return &Result{Name: name, Status: NotRan, ExitCode: -1, Environment: env}
}

// OutputString joins the captured output lines.
func (r *Result) OutputString() string {
	return strings.TrimSpace(strings.Join(r.Output, "\n"))
}
