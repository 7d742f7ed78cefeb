package ci

import "context"

// Environment is an opaque execution context a check runs against, typically
// a Python interpreter installation. The orchestrator never inspects it
// beyond identity; Key must be unique within a run.
type Environment interface {
	Key() string
	String() string
}

// Check is a named unit of CI validation. Implementations wrap a linter, a
// type-checker, a test runner or a custom command, but the orchestrator
// treats them uniformly.
//
// Launch must return a populated Result for expected failure modes
// (CheckFailed) and may return a non-nil error only for conditions that
// prevented the check from completing: missing executables, unexpected exit
// codes, context cancellation. When both a Result and an error are returned,
// the Result carries the captured output for reporting.
type Check interface {
	Name() string
	SupportsAutoFix() bool
	Launch(ctx context.Context, env Environment, autoFix bool) (*Result, error)
}
