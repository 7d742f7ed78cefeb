package ci

import "errors"

// WorkflowOptions selects which passes a run performs and how tasks within a
// batch are executed.
type WorkflowOptions uint8

const (
	// WorkflowCheck runs the verification pass: every check against every
	// environment.
	WorkflowCheck WorkflowOptions = 1 << iota
	// WorkflowAutofix runs the fix pass first: one task per autofix-capable
	// check, pinned to the first environment.
	WorkflowAutofix
	// WorkflowSequential runs tasks one at a time instead of concurrently.
	WorkflowSequential
)

// Has reports whether all bits of flag are set.
func (o WorkflowOptions) Has(flag WorkflowOptions) bool {
	return o&flag == flag
}

var (
	ErrNoEnvironments = errors.New("at least one environment is required")
	ErrNoChecks       = errors.New("at least one check is required")
	ErrNoWorkflow     = errors.New("at least one of the check or autofix workflows must be requested")
)

// Matrix deterministically expands environments × checks into ordered task
// batches. Autofix batches always precede the check batch because autofix
// mutates source files; interleaving them would let a check observe files
// mid-fix.
type Matrix struct {
	environments []Environment
	checks       []Check
}

// NewMatrix validates the inputs and returns a Matrix.
func NewMatrix(environments []Environment, checks []Check) (*Matrix, error) {
	if len(environments) == 0 {
		return nil, ErrNoEnvironments
	}
	if len(checks) == 0 {
		return nil, ErrNoChecks
	}
	return &Matrix{environments: environments, checks: checks}, nil
}

// TaskBatches returns the batches to execute, in order. The orchestrator
// completes a whole batch before starting the next one.
//
// Autofix runs once per capable check, against the first environment only:
// it rewrites files on disk, so repeating it per environment would redo the
// same work. The subsequent check batch re-verifies every check against
// every environment, which also confirms whatever the autofix pass changed.
func (m *Matrix) TaskBatches(opts WorkflowOptions) ([][]*Task, error) {
	if !opts.Has(WorkflowCheck) && !opts.Has(WorkflowAutofix) {
		return nil, ErrNoWorkflow
	}

	var batches [][]*Task

	if opts.Has(WorkflowAutofix) {
		for _, check := range m.checks {
			if !check.SupportsAutoFix() {
				continue
			}
			batches = append(batches, []*Task{{
				Check:         check,
				Environment:   m.environments[0],
				EnableAutofix: true,
				Purpose:       PurposeAutofix,
			}})
		}
	}

	if opts.Has(WorkflowCheck) {
		batch := make([]*Task, 0, len(m.environments)*len(m.checks))
		for _, env := range m.environments {
			for _, check := range m.checks {
				batch = append(batch, &Task{
					Check:       check,
					Environment: env,
					Purpose:     PurposeCheck,
				})
			}
		}
		batches = append(batches, batch)
	}

	return batches, nil
}
