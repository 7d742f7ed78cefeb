// Package ci turns a declarative set of checks and Python environments into
// an ordered, concurrently-executed batch plan and aggregates the outcomes
// into a single run-level verdict.
package ci

// Status is the outcome of a single check invocation.
//
// The numeric order is the severity order: when many task outcomes are
// collapsed into one run verdict, the highest value wins. Any Error anywhere
// makes the run errored; a CheckFailed without errors makes it failed; a
// cancellation without failures is reported as cancelled.
type Status int

const (
	NotRan Status = iota
	Success
	Cancelled
	CheckFailed
	Error
)

func (s Status) String() string {
	switch s {
	case NotRan:
		return "NotRan"
	case Success:
		return "Success"
	case Cancelled:
		return "Cancelled"
	case CheckFailed:
		return "CheckFailed"
	case Error:
		return "Error"
	}
	return "Unknown"
}

// OverallStatus returns the most severe status in the list.
// An empty list yields NotRan.
func OverallStatus(statuses []Status) Status {
	overall := NotRan
	for _, s := range statuses {
		if s > overall {
			overall = s
		}
	}
	return overall
}
