package ci

// ClassifyExit maps a process exit code to a status given the check's
// acceptable failure exit codes. A listed exit code means the tool ran to
// completion and found issues (CheckFailed); anything else non-zero means
// the tooling itself broke (Error).
func ClassifyExit(exitCode int, acceptable []int) Status {
	if exitCode == 0 {
		return Success
	}
	for _, code := range acceptable {
		if exitCode == code {
			return CheckFailed
		}
	}
	return Error
}
