package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"stew/internal/ci"
	"stew/internal/format"
)

// stepSummaryEnv is set by GitHub Actions to the path of the job's Markdown
// summary file.
const stepSummaryEnv = "GITHUB_STEP_SUMMARY"

func statusEmoji(s ci.Status) string {
	switch s {
	case ci.Success:
		return "✅"
	case ci.CheckFailed:
		return "❌"
	case ci.Error:
		return "💥"
	case ci.Cancelled:
		return "⚠️"
	default:
		return "⏭️"
	}
}

// StepSummary writes one project's results as a Markdown section.
func StepSummary(w io.Writer, projectName string, results []*ci.Result, elapsed time.Duration) error {
	overall := Overall(results)
	if _, err := fmt.Fprintf(w, "## %s %s\n\n", statusEmoji(overall), projectName); err != nil {
		return err
	}

	tb := format.NewTable(format.Markdown)
	tb.Header("Check", "Environment", "Status", "Duration")
	for _, r := range results {
		env := ""
		if r.Environment != nil {
			env = r.Environment.String()
		}
		tb.Row(r.Name, env, fmt.Sprintf("%s %s", statusEmoji(r.Status), r.Status), format.FmtDuration(r.Duration))
	}
	if _, err := fmt.Fprintln(w, tb.String()); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s in %s\n\n", overall, format.FmtDuration(elapsed))
	return err
}

// AppendStepSummary appends the project's section to the file GitHub Actions
// points GITHUB_STEP_SUMMARY at. Outside of Actions it reports that the
// variable is unset instead of guessing a path.
func AppendStepSummary(projectName string, results []*ci.Result, elapsed time.Duration) error {
	path := os.Getenv(stepSummaryEnv)
	if path == "" {
		return fmt.Errorf("%s is not set", stepSummaryEnv)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open step summary: %w", err)
	}
	defer f.Close()

	return StepSummary(f, projectName, results, elapsed)
}
