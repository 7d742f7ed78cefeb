// Package report turns orchestration results into human and machine
// readable output: live console lines, a summary table, JUnit XML and a
// GitHub step summary.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"stew/internal/ci"
	"stew/internal/format"
)

var (
	styleStarted     = lipgloss.NewStyle().Faint(true)
	styleSuccess     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleCheckFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleError       = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleCancelled   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleNotRan      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleHeading     = lipgloss.NewStyle().Bold(true)
)

func statusStyle(s ci.Status) lipgloss.Style {
	switch s {
	case ci.Success:
		return styleSuccess
	case ci.CheckFailed:
		return styleCheckFailed
	case ci.Error:
		return styleError
	case ci.Cancelled:
		return styleCancelled
	default:
		return styleNotRan
	}
}

func statusGlyph(s ci.Status) string {
	switch s {
	case ci.Success:
		return "✓"
	case ci.CheckFailed:
		return "✗"
	case ci.Error:
		return "!"
	case ci.Cancelled:
		return "~"
	default:
		return "·"
	}
}

// Console streams one line per task event. It implements ci.Observer and is
// only ever called from the orchestrating goroutine, but guards its writer
// anyway so multiple projects can share one console.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool // echo failing output inline
}

// NewConsole builds a console reporter writing to out. With verbose set,
// the output of failing checks is echoed under the completion line.
func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{out: out, verbose: verbose}
}

// Heading prints a project banner before its checks start.
func (c *Console) Heading(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, styleHeading.Render(text))
}

// TaskStarted implements ci.Observer.
func (c *Console) TaskStarted(task *ci.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, styleStarted.Render(fmt.Sprintf("  ▶ %s [%s]", task.Name(), task.Environment)))
}

// TaskCompleted implements ci.Observer.
func (c *Console) TaskCompleted(task *ci.Task, result *ci.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	style := statusStyle(result.Status)
	line := fmt.Sprintf("  %s %s [%s] %s in %s",
		statusGlyph(result.Status), task.Name(), result.Environment,
		result.Status, format.FmtDuration(result.Duration))
	fmt.Fprintln(c.out, style.Render(line))

	if result.Status == ci.Success || result.Status == ci.Cancelled {
		return
	}
	if result.Err != nil {
		fmt.Fprintln(c.out, styleError.Render("    "+result.Err.Error()))
	}
	if c.verbose {
		for _, outputLine := range result.Output {
			fmt.Fprintln(c.out, "    "+outputLine)
		}
	}
}

// Summary prints the per-task results table followed by the overall verdict.
func (c *Console) Summary(results []*ci.Result, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tb := format.NewTable(format.ASCII)
	tb.Header("Check", "Environment", "Status", "Duration")
	for _, r := range results {
		tb.Row(r.Name, r.Environment, statusStyle(r.Status).Render(r.Status.String()), format.FmtDuration(r.Duration))
	}
	tb.Columns(format.ColumnConfig{Number: 4, Align: format.AlignRight})
	fmt.Fprintln(c.out, tb.String())

	overall := Overall(results)
	verdict := fmt.Sprintf("%d %s, %s in %s",
		len(results), format.Plural(len(results), "task", "tasks"),
		overall, format.FmtDuration(elapsed))
	fmt.Fprintln(c.out, statusStyle(overall).Render(verdict))
}

// Overall folds result statuses into the run verdict.
func Overall(results []*ci.Result) ci.Status {
	statuses := make([]ci.Status, len(results))
	for i, r := range results {
		statuses[i] = r.Status
	}
	return ci.OverallStatus(statuses)
}

// FailureDetails returns the full output of every non-successful result,
// ready to print after the summary table.
func FailureDetails(results []*ci.Result) string {
	var b strings.Builder
	for _, r := range results {
		if r.Status != ci.CheckFailed && r.Status != ci.Error {
			continue
		}
		fmt.Fprintf(&b, "--- %s [%s] %s ---\n", r.Name, r.Environment, r.Status)
		if output := r.OutputString(); output != "" {
			b.WriteString(output)
			b.WriteString("\n")
		}
		if r.Err != nil {
			fmt.Fprintf(&b, "error: %v\n", r.Err)
		}
	}
	return b.String()
}
