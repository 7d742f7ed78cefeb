package format_test

import (
	"strings"
	"testing"
	"time"

	"stew/internal/format"
)

func TestASCII_BasicTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Check", "Environment", "Result")
	tb.Row("mypy", "py3.11", "Success")
	tb.Row("pytest", "py3.11", "CheckFailed")
	out := tb.String()

	// ASCII mode uses StyleLight which has box-drawing chars
	if !strings.Contains(out, "Check") {
		t.Errorf("expected header 'Check' in output:\n%s", out)
	}
	if !strings.Contains(out, "CheckFailed") {
		t.Errorf("expected 'CheckFailed' in output:\n%s", out)
	}
	if strings.Contains(out, "───") == false {
		t.Errorf("expected box-drawing characters in ASCII output:\n%s", out)
	}
}

func TestMarkdown_BasicTable(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Check", "Environment", "Duration")
	tb.Row("black (autofix)", "py3.9", "120ms")
	tb.Row("ruff", "py3.11", "85ms")
	out := tb.String()

	// Markdown tables have | delimiters and --- separator
	if !strings.Contains(out, "| Check") {
		t.Errorf("expected markdown header with '| Check':\n%s", out)
	}
	if !strings.Contains(out, "---") {
		t.Errorf("expected markdown separator '---':\n%s", out)
	}
	if !strings.Contains(out, "black (autofix)") {
		t.Errorf("expected 'black (autofix)' in output:\n%s", out)
	}
}

func TestMarkdown_WithFooter(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Check", "Failures")
	tb.Row("mypy", 2)
	tb.Row("pytest", 1)
	tb.Footer("TOTAL", 3)
	out := tb.String()

	if !strings.Contains(out, "TOTAL") {
		t.Errorf("expected footer 'TOTAL' in output:\n%s", out)
	}
	if !strings.Contains(out, "3") {
		t.Errorf("expected footer value '3' in output:\n%s", out)
	}
}

func TestColumns_RightAlign(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Check", "Duration")
	tb.Row("pytest", "12.3s")
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	out := tb.String()

	if !strings.Contains(out, "12.3s") {
		t.Errorf("expected '12.3s' in output:\n%s", out)
	}
}

func TestSameData_DualFormat(t *testing.T) {
	build := func(m format.Mode) string {
		tb := format.NewTable(m)
		tb.Header("A", "B")
		tb.Row("x", "y")
		return tb.String()
	}

	ascii := build(format.ASCII)
	md := build(format.Markdown)

	if ascii == md {
		t.Error("ASCII and Markdown output should differ")
	}
	for _, out := range []string{ascii, md} {
		if !strings.Contains(out, "x") || !strings.Contains(out, "y") {
			t.Errorf("expected data in output:\n%s", out)
		}
	}
}

// --- Helper tests ---

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{350 * time.Millisecond, "350ms"},
		{1200 * time.Millisecond, "1.2s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "1m 30s"},
		{5*time.Minute + 5*time.Second, "5m 05s"},
	}
	for _, tc := range tests {
		got := format.FmtDuration(tc.in)
		if got != tc.want {
			t.Errorf("FmtDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 8, "hello..."},
		{"ab", 3, "ab"},
		{"abcdef", 3, "abc"},
	}
	for _, tc := range tests {
		got := format.Truncate(tc.in, tc.maxLen)
		if got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

func TestPlural(t *testing.T) {
	if got := format.Plural(1, "check", "checks"); got != "check" {
		t.Errorf("Plural(1) = %q", got)
	}
	if got := format.Plural(3, "check", "checks"); got != "checks" {
		t.Errorf("Plural(3) = %q", got)
	}
}
