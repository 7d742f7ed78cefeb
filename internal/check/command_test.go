package check

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stew/internal/ci"
)

// scriptEnv is a CommandEnvironment that records every BuildCommand call and
// executes a fixed shell script instead of the real tool.
type scriptEnv struct {
	script string

	mu    sync.Mutex
	calls [][]string
}

func (e *scriptEnv) Key() string        { return "fake-env" }
func (e *scriptEnv) String() string     { return "fake-env" }
func (e *scriptEnv) Executable() string { return "/bin/sh" }

func (e *scriptEnv) BuildCommand(tool string, args ...string) []string {
	e.mu.Lock()
	e.calls = append(e.calls, append([]string{tool}, args...))
	e.mu.Unlock()
	return []string{"sh", "-c", e.script}
}

func (e *scriptEnv) recorded() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.calls))
	copy(out, e.calls)
	return out
}

func newTestCheck(t *testing.T, spec CommandCheckSpec) *CommandCheck {
	t.Helper()
	if spec.Name == "" {
		spec.Name = "custom"
	}
	if spec.ProjectDir == "" {
		spec.ProjectDir = t.TempDir()
	}
	chk, err := NewCommandCheck(spec)
	if err != nil {
		t.Fatalf("NewCommandCheck: %v", err)
	}
	return chk
}

func TestCommandCheckSuccess(t *testing.T) {
	env := &scriptEnv{script: "echo all good"}
	chk := newTestCheck(t, CommandCheckSpec{})

	result, err := chk.Launch(context.Background(), env, false)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if result.Status != ci.Success {
		t.Errorf("status = %v, want Success", result.Status)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", result.ExitCode)
	}
	if diff := cmp.Diff([]string{"all good"}, result.Output); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandCheckAcceptableFailure(t *testing.T) {
	env := &scriptEnv{script: "echo lint violations found; exit 1"}
	chk := newTestCheck(t, CommandCheckSpec{})

	result, err := chk.Launch(context.Background(), env, false)
	if err != nil {
		t.Fatalf("an acceptable exit code must not return an error, got %v", err)
	}
	if result.Status != ci.CheckFailed {
		t.Errorf("status = %v, want CheckFailed", result.Status)
	}
	if result.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", result.ExitCode)
	}
}

func TestCommandCheckUnexpectedExitCode(t *testing.T) {
	env := &scriptEnv{script: "exit 3"}
	chk := newTestCheck(t, CommandCheckSpec{AcceptableExitCodes: []int{1}})

	result, err := chk.Launch(context.Background(), env, false)
	if err == nil {
		t.Fatal("an unexpected exit code must return an error")
	}
	if result.Status != ci.Error {
		t.Errorf("status = %v, want Error", result.Status)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", result.ExitCode)
	}
}

func TestCommandCheckMissingExecutable(t *testing.T) {
	env := &brokenEnv{}
	chk := newTestCheck(t, CommandCheckSpec{})

	result, err := chk.Launch(context.Background(), env, false)
	if err == nil {
		t.Fatal("a missing executable must return an error")
	}
	if result.Status != ci.Error {
		t.Errorf("status = %v, want Error", result.Status)
	}
}

// brokenEnv points at an executable that does not exist.
type brokenEnv struct{}

func (brokenEnv) Key() string        { return "broken" }
func (brokenEnv) String() string     { return "broken" }
func (brokenEnv) Executable() string { return "/nonexistent/python" }
func (brokenEnv) BuildCommand(tool string, args ...string) []string {
	return []string{"/nonexistent/bin/" + tool}
}

func TestCommandCheckCancellation(t *testing.T) {
	env := &scriptEnv{script: "sleep 30"}
	chk := newTestCheck(t, CommandCheckSpec{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := chk.Launch(ctx, env, false)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Launch = %v, want context deadline", err)
	}
	if result.Status != ci.Cancelled {
		t.Errorf("status = %v, want Cancelled", result.Status)
	}
}

func TestCommandCheckAutofixArgSelection(t *testing.T) {
	env := &scriptEnv{script: "exit 0"}
	chk := newTestCheck(t, CommandCheckSpec{
		Name:        "black",
		CheckArgs:   []string{".", "--check"},
		AutofixArgs: []string{"."},
	})

	if !chk.SupportsAutoFix() {
		t.Fatal("autofix args must make the check autofix-capable")
	}

	if _, err := chk.Launch(context.Background(), env, true); err != nil {
		t.Fatalf("autofix launch: %v", err)
	}
	if _, err := chk.Launch(context.Background(), env, false); err != nil {
		t.Fatalf("check launch: %v", err)
	}

	want := [][]string{
		{"black", "."},            // autofix pass
		{"black", ".", "--check"}, // verification pass
	}
	if diff := cmp.Diff(want, env.recorded()); diff != "" {
		t.Errorf("command selection mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandCheckWithoutAutofixIgnoresFlag(t *testing.T) {
	env := &scriptEnv{script: "exit 0"}
	chk := newTestCheck(t, CommandCheckSpec{
		Name:      "pytest",
		CheckArgs: []string{"--tb=short"},
	})

	if chk.SupportsAutoFix() {
		t.Fatal("check without autofix args must not claim autofix support")
	}
	if _, err := chk.Launch(context.Background(), env, true); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	want := [][]string{{"pytest", "--tb=short"}}
	if diff := cmp.Diff(want, env.recorded()); diff != "" {
		t.Errorf("autofix flag must fall back to check args (-want +got):\n%s", diff)
	}
}

func TestParseWorkingDirectory(t *testing.T) {
	tests := []struct {
		in      string
		want    WorkingDirectory
		wantErr bool
	}{
		{"", DirProject, false},
		{"project", DirProject, false},
		{"repository", DirRepository, false},
		{"Repository", DirProject, true},
		{"somewhere", DirProject, true},
	}
	for _, tt := range tests {
		got, err := ParseWorkingDirectory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWorkingDirectory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseWorkingDirectory(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
