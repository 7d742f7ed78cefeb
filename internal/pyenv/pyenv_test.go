package pyenv

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeFakePython drops an executable placeholder shaped like a virtualenv
// interpreter and returns the virtualenv root.
func writeFakePython(t *testing.T) string {
	t.Helper()
	venv := t.TempDir()
	dir := filepath.Join(venv, binDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	exe := filepath.Join(dir, "python"+exeSuffix)
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return venv
}

func TestNewFromVirtualenvDir(t *testing.T) {
	venv := writeFakePython(t)
	env, err := New(venv)
	if err != nil {
		t.Fatalf("New(%s): %v", venv, err)
	}
	if !strings.HasSuffix(env.Executable(), "python"+exeSuffix) {
		t.Errorf("executable = %q, want a python binary", env.Executable())
	}
	if env.Key() != env.Executable() {
		t.Errorf("Key() = %q, want the executable path", env.Key())
	}
}

func TestNewFromExecutablePath(t *testing.T) {
	venv := writeFakePython(t)
	exe := filepath.Join(venv, binDir, "python"+exeSuffix)
	env, err := New(exe)
	if err != nil {
		t.Fatalf("New(%s): %v", exe, err)
	}
	if filepath.Base(env.Executable()) != "python"+exeSuffix {
		t.Errorf("executable = %q", env.Executable())
	}
}

func TestNewMissingInterpreter(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("New with a missing path must fail")
	}
}

func TestBuildCommand(t *testing.T) {
	venv := writeFakePython(t)
	env, err := New(venv)
	if err != nil {
		t.Fatal(err)
	}

	argv := env.BuildCommand("mypy", "--strict", ".")
	want := []string{env.Executable(), "-m", "mypy", "--strict", "."}
	if len(argv) != len(want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestToolPath(t *testing.T) {
	venv := writeFakePython(t)
	env, err := New(venv)
	if err != nil {
		t.Fatal(err)
	}
	got := env.ToolPath("black")
	if filepath.Dir(got) != filepath.Dir(env.Executable()) {
		t.Errorf("tool path %q not next to interpreter %q", got, env.Executable())
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(got, ".exe") {
		t.Errorf("tool path %q missing .exe suffix", got)
	}
}
