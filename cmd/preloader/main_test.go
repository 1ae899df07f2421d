package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeTestConfig writes a config file with all paths under a temp dir and
// returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
bind = "127.0.0.1:0"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRootShowsHelp(t *testing.T) {
	out, err := executeCommand(t, "--config", writeTestConfig(t))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("Usage:")) {
		t.Fatalf("expected help output, got %q", out)
	}
}

func TestClearRequiresForce(t *testing.T) {
	_, err := executeCommand(t, "clear", "--config", writeTestConfig(t))
	if err == nil {
		t.Fatal("expected error without --force")
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := executeCommand(t, "definitely-not-a-command", "--config", writeTestConfig(t)); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
