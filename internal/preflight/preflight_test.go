package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"preloader/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if res := CheckDirectoryAccess("Data directory", dir); !res.Passed {
		t.Fatalf("expected pass for writable dir, got %#v", res)
	}

	missing := filepath.Join(dir, "absent")
	if res := CheckDirectoryAccess("Data directory", missing); res.Passed {
		t.Fatalf("expected failure for missing dir, got %#v", res)
	}

	file := filepath.Join(dir, "plainfile")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if res := CheckDirectoryAccess("Data directory", file); res.Passed {
		t.Fatalf("expected failure for non-directory, got %#v", res)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if res := CheckFreeSpace("Free space", dir, 1); !res.Passed {
		t.Fatalf("expected pass for a 1-byte floor, got %#v", res)
	}
	if res := CheckFreeSpace("Free space", dir, ^uint64(0)); res.Passed {
		t.Fatalf("expected failure for an impossible floor, got %#v", res)
	}
	if res := CheckFreeSpace("Free space", filepath.Join(dir, "absent"), 1); res.Passed {
		t.Fatalf("expected failure for missing path, got %#v", res)
	}
}

func TestRunAllSkipsRecognitionWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.OCR.Enabled = false

	results := RunAll(context.Background(), cfg)
	for _, res := range results {
		if res.Name == "Tesseract" {
			t.Fatalf("recognition check should be gated off, got %#v", res)
		}
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(results))
	}
}

func TestAllPassed(t *testing.T) {
	if !AllPassed([]Result{{Passed: true}, {Passed: true}}) {
		t.Fatal("expected all-passed")
	}
	if AllPassed([]Result{{Passed: true}, {}}) {
		t.Fatal("expected failure to propagate")
	}
	if !AllPassed(nil) {
		t.Fatal("empty result set counts as passed")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{256 << 20, "256.0 MiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Fatalf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
