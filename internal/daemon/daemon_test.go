package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"preloader/internal/logging"
	"preloader/internal/testsupport"
)

func startDaemon(t *testing.T) *Daemon {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithoutOCR())
	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close daemon: %v", err)
		}
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return d
}

func TestDaemonServesHealth(t *testing.T) {
	d := startDaemon(t)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + d.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("health body = %v", body)
	}
}

func TestDaemonRejectsSecondStart(t *testing.T) {
	d := startDaemon(t)
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutOCR())

	first, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer first.Close()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cfg.Paths.Bind = "127.0.0.1:0"
	second, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	defer second.Close()
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected lock contention error")
	}
}

func TestDaemonStopReleasesLock(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutOCR())

	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	next, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New after stop: %v", err)
	}
	defer next.Close()
	if err := next.Start(context.Background()); err != nil {
		t.Fatalf("restart after release: %v", err)
	}
}

func TestStatusSnapshot(t *testing.T) {
	d := startDaemon(t)
	status := d.Status(context.Background())
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.IndexPath == "" || status.LockFilePath == "" {
		t.Fatalf("incomplete status %#v", status)
	}
	if len(status.Preflight) == 0 {
		t.Fatal("expected preflight results")
	}
}
