package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"preloader/internal/index"
)

func newPatientsBackend(t *testing.T, patients []index.PatientSummary) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/patients":
			json.NewEncoder(w).Encode(map[string]any{"patients": patients})
		case "/api/pending_refreshes":
			json.NewEncoder(w).Encode(map[string]any{
				"pending": map[string]time.Time{"Doe_Jane_1980-02-01": time.Now().UTC()},
			})
		case "/api/clear":
			json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPatientsCommandRendersTable(t *testing.T) {
	srv := newPatientsBackend(t, []index.PatientSummary{
		{Key: "Doe_Jane_1980-02-01", Name: "doe, jane", DOB: "1980-02-01", ClinicDate: "2026-09-01", StudyCount: 2, ImageCount: 5},
	})

	out, err := executeCommand(t, "patients", "--server", srv.URL, "--config", writeTestConfig(t))
	if err != nil {
		t.Fatalf("patients: %v", err)
	}
	if !strings.Contains(out, "Doe_Jane_1980-02-01") {
		t.Fatalf("missing key in output: %q", out)
	}
	if !strings.Contains(out, "Doe, Jane") {
		t.Fatalf("expected title-cased name in output: %q", out)
	}
	if !strings.Contains(out, "1 patient(s)") {
		t.Fatalf("missing count line: %q", out)
	}
}

func TestPatientsCommandEmpty(t *testing.T) {
	srv := newPatientsBackend(t, nil)

	out, err := executeCommand(t, "patients", "--server", srv.URL, "--config", writeTestConfig(t))
	if err != nil {
		t.Fatalf("patients: %v", err)
	}
	if !strings.Contains(out, "No patients preloaded") {
		t.Fatalf("output = %q", out)
	}
}

func TestPendingCommand(t *testing.T) {
	srv := newPatientsBackend(t, nil)

	out, err := executeCommand(t, "pending", "--server", srv.URL, "--config", writeTestConfig(t))
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if !strings.Contains(out, "Doe_Jane_1980-02-01") {
		t.Fatalf("output = %q", out)
	}
}

func TestClearCommandWithForce(t *testing.T) {
	srv := newPatientsBackend(t, nil)

	out, err := executeCommand(t, "clear", "--force", "--server", srv.URL, "--config", writeTestConfig(t))
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(out, "Cache cleared") {
		t.Fatalf("output = %q", out)
	}
}
