package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"preloader/internal/index"
	"preloader/internal/pacs"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientNormalizesAddress(t *testing.T) {
	client, err := NewClient("0.0.0.0:8888")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.baseURL != "http://127.0.0.1:8888" {
		t.Fatalf("baseURL = %q", client.baseURL)
	}

	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestHealth(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "time": "2026-09-01T08:00:00Z"})
	})

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("health = %+v", health)
	}
}

func TestListPatients(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"patients": []index.PatientSummary{
				{Key: "Doe_Jane", Name: "Doe, Jane", ImageCount: 3},
			},
		})
	})

	patients, err := client.ListPatients(context.Background())
	if err != nil {
		t.Fatalf("ListPatients: %v", err)
	}
	if len(patients) != 1 || patients[0].Key != "Doe_Jane" {
		t.Fatalf("patients = %+v", patients)
	}
}

func TestPendingRefreshes(t *testing.T) {
	stamp := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"pending": map[string]time.Time{"Doe_Jane": stamp},
		})
	})

	pending, err := client.PendingRefreshes(context.Background())
	if err != nil {
		t.Fatalf("PendingRefreshes: %v", err)
	}
	if got, ok := pending["Doe_Jane"]; !ok || !got.Equal(stamp) {
		t.Fatalf("pending = %v", pending)
	}
}

func TestErrorTaxonomyMapping(t *testing.T) {
	cases := []struct {
		status int
		marker error
	}{
		{http.StatusNotFound, pacs.ErrNotFound},
		{http.StatusBadRequest, pacs.ErrValidation},
		{http.StatusServiceUnavailable, pacs.ErrUnavailable},
	}
	for _, tc := range cases {
		client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
		})
		err := client.RequestRefresh(context.Background(), "missing")
		if !errors.Is(err, tc.marker) {
			t.Fatalf("status %d: got %v, want %v", tc.status, err, tc.marker)
		}
	}
}

func TestClearAll(t *testing.T) {
	var method, path string
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
	})

	if err := client.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if method != http.MethodDelete || path != "/api/clear" {
		t.Fatalf("request = %s %s", method, path)
	}
}
