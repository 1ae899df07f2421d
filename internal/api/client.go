package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"preloader/internal/index"
	"preloader/internal/pacs"
)

// Client talks to a running preloader daemon over its HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given bind address or base URL. A bare
// host:port is promoted to http://, and a wildcard listen host is rewritten
// to loopback.
func NewClient(address string) (*Client, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("daemon address is required")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	address = strings.TrimRight(address, "/")
	address = strings.Replace(address, "//0.0.0.0:", "//127.0.0.1:", 1)
	return &Client{
		baseURL: address,
		http:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// HealthResponse is the daemon liveness reply.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// Health checks daemon liveness.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.get(ctx, "/api/health", &out)
	return out, err
}

// ListPatients fetches the sorted patient summaries.
func (c *Client) ListPatients(ctx context.Context) ([]index.PatientSummary, error) {
	var out struct {
		Patients []index.PatientSummary `json:"patients"`
	}
	if err := c.get(ctx, "/api/patients", &out); err != nil {
		return nil, err
	}
	return out.Patients, nil
}

// GetPatient fetches one patient's detail document.
func (c *Client) GetPatient(ctx context.Context, key string) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, "/api/patients/"+key, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingRefreshes fetches the refresh-request map.
func (c *Client) PendingRefreshes(ctx context.Context) (map[string]time.Time, error) {
	var out struct {
		Pending map[string]time.Time `json:"pending"`
	}
	if err := c.get(ctx, "/api/pending_refreshes", &out); err != nil {
		return nil, err
	}
	return out.Pending, nil
}

// RequestRefresh marks a patient for refresh.
func (c *Client) RequestRefresh(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodPost, "/api/patients/"+key+"/request-refresh", nil)
}

// ClearRefresh removes a pending refresh marker.
func (c *Client) ClearRefresh(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, "/api/pending_refreshes/"+key, nil)
}

// ClearAll wipes the daemon's index and stored images.
func (c *Client) ClearAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/clear", nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, out)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var envelope struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		message = envelope.Error
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return pacs.Wrap(pacs.ErrNotFound, "api", "request", message, nil)
	case http.StatusBadRequest:
		return pacs.Wrap(pacs.ErrValidation, "api", "request", message, nil)
	case http.StatusServiceUnavailable:
		return pacs.Wrap(pacs.ErrUnavailable, "api", "request", message, nil)
	default:
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, message)
	}
}

func wrapDialError(err error, baseURL string) error {
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon at %s: connection refused; start it with `preloader serve`", baseURL)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("connect to daemon at %s: timed out", baseURL)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}
