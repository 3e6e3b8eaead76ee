// Package helpers provides the HTTP client and fake collaborators used by
// the registry API integration suite.
package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Identity carries the gateway identity headers attached to a request.
type Identity struct {
	UserID   string
	TenantID string
	Scopes   []string
}

// APIClient is a thin HTTP client over a running registry server.
type APIClient struct {
	BaseURL  string
	Identity *Identity

	httpClient *http.Client
}

// NewAPIClient creates a client for the server at baseURL, e.g.
// "http://127.0.0.1:8420".
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithIdentity returns a copy of the client that sends the given identity
// headers with every request.
func (c *APIClient) WithIdentity(id Identity) *APIClient {
	clone := *c
	clone.Identity = &id
	return &clone
}

// WaitForReady polls the readiness endpoint until it answers 200 or the
// timeout elapses.
func (c *APIClient) WaitForReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := c.httpClient.Get(c.BaseURL + "/readiness")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not ready within %s", c.BaseURL, timeout)
}

// Do sends a request with an optional JSON body and returns the response.
// Paths are relative to the versioned API root.
func (c *APIClient) Do(method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.BaseURL+"/api/v1"+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Identity != nil {
		req.Header.Set("X-Plx-User-Id", c.Identity.UserID)
		if c.Identity.TenantID != "" {
			req.Header.Set("X-Plx-Tenant-Id", c.Identity.TenantID)
		}
		if len(c.Identity.Scopes) > 0 {
			req.Header.Set("X-Plx-Scopes", strings.Join(c.Identity.Scopes, ","))
		}
	}
	return c.httpClient.Do(req)
}

// DoJSON sends a request and decodes the JSON response into out, returning
// the HTTP status code. A nil out discards the body.
func (c *APIClient) DoJSON(method, path string, body, out any) (int, error) {
	resp, err := c.Do(method, path, body)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}
