package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spec-kit/courtweb-service/internal/config"
	"github.com/spec-kit/courtweb-service/internal/domain"
)

// FetchError reports a failed permission lookup. StatusCode is zero when
// the failure happened before an HTTP status was received.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("permission fetch failed: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("permission fetch failed: %s", e.Message)
}

// Client calls the external authorization service. It performs no retries
// and has no side effects beyond the outbound call.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a permission client from configuration.
func NewClient(cfg config.PermissionConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout()},
	}
}

// FetchPermissions retrieves the permission set for the given external
// subject id. Non-2xx responses and transport failures surface as
// *FetchError.
func (c *Client) FetchPermissions(ctx context.Context, subjectID string) (*domain.PermissionResult, error) {
	if subjectID == "" {
		return nil, errors.New("subject id required")
	}

	url := fmt.Sprintf("%s/permissions/%s", c.baseURL, subjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Message: err.Error()}
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Message: err.Error()}
	}

	var result domain.PermissionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("decode response: %v", err)}
	}
	return &result, nil
}
