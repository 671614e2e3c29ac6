package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

// Client talks to the external reasoner sidecar. The engine treats the
// reasoner as best-effort: callers are expected to swallow failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CheckConsistency(ctx context.Context) (domain.ConsistencyReport, error) {
	var response struct {
		Consistent  bool   `json:"consistent"`
		Explanation string `json:"explanation"`
	}
	if err := c.getJSON(ctx, "/v1/consistency", &response); err != nil {
		return domain.ConsistencyReport{}, err
	}
	return domain.ConsistencyReport{
		Consistent:  response.Consistent,
		Explanation: response.Explanation,
	}, nil
}

func (c *Client) Realize(ctx context.Context) (map[string][]string, error) {
	var response struct {
		Individuals map[string][]string `json:"individuals"`
	}
	if err := c.getJSON(ctx, "/v1/realization", &response); err != nil {
		return nil, err
	}
	return response.Individuals, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create reasoner request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reasoner request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("reasoner status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("reasoner status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode reasoner response: %w", err)
	}
	return nil
}
