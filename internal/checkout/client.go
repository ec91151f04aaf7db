package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sacviet-order-service/internal/api"
	"sacviet-order-service/internal/poller"
	"sacviet-order-service/internal/service"
)

// APIClient talks to the order service over HTTP
type APIClient struct {
	*poller.HTTPStatusReader
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a client for baseURL. A nil client gets a 10 second timeout.
func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &APIClient{
		HTTPStatusReader: poller.NewHTTPStatusReader(baseURL, client),
		baseURL:          baseURL,
		client:           client,
	}
}

// CreateOrder submits a checkout
func (c *APIClient) CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (*service.CreateOrderResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp service.CreateOrderResponse
	if err := c.do(httpReq, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOrders returns a user's order history
func (c *APIClient) ListOrders(ctx context.Context, userID string) ([]api.OrderView, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/%s/orders", c.baseURL, url.PathEscape(userID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build list request: %w", err)
	}

	var body struct {
		Orders []api.OrderView `json:"orders"`
	}
	if err := c.do(httpReq, http.StatusOK, &body); err != nil {
		return nil, err
	}
	return body.Orders, nil
}

func (c *APIClient) do(req *http.Request, want int, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
