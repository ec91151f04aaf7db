package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sacviet-order-service/internal/models"
)

// HTTPStatusReader reads order status from the order service's status endpoint
type HTTPStatusReader struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStatusReader creates a reader against baseURL, e.g. http://localhost:8080.
// A nil client gets a 10 second timeout.
func NewHTTPStatusReader(baseURL string, client *http.Client) *HTTPStatusReader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStatusReader{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type statusResponse struct {
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
}

// OrderStatus implements StatusReader
func (r *HTTPStatusReader) OrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	endpoint := fmt.Sprintf("%s/api/v1/orders/%s/status", r.baseURL, url.PathEscape(orderID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to read order status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for order %s", resp.StatusCode, orderID)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode status response: %w", err)
	}
	return body.Status, nil
}
