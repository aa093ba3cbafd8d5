package imagesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const maxResponseBytes = 64 * 1024

// NetworkError reports a failed attempt to obtain a random image.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to fetch random image from %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// dogAPIResponse is the body returned by https://dog.ceo/api/breeds/image/random
type dogAPIResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Client fetches random dog images from a dog.ceo compatible endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
	}
}

// FetchRandom performs a single request; there is no retry.
func (c *Client) FetchRandom(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", c.networkError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.networkError(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("failed to close image source response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.networkError(fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	var body dogAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return "", c.networkError(fmt.Errorf("failed to decode response: %w", err))
	}
	if body.Status != "success" {
		return "", c.networkError(fmt.Errorf("unexpected response status %q", body.Status))
	}
	if body.Message == "" {
		return "", c.networkError(fmt.Errorf("response contains no image url"))
	}

	slog.Debug("fetched random dog image", "url", body.Message)
	return body.Message, nil
}

func (c *Client) networkError(err error) error {
	return &NetworkError{Endpoint: c.endpoint, Err: err}
}
