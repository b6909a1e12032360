// Package meeting talks to the video meeting provider.
package meeting

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client interface {
	// CloseRoom tears the room down. A room that is already gone is not an
	// error.
	CloseRoom(ctx context.Context, roomName string) error
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient returns a no-op client when baseURL is empty.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) Client {
	if baseURL == "" {
		return noopClient{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) CloseRoom(ctx context.Context, roomName string) error {
	if roomName == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/rooms/"+url.PathEscape(roomName), nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound || isHTTPSuccessStatus(resp.StatusCode) {
		return nil
	}
	return fmt.Errorf("meeting provider returned status %d", resp.StatusCode)
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

type noopClient struct{}

func (noopClient) CloseRoom(context.Context, string) error { return nil }
