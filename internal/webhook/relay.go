// Package webhook forwards storefront events to an outbound automation hook
// (a Zapier catch hook in production).
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when no hook URL is set.
var ErrNotConfigured = errors.New("webhook URL is not configured")

// Source is stamped on every payload.
const Source = "nexus-techhub"

// Payload is the JSON body posted to the hook.
type Payload struct {
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Relay posts events to the hook.
type Relay interface {
	Send(ctx context.Context, event string, data any) error
}

// HTTPRelay is a Relay over plain JSON POSTs.
type HTTPRelay struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewHTTPRelay returns a relay posting to url. An empty url yields a relay
// whose Send always fails with ErrNotConfigured.
func NewHTTPRelay(url string) *HTTPRelay {
	return &HTTPRelay{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Configured reports whether a hook URL is set.
func (r *HTTPRelay) Configured() bool {
	return r.url != ""
}

// Send implements Relay. Any non-2xx answer is an error.
func (r *HTTPRelay) Send(ctx context.Context, event string, data any) error {
	if r.url == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(Payload{Event: event, Data: data, Timestamp: r.now(), Source: Source})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook answered %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
