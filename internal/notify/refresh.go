// Package notify tells running dashboards that the stats store changed.
package notify

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Notifier defines a refresh notification contract.
type Notifier interface {
	NotifyRefresh(ctx context.Context, title string) error
}

// Noop is a no-op implementation.
type Noop struct{}

// NotifyRefresh performs no action.
func (Noop) NotifyRefresh(context.Context, string) error { return nil }

// HTTPNotifier posts to a dashboard refresh endpoint.
type HTTPNotifier struct {
	client *http.Client
	url    string
	token  string
}

// NewHTTPNotifier constructs an HTTPNotifier for the dashboard's /refresh URL.
func NewHTTPNotifier(endpoint, token string, timeout time.Duration) *HTTPNotifier {
	return &HTTPNotifier{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		url:   strings.TrimRight(endpoint, "/"),
		token: token,
	}
}

// NotifyRefresh triggers a POST naming the changed activity.
func (h *HTTPNotifier) NotifyRefresh(ctx context.Context, title string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, strings.NewReader(title))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode}
	}
	return nil
}

// Error represents a non-successful refresh response.
type Error struct {
	Status int
}

func (e *Error) Error() string {
	return "dashboard refresh failed with status " + http.StatusText(e.Status)
}
