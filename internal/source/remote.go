package source

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/timestats/internal/stats"
)

// RemoteSource names the HTTP endpoint strategy.
const RemoteSource = "remote"

// StatsPath is the endpoint path appended to the configured base URL.
const StatsPath = "/timestats"

// RemoteStrategy fetches the snapshot from the stats API.
type RemoteStrategy struct {
	client *http.Client
	url    string
	token  string
}

// NewRemoteStrategy constructs a RemoteStrategy for baseURL. A non-empty token is sent as a bearer credential.
func NewRemoteStrategy(baseURL, token string, timeout time.Duration) *RemoteStrategy {
	return &RemoteStrategy{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimRight(baseURL, "/") + StatsPath,
		token:  token,
	}
}

// Name implements Strategy.
func (s *RemoteStrategy) Name() string { return RemoteSource }

// Load implements Strategy. Success requires a transport-level success and a 2xx status.
func (s *RemoteStrategy) Load(ctx context.Context) (stats.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &stats.TransportError{Source: RemoteSource, URL: s.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &stats.TransportError{Source: RemoteSource, URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &stats.TransportError{Source: RemoteSource, URL: s.url, StatusCode: resp.StatusCode}
	}

	snap, err := stats.Decode(resp.Body)
	if err != nil {
		var parseErr *stats.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Source = RemoteSource
		}
		return nil, err
	}
	return snap, nil
}
