package stats

import (
	"fmt"
	"net/http"
)

// TransportError reports that a source could not be reached or answered with a non-OK status.
type TransportError struct {
	Source     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s returned %d %s", e.Source, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("%s: %s unavailable: %v", e.Source, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: %s unavailable", e.Source, e.URL)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a malformed or schema-violating snapshot body.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse snapshot: %v", e.Err)
	}
	return fmt.Sprintf("%s: parse snapshot: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingTimeframeError reports a record without data for the requested timeframe.
type MissingTimeframeError struct {
	Title     string
	Timeframe Timeframe
}

func (e *MissingTimeframeError) Error() string {
	return fmt.Sprintf("record %q has no %s metric", e.Title, e.Timeframe)
}
