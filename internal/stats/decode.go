package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// Decode parses a JSON array of activity records and validates it.
// Every failure is returned as a *ParseError.
func Decode(r io.Reader) (Snapshot, error) {
	var records []ActivityRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, &ParseError{Err: err}
	}
	if records == nil {
		return nil, &ParseError{Err: errors.New("body is not a JSON array")}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("unexpected data after the records array")}
	}
	snap := Snapshot(records)
	if err := snap.Validate(); err != nil {
		return nil, &ParseError{Err: err}
	}
	return snap, nil
}

// Validate checks the invariants every acquired snapshot must satisfy.
// Individual timeframe keys may be absent; that is handled per card.
func (s Snapshot) Validate() error {
	seen := make(map[string]int, len(s))
	for i, rec := range s {
		title := strings.TrimSpace(rec.Title)
		if title == "" {
			return fmt.Errorf("record %d: title is required", i)
		}
		if rec.Timeframes == nil {
			return fmt.Errorf("record %q: timeframes is required", rec.Title)
		}
		key := strings.ToLower(title)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("record %d: title %q duplicates record %d", i, rec.Title, prev)
		}
		seen[key] = i
		for tf, m := range rec.Timeframes {
			if err := m.validate(); err != nil {
				return fmt.Errorf("record %q %s: %w", rec.Title, tf, err)
			}
		}
	}
	return nil
}

func (m Metric) validate() error {
	for _, v := range []float64{m.Current, m.Previous} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("hours must be finite")
		}
		if v < 0 {
			return errors.New("hours must be non-negative")
		}
	}
	return nil
}

// UnmarshalJSON requires both current and previous to be present.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return errors.New("metric must be an object")
	}
	var wire struct {
		Current  *float64 `json:"current"`
		Previous *float64 `json:"previous"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Current == nil || wire.Previous == nil {
		return errors.New("metric requires current and previous")
	}
	m.Current, m.Previous = *wire.Current, *wire.Previous
	return nil
}
