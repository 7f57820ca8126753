// Package stats defines the time-usage data model shared by the dashboard and the stats API.
package stats

import (
	"errors"
	"strings"
)

// ErrUnknownTimeframe is returned when a timeframe key is not one of daily, weekly or monthly.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// Timeframe scopes which metric of a record is displayed.
type Timeframe string

const (
	Daily   Timeframe = "daily"
	Weekly  Timeframe = "weekly"
	Monthly Timeframe = "monthly"
)

// DefaultTimeframe is selected when a view is created.
const DefaultTimeframe = Weekly

// Timeframes returns the supported timeframes in display order.
func Timeframes() []Timeframe {
	return []Timeframe{Daily, Weekly, Monthly}
}

// Valid reports whether t is one of the supported timeframes.
func (t Timeframe) Valid() bool {
	switch t {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// ParseTimeframe normalises user input into a Timeframe.
func ParseTimeframe(value string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(value)))
	if !tf.Valid() {
		return "", ErrUnknownTimeframe
	}
	return tf, nil
}

// Metric is a current/previous hour-count pair for one record under one timeframe.
type Metric struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

// ActivityRecord holds the metrics of one activity category.
type ActivityRecord struct {
	Title      string               `json:"title"`
	Timeframes map[Timeframe]Metric `json:"timeframes"`
}

// Metric returns the metric for tf or a *MissingTimeframeError.
func (r ActivityRecord) Metric(tf Timeframe) (Metric, error) {
	m, ok := r.Timeframes[tf]
	if !ok {
		return Metric{}, &MissingTimeframeError{Title: r.Title, Timeframe: tf}
	}
	return m, nil
}

// Snapshot is one complete set of activity records acquired at a point in time.
// Snapshots are replaced wholesale and never mutated in place.
type Snapshot []ActivityRecord

// Clone returns a deep copy so callers can hand out snapshots without sharing maps.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for i, rec := range s {
		frames := make(map[Timeframe]Metric, len(rec.Timeframes))
		for k, v := range rec.Timeframes {
			frames[k] = v
		}
		out[i] = ActivityRecord{Title: rec.Title, Timeframes: frames}
	}
	return out
}

// ViewState is the state a dashboard view is derived from.
type ViewState struct {
	Snapshot  Snapshot
	Timeframe Timeframe
}

// NewViewState returns the startup state: no data and the default timeframe.
func NewViewState() ViewState {
	return ViewState{Snapshot: Snapshot{}, Timeframe: DefaultTimeframe}
}
