package stats

import (
	"errors"
	"strings"
)

// MetricUpdate replaces the metric of one (title, timeframe) pair in the backing store.
type MetricUpdate struct {
	Title     string    `json:"title"`
	Timeframe Timeframe `json:"timeframe"`
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	Position  *int      `json:"position,omitempty"`
}

// Validate normalises the timeframe and checks the update can be stored.
func (u *MetricUpdate) Validate() error {
	u.Title = strings.TrimSpace(u.Title)
	if u.Title == "" {
		return errors.New("title is required")
	}
	tf, err := ParseTimeframe(string(u.Timeframe))
	if err != nil {
		return err
	}
	u.Timeframe = tf
	if err := (Metric{Current: u.Current, Previous: u.Previous}).validate(); err != nil {
		return err
	}
	if u.Position != nil && *u.Position < 0 {
		return errors.New("position must be non-negative")
	}
	return nil
}

// Updates flattens the snapshot into one update per (title, timeframe), positioned by record order.
func (s Snapshot) Updates() []MetricUpdate {
	out := make([]MetricUpdate, 0, len(s)*len(Timeframes()))
	for i, rec := range s {
		for _, tf := range Timeframes() {
			m, ok := rec.Timeframes[tf]
			if !ok {
				continue
			}
			position := i
			out = append(out, MetricUpdate{Title: rec.Title, Timeframe: tf, Current: m.Current, Previous: m.Previous, Position: &position})
		}
	}
	return out
}
