// Package view holds the dashboard view model and the pure card renderer.
package view

import (
	"sync"

	"example.com/timestats/internal/stats"
)

// ViewModel owns the current snapshot and selected timeframe.
// Snapshot and timeframe are independent last-write-wins fields.
type ViewModel struct {
	mu    sync.RWMutex
	state stats.ViewState
	dirty bool
}

// NewViewModel returns a model with an empty snapshot and the default timeframe.
func NewViewModel() *ViewModel {
	return &ViewModel{state: stats.NewViewState()}
}

// SetSnapshot replaces the snapshot wholesale and marks the view dirty.
func (m *ViewModel) SetSnapshot(s stats.Snapshot) {
	if s == nil {
		s = stats.Snapshot{}
	}
	m.mu.Lock()
	m.state.Snapshot = s
	m.dirty = true
	m.mu.Unlock()
}

// SetTimeframe selects tf. Selecting the current timeframe changes nothing.
func (m *ViewModel) SetTimeframe(tf stats.Timeframe) (bool, error) {
	if !tf.Valid() {
		return false, stats.ErrUnknownTimeframe
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Timeframe == tf {
		return false, nil
	}
	m.state.Timeframe = tf
	m.dirty = true
	return true, nil
}

// State returns the current view state.
func (m *ViewModel) State() stats.ViewState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Timeframe returns the selected timeframe.
func (m *ViewModel) Timeframe() stats.Timeframe {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Timeframe
}

// Dirty reports whether the state changed since the last ClearDirty.
func (m *ViewModel) Dirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirty
}

// ClearDirty acknowledges a render.
func (m *ViewModel) ClearDirty() {
	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()
}
