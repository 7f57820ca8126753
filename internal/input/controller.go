// Package input translates timeframe selections into view model transitions.
package input

import (
	"strings"
	"sync"

	"example.com/timestats/internal/stats"
	"example.com/timestats/internal/view"
)

// Kind distinguishes how a control was activated.
type Kind int

const (
	Pointer Kind = iota
	Keyboard
)

func (k Kind) String() string {
	if k == Keyboard {
		return "keyboard"
	}
	return "pointer"
}

// Activation is one discrete selection event on a timeframe control.
type Activation struct {
	Target stats.Timeframe
	Kind   Kind
	Key    string
}

// Indicator is the selected-state of one timeframe control.
type Indicator struct {
	Timeframe stats.Timeframe `json:"timeframe"`
	Active    bool            `json:"active"`
}

// IsConfirmKey reports whether key activates a focused control.
func IsConfirmKey(key string) bool {
	switch strings.ToLower(key) {
	case "enter", " ", "space":
		return true
	}
	return false
}

// Controller routes activations to a ViewModel.
type Controller struct {
	model *view.ViewModel

	mu       sync.RWMutex
	onChange []func(stats.Timeframe)
}

// NewController constructs a Controller for model.
func NewController(model *view.ViewModel) *Controller {
	return &Controller{model: model}
}

// OnChange registers fn to run after every timeframe transition.
func (c *Controller) OnChange(fn func(stats.Timeframe)) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Handle applies a. Keyboard activations other than a confirm key are ignored.
func (c *Controller) Handle(a Activation) (bool, error) {
	if a.Kind == Keyboard && !IsConfirmKey(a.Key) {
		return false, nil
	}
	changed, err := c.model.SetTimeframe(a.Target)
	if err != nil || !changed {
		return false, err
	}

	c.mu.RLock()
	hooks := append([]func(stats.Timeframe){}, c.onChange...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(a.Target)
	}
	return true, nil
}

// Indicators returns one entry per timeframe; exactly one is active.
func (c *Controller) Indicators() []Indicator {
	current := c.model.Timeframe()
	out := make([]Indicator, 0, 3)
	for _, tf := range stats.Timeframes() {
		out = append(out, Indicator{Timeframe: tf, Active: tf == current})
	}
	return out
}
