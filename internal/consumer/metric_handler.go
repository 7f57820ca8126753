package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"example.com/timestats/internal/notify"
	"example.com/timestats/internal/stats"
)

// EventMetricUpdated is the event_type header value of metric update messages.
const EventMetricUpdated = "timestats.metric_updated"

// MetricStore persists metric updates.
type MetricStore interface {
	UpsertMetric(ctx context.Context, update stats.MetricUpdate) error
}

// HandlerOption configures optional behaviour for the MetricHandler.
type HandlerOption func(*MetricHandler)

// WithRefreshNotifier tells dashboards to refresh after each stored update.
func WithRefreshNotifier(n notify.Notifier) HandlerOption {
	return func(h *MetricHandler) {
		h.notifier = n
	}
}

// MetricHandler writes metric update events into the stats store.
type MetricHandler struct {
	store    MetricStore
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewMetricHandler constructs a handler backed by store.
func NewMetricHandler(store MetricStore, logger zerolog.Logger, opts ...HandlerOption) *MetricHandler {
	h := &MetricHandler{store: store, notifier: notify.Noop{}, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle upserts one metric. Other event types are acknowledged and ignored.
func (h *MetricHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != EventMetricUpdated {
		h.logger.Debug().Str("event_type", msg.EventType).Str("topic", msg.Topic).Msg("ignoring event")
		return nil
	}

	var update stats.MetricUpdate
	dec := json.NewDecoder(bytes.NewReader(msg.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&update); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := update.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := h.store.UpsertMetric(ctx, update); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", update.Title, update.Timeframe, err)
	}
	recordMetricUpdate(update)
	h.logger.Debug().Str("title", update.Title).Str("timeframe", string(update.Timeframe)).Msg("metric updated")

	// The row is stored; a dashboard that misses the ping catches up on its next scheduled refresh.
	if err := h.notifier.NotifyRefresh(ctx, update.Title); err != nil {
		h.logger.Warn().Err(err).Str("title", update.Title).Msg("dashboard refresh notification failed")
	}
	return nil
}
