package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/timestats/internal/stats"
)

type stubStore struct {
	updates []stats.MetricUpdate
	err     error
}

func (s *stubStore) UpsertMetric(_ context.Context, update stats.MetricUpdate) error {
	if s.err != nil {
		return s.err
	}
	s.updates = append(s.updates, update)
	return nil
}

func TestMetricHandlerUpserts(t *testing.T) {
	store := &stubStore{}
	h := NewMetricHandler(store, zerolog.Nop())

	err := h.Handle(context.Background(), Message{
		EventType: EventMetricUpdated,
		Payload:   []byte(`{"title":"Self Care","timeframe":"Monthly","current":7,"previous":11,"position":5}`),
	})
	require.NoError(t, err)
	require.Len(t, store.updates, 1)

	got := store.updates[0]
	require.Equal(t, "Self Care", got.Title)
	require.Equal(t, stats.Monthly, got.Timeframe)
	require.Equal(t, 7.0, got.Current)
	require.Equal(t, 11.0, got.Previous)
	require.NotNil(t, got.Position)
	require.Equal(t, 5, *got.Position)
}

func TestMetricHandlerRejectsInvalidPayloads(t *testing.T) {
	store := &stubStore{}
	h := NewMetricHandler(store, zerolog.Nop())

	for _, payload := range []string{
		`{"title":"Work","timeframe":"yearly","current":1,"previous":1}`,
		`{"title":"","timeframe":"daily","current":1,"previous":1}`,
		`{"title":"Work","timeframe":"daily","current":-1,"previous":1}`,
		`{"title":"Work","timeframe":"daily","current":1,"previous":1,"extra":true}`,
		`[]`,
	} {
		err := h.Handle(context.Background(), Message{EventType: EventMetricUpdated, Payload: []byte(payload)})
		require.ErrorIs(t, err, ErrMalformedPayload, payload)
	}
	require.Empty(t, store.updates)
}

func TestMetricHandlerIgnoresOtherEvents(t *testing.T) {
	store := &stubStore{}
	h := NewMetricHandler(store, zerolog.Nop())

	require.NoError(t, h.Handle(context.Background(), Message{EventType: "timestats.other", Payload: []byte(`{}`)}))
	require.Empty(t, store.updates)
}

func TestMetricHandlerStoreFailureIsRetryable(t *testing.T) {
	h := NewMetricHandler(&stubStore{err: errors.New("db down")}, zerolog.Nop())

	err := h.Handle(context.Background(), Message{
		EventType: EventMetricUpdated,
		Payload:   []byte(`{"title":"Work","timeframe":"daily","current":1,"previous":1}`),
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMalformedPayload)
}

type stubNotifier struct {
	titles []string
	err    error
}

func (n *stubNotifier) NotifyRefresh(_ context.Context, title string) error {
	n.titles = append(n.titles, title)
	return n.err
}

func TestMetricHandlerNotifiesAfterUpsert(t *testing.T) {
	notifier := &stubNotifier{err: errors.New("dashboard offline")}
	store := &stubStore{}
	h := NewMetricHandler(store, zerolog.Nop(), WithRefreshNotifier(notifier))

	err := h.Handle(context.Background(), Message{
		EventType: EventMetricUpdated,
		Payload:   []byte(`{"title":"Play","timeframe":"weekly","current":10,"previous":8}`),
	})
	require.NoError(t, err)
	require.Len(t, store.updates, 1)
	require.Equal(t, []string{"Play"}, notifier.titles)
}

func TestMetricHandlerSkipsNotifyWhenStoreFails(t *testing.T) {
	notifier := &stubNotifier{}
	h := NewMetricHandler(&stubStore{err: errors.New("db down")}, zerolog.Nop(), WithRefreshNotifier(notifier))

	err := h.Handle(context.Background(), Message{
		EventType: EventMetricUpdated,
		Payload:   []byte(`{"title":"Play","timeframe":"weekly","current":10,"previous":8}`),
	})
	require.Error(t, err)
	require.Empty(t, notifier.titles)
}

func TestMetricHandlerRecordsTimeframeMetrics(t *testing.T) {
	h := NewMetricHandler(&stubStore{}, zerolog.Nop())
	before := testutil.ToFloat64(metricUpdateCounter.WithLabelValues("monthly"))

	err := h.Handle(context.Background(), Message{
		EventType: EventMetricUpdated,
		Payload:   []byte(`{"title":"Self  Care","timeframe":"monthly","current":7,"previous":11}`),
	})
	require.NoError(t, err)
	require.Equal(t, before+1, testutil.ToFloat64(metricUpdateCounter.WithLabelValues("monthly")))
	require.Equal(t, 7.0, testutil.ToFloat64(metricHoursGauge.WithLabelValues("self-care", "monthly")))
}
