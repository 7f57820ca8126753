package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func metricMessage(offset int64, value string) kafka.Message {
	return kafka.Message{
		Topic:     "timestats.metrics",
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Key:       []byte("Work"),
		Value:     []byte(value),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventMetricUpdated)},
		},
	}
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload := `{"title":"Work","timeframe":"weekly","current":32,"previous":36}`
	reader := &stubReader{
		messages: []kafka.Message{metricMessage(10, payload)},
		after:    contextCanceled,
	}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(zerolog.New(testWriter{t})))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, EventMetricUpdated, handler.last.EventType)
	require.Equal(t, "Work", handler.last.Key)
	require.Equal(t, int64(10), handler.last.Offset)
	require.JSONEq(t, payload, string(handler.last.Payload))
}

func TestProcessorRetriesSameMessageUntilHandled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &stubReader{
		messages: []kafka.Message{
			metricMessage(20, `{"title":"Play","timeframe":"daily","current":1,"previous":2}`),
			metricMessage(21, `{"title":"Work","timeframe":"daily","current":5,"previous":7}`),
		},
		after: contextCanceled,
	}
	handler := &stubHandler{failures: 2, err: errors.New("db down")}

	processor := NewProcessor(reader, handler, WithLogger(zerolog.New(testWriter{t})), WithRetryBackoff(time.Millisecond))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, []int64{20, 20, 20, 21}, handler.offsets)
	require.Equal(t, []int64{20, 21}, reader.committed)
}

func TestProcessorSkipsCommitWhileHandlerFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	reader := &stubReader{
		messages: []kafka.Message{
			metricMessage(30, `{"title":"Play","timeframe":"daily","current":1,"previous":2}`),
			metricMessage(31, `{"title":"Work","timeframe":"daily","current":5,"previous":7}`),
		},
	}
	handler := &stubHandler{err: errors.New("db down")}

	err := NewProcessor(reader, handler, WithRetryBackoff(time.Millisecond)).Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Greater(t, handler.calls, 1)
	require.Zero(t, reader.commitCalls)
	require.Equal(t, 1, reader.index, "next message must not be fetched")
}

func TestProcessorCommitsMalformedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	noHeader := metricMessage(30, `{}`)
	noHeader.Topic = "timestats.malformed"
	noHeader.Headers = nil
	notJSON := metricMessage(31, `not json`)
	notJSON.Topic = "timestats.malformed"
	rejected := metricMessage(32, `{}`)
	rejected.Topic = "timestats.malformed"

	before := testutil.ToFloat64(decodeErrorCounter.WithLabelValues("timestats.malformed"))

	reader := &stubReader{
		messages: []kafka.Message{noHeader, notJSON, rejected},
		after:    contextCanceled,
	}
	handler := &stubHandler{err: ErrMalformedPayload}

	err := NewProcessor(reader, handler).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 3, reader.commitCalls)
	require.Equal(t, before+3, testutil.ToFloat64(decodeErrorCounter.WithLabelValues("timestats.malformed")))
}

func TestProcessorStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &stubReader{messages: []kafka.Message{metricMessage(1, `{}`)}}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, handler.calls)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
	committed   []int64
	after       func() error
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		if r.after != nil {
			return kafka.Message{}, r.after()
		}
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.commitCalls += len(msgs)
	for _, msg := range msgs {
		r.committed = append(r.committed, msg.Offset)
	}
	return nil
}

func (r *stubReader) Close() error { return nil }

func contextCanceled() error { return context.Canceled }

// stubHandler returns err for the first failures calls, or always when failures is zero.
type stubHandler struct {
	calls    int
	failures int
	err      error
	last     Message
	offsets  []int64
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	h.offsets = append(h.offsets, msg.Offset)
	if h.failures > 0 && h.calls > h.failures {
		return nil
	}
	return h.err
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
