// Package consumer applies metric update events from Kafka to the stats store.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// ErrMalformedPayload marks a message that can never be handled and should be committed anyway.
var ErrMalformedPayload = errors.New("malformed payload")

// EventTypeHeader is the Kafka header naming the event carried by a message.
const EventTypeHeader = "event_type"

const (
	fetchBackoff    = time.Second
	maxRetryBackoff = 30 * time.Second
)

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded messages from Kafka.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is the decoded representation of a Kafka record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Key       string
	EventType string
	Payload   json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithRetryBackoff sets the first delay before a failed message is handled again.
// The delay doubles per attempt up to 30s.
func WithRetryBackoff(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.retryBackoff = d
		}
	}
}

// Processor pulls messages from Kafka, decodes them, and dispatches to a Handler.
type Processor struct {
	reader       Reader
	handler      Handler
	logger       zerolog.Logger
	retryBackoff time.Duration
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:       reader,
		handler:      handler,
		logger:       zerolog.Nop(),
		retryBackoff: fetchBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts a blocking loop that processes Kafka messages until the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Warn().Err(err).Msg("fetch error")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(fetchBackoff):
			}
			continue
		}

		event, decodeErr := decodeMessage(msg)
		if decodeErr == nil {
			if handleErr := p.handle(ctx, event); handleErr != nil {
				if !errors.Is(handleErr, ErrMalformedPayload) {
					return handleErr
				}
				decodeErr = handleErr
			}
		}

		if decodeErr != nil {
			p.logger.Warn().Err(decodeErr).Str("topic", msg.Topic).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("decode error")
			recordDecodeError(msg.Topic)
			// Commit malformed messages to avoid poison-pill loops.
			if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
				p.logger.Error().Err(commitErr).Msg("commit error after decode failure")
			}
			continue
		}

		if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
			p.logger.Error().Err(commitErr).Msg("commit error")
		} else {
			recordProcessed(event)
		}
	}
}

// handle retries event until it succeeds, is rejected as malformed, or ctx ends.
// The offset is never committed past a message that failed transiently.
func (p *Processor) handle(ctx context.Context, event Message) error {
	backoff := p.retryBackoff
	for {
		err := p.handler.Handle(ctx, event)
		if err == nil || errors.Is(err, ErrMalformedPayload) {
			return err
		}
		recordHandlerError(event)
		p.logger.Error().Err(err).Str("topic", event.Topic).Str("event_type", event.EventType).
			Int64("offset", event.Offset).Dur("retry_in", backoff).Msg("handler error, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

func decodeMessage(msg kafka.Message) (Message, error) {
	eventType, ok := headerValue(msg, EventTypeHeader)
	if !ok || len(eventType) == 0 {
		return Message{}, errors.New("missing event_type header")
	}
	if len(msg.Value) == 0 || !json.Valid(msg.Value) {
		return Message{}, fmt.Errorf("%w: value is not JSON", ErrMalformedPayload)
	}

	return Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Key:       string(msg.Key),
		EventType: string(eventType),
		Payload:   json.RawMessage(append([]byte(nil), msg.Value...)),
	}, nil
}

func headerValue(msg kafka.Message, key string) ([]byte, bool) {
	for _, header := range msg.Headers {
		if header.Key == key {
			return header.Value, true
		}
	}
	return nil, false
}
