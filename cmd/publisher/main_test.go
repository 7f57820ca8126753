package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"example.com/timestats/internal/config"
	"example.com/timestats/internal/stats"
)

type recordingPublisher struct {
	topics  []string
	updates []stats.MetricUpdate
	failAt  int
}

func (p *recordingPublisher) PublishMetric(_ context.Context, topic string, update stats.MetricUpdate) error {
	if p.failAt > 0 && len(p.updates)+1 == p.failAt {
		return errors.New("broker down")
	}
	p.topics = append(p.topics, topic)
	p.updates = append(p.updates, update)
	return nil
}

const twoRecords = `[
  {"title":"Work","timeframes":{"daily":{"current":5,"previous":7},"weekly":{"current":32,"previous":36}}},
  {"title":"Play","timeframes":{"monthly":{"current":23,"previous":29}}}
]`

func TestSeedPublishesEveryMetric(t *testing.T) {
	pub := &recordingPublisher{}
	n, err := seed(context.Background(), pub, "timestats.metrics", strings.NewReader(twoRecords))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 3 || len(pub.updates) != 3 {
		t.Fatalf("expected 3 updates, got n=%d len=%d", n, len(pub.updates))
	}
	if pub.topics[0] != "timestats.metrics" {
		t.Errorf("unexpected topic %q", pub.topics[0])
	}
	if got := pub.updates[2]; got.Title != "Play" || *got.Position != 1 {
		t.Errorf("unexpected last update: %+v", got)
	}
}

func TestSeedStopsOnPublishError(t *testing.T) {
	pub := &recordingPublisher{failAt: 2}
	n, err := seed(context.Background(), pub, "t", strings.NewReader(twoRecords))
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 {
		t.Errorf("expected 1 published before failure, got %d", n)
	}
}

func TestSeedRejectsInvalidSnapshot(t *testing.T) {
	_, err := seed(context.Background(), &recordingPublisher{}, "t", strings.NewReader(`{"title":"Work"}`))
	var parseErr *stats.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestResolveTopic(t *testing.T) {
	t.Cleanup(func() { topicFlag = "" })

	topic, err := resolveTopic(config.Config{ConsumerTopics: []string{"first", "second"}})
	if err != nil || topic != "first" {
		t.Fatalf("expected first topic, got %q (%v)", topic, err)
	}

	if _, err := resolveTopic(config.Config{}); err == nil {
		t.Fatal("expected error with no topics")
	}

	topicFlag = "override"
	topic, err = resolveTopic(config.Config{ConsumerTopics: []string{"first"}})
	if err != nil || topic != "override" {
		t.Fatalf("expected override, got %q (%v)", topic, err)
	}
}
