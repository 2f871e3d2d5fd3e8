package ingester

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/streambridge/chafka/internal/chvalue"
	"github.com/streambridge/chafka/internal/config"
	"github.com/streambridge/chafka/internal/kafkaconsumer"
	"github.com/streambridge/chafka/internal/offsettracker"
)

// fakeConsumer replays a fixed slice of messages, then returns
// ErrTimeout at once on every later Recv, without waiting out timeout.
type fakeConsumer struct {
	mu        sync.Mutex
	messages  []kafkaconsumer.Message
	commits   [][]kafka.TopicPartition
	commitErr error
}

func (f *fakeConsumer) Recv(timeout time.Duration) (kafkaconsumer.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return kafkaconsumer.Message{}, kafkaconsumer.ErrTimeout
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return msg, nil
}

func (f *fakeConsumer) Commit(partitions []kafka.TopicPartition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, partitions)
	return f.commitErr
}

// fakeSink records every batch it is asked to insert, optionally
// failing the first N attempts to exercise the retry-then-commit path.
type fakeSink struct {
	mu        sync.Mutex
	failFirst int
	attempts  int
	inserted  [][]chvalue.Row
}

func (f *fakeSink) Insert(ctx context.Context, table string, rows []chvalue.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failFirst {
		return errors.New("simulated insert failure")
	}
	batch := make([]chvalue.Row, len(rows))
	copy(batch, rows)
	f.inserted = append(f.inserted, batch)
	return nil
}

type stubDecoder struct {
	reject bool
}

func (s stubDecoder) Name() string { return "stub" }

func (s stubDecoder) Decode(message []byte) (chvalue.Row, error) {
	if s.reject {
		return nil, errors.New("rejected")
	}
	return chvalue.Row{{Name: "v", Value: chvalue.NewStringFrom(string(message))}}, nil
}

func testConfig() config.Ingester {
	return config.Ingester{
		ClickhouseTable:     "events",
		BatchSize:           2,
		BatchTimeoutSeconds: 1,
	}
}

func messageFrom(topic string, partition int32, offset int64, value string) kafkaconsumer.Message {
	return kafkaconsumer.Message{Topic: topic, Partition: partition, Offset: kafka.Offset(offset), Value: []byte(value)}
}

func TestRunFlushesFullBatchAndCommits(t *testing.T) {
	consumer := &fakeConsumer{messages: []kafkaconsumer.Message{
		messageFrom("orders", 0, 0, "a"),
		messageFrom("orders", 0, 1, "b"),
	}}
	sink := &fakeSink{}
	g := New("orders", testConfig(), consumer, stubDecoder{}, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := g.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.inserted) != 1 || len(sink.inserted[0]) != 2 {
		t.Fatalf("expected one batch of 2 rows inserted, got %#v", sink.inserted)
	}

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	if len(consumer.commits) != 1 {
		t.Fatalf("expected exactly one commit, got %d", len(consumer.commits))
	}
	if consumer.commits[0][0].Offset != 2 {
		t.Fatalf("expected committed offset 2 (last offset + 1), got %d", consumer.commits[0][0].Offset)
	}
}

func TestRunDropsUndecodableMessagesButAdvancesOffset(t *testing.T) {
	consumer := &fakeConsumer{messages: []kafkaconsumer.Message{
		messageFrom("orders", 0, 0, "bad"),
		messageFrom("orders", 0, 1, "bad"),
	}}
	sink := &fakeSink{}
	g := New("orders", testConfig(), consumer, stubDecoder{reject: true}, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = g.Run(ctx)

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	if len(consumer.commits) != 1 {
		t.Fatalf("expected the window to still commit past the poison pills, got %d commits", len(consumer.commits))
	}
	if consumer.commits[0][0].Offset != 2 {
		t.Fatalf("expected offset to advance past both dropped messages, got %d", consumer.commits[0][0].Offset)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.inserted) != 0 {
		t.Fatalf("expected no rows inserted since every message was a poison pill, got %#v", sink.inserted)
	}
}

func TestFlushRetriesInsertBeforeCommitting(t *testing.T) {
	original := chBackoff
	chBackoff = time.Millisecond
	defer func() { chBackoff = original }()

	consumer := &fakeConsumer{}
	sink := &fakeSink{failFirst: 2}
	g := New("orders", testConfig(), consumer, stubDecoder{}, sink)

	tracker := offsettracker.New()
	tracker.Update("orders", 0, kafka.Offset(4))
	batch := []chvalue.Row{{{Name: "v", Value: chvalue.NewStringFrom("x")}}}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	remaining := g.flush(ctx, tracker, batch)

	if len(remaining) != 0 {
		t.Fatalf("expected the batch to be cleared after a successful insert, got %d rows left", len(remaining))
	}
	if sink.attempts != 3 {
		t.Fatalf("expected 2 failed attempts then a success, got %d attempts", sink.attempts)
	}
	if len(consumer.commits) != 1 {
		t.Fatalf("expected exactly one commit after the insert finally succeeded, got %d", len(consumer.commits))
	}
}
