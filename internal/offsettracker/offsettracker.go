// Package offsettracker accumulates the highest next-offset seen per
// partition during one ingester window, for a single synchronous
// commit at the end of that window.
package offsettracker

import "github.com/confluentinc/confluent-kafka-go/kafka"

type partitionKey struct {
	topic     string
	partition int32
}

// Tracker is a fresh, per-window map from (topic, partition) to the
// next offset to resume consumption from after a restart. It is built
// from scratch at the start of every window — it never carries state
// across windows.
type Tracker struct {
	next map[partitionKey]kafka.Offset
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{next: make(map[partitionKey]kafka.Offset)}
}

// Update records that a message at (topic, partition, offset) was
// received. The stored next-offset is offset+1, the Kafka commit
// convention for "resume after this message" — and only ever moves
// forward: a lower value for a key already seen this window is
// ignored.
func (t *Tracker) Update(topic string, partition int32, offset kafka.Offset) {
	key := partitionKey{topic: topic, partition: partition}
	next := offset + 1
	if existing, ok := t.next[key]; !ok || next > existing {
		t.next[key] = next
	}
}

// Empty reports whether any partition was updated this window.
func (t *Tracker) Empty() bool {
	return len(t.next) == 0
}

// TopicPartitions converts the tracked offsets into the broker commit
// argument confluent-kafka-go expects.
func (t *Tracker) TopicPartitions() []kafka.TopicPartition {
	out := make([]kafka.TopicPartition, 0, len(t.next))
	for key, offset := range t.next {
		topic := key.topic
		out = append(out, kafka.TopicPartition{
			Topic:     &topic,
			Partition: key.partition,
			Offset:    offset,
		})
	}
	return out
}
