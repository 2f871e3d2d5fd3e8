package offsettracker

import (
	"testing"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func TestUpdateTracksNextOffset(t *testing.T) {
	tr := New()
	tr.Update("orders", 0, kafka.Offset(10))

	partitions := tr.TopicPartitions()
	if len(partitions) != 1 {
		t.Fatalf("expected 1 partition, got %d", len(partitions))
	}
	if partitions[0].Offset != 11 {
		t.Fatalf("expected next offset 11, got %d", partitions[0].Offset)
	}
}

func TestUpdateOnlyMovesForward(t *testing.T) {
	tr := New()
	tr.Update("orders", 0, kafka.Offset(10))
	tr.Update("orders", 0, kafka.Offset(3))

	partitions := tr.TopicPartitions()
	if partitions[0].Offset != 11 {
		t.Fatalf("expected offset to stay at 11 after a lower update, got %d", partitions[0].Offset)
	}
}

func TestEmpty(t *testing.T) {
	tr := New()
	if !tr.Empty() {
		t.Fatalf("expected a fresh tracker to be empty")
	}
	tr.Update("orders", 0, kafka.Offset(0))
	if tr.Empty() {
		t.Fatalf("expected tracker to be non-empty after an update")
	}
}

func TestTopicPartitionsTracksMultiplePartitions(t *testing.T) {
	tr := New()
	tr.Update("orders", 0, kafka.Offset(1))
	tr.Update("orders", 1, kafka.Offset(5))
	tr.Update("payments", 0, kafka.Offset(2))

	partitions := tr.TopicPartitions()
	if len(partitions) != 3 {
		t.Fatalf("expected 3 distinct (topic, partition) entries, got %d", len(partitions))
	}
}
