// Package kafkaconsumer wraps a confluent-kafka-go consumer with the
// narrow recv/commit surface an ingester needs, with offsets committed
// explicitly rather than the library's auto-commit timer.
//
// Each ingester gets its own consumer, bootstrap servers, group, and
// topic list. Transport security (SASL/TLS) is applied directly as
// librdkafka ConfigMap string entries, since librdkafka accepts those
// settings natively without any separate tls.Config/dialer construction
// on the Go side.
package kafkaconsumer

import (
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/streambridge/chafka/internal/config"
)

// ErrTimeout is returned by Recv when no message arrived within the
// requested timeout — the window's normal "nothing more to batch"
// signal, not a failure.
var ErrTimeout = errors.New("kafkaconsumer: poll timeout")

// Message is the subset of a consumed record an ingester acts on.
type Message struct {
	Topic     string
	Partition int32
	Offset    kafka.Offset
	Value     []byte
}

// Consumer subscribes to a fixed topic set under one consumer group
// and commits offsets only when told to — auto-commit is disabled so
// the ingester's flush/commit protocol is the sole offset authority.
type Consumer struct {
	raw *kafka.Consumer
}

// New constructs a Consumer and subscribes it to topics. Construction
// failure is fatal to the calling ingester task, since there is no way
// to run an ingester without a working consumer.
func New(bootstrapServers, consumerGroup string, topics []string, sec config.Security) (*Consumer, error) {
	cfg := &kafka.ConfigMap{
		"bootstrap.servers":  bootstrapServers,
		"group.id":           consumerGroup,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false",
		"session.timeout.ms": "6000",
	}
	applySecurity(cfg, sec)

	raw, err := kafka.NewConsumer(cfg)
	if err != nil {
		return nil, fmt.Errorf("constructing kafka consumer: %w", err)
	}
	if err := raw.SubscribeTopics(topics, nil); err != nil {
		raw.Close()
		return nil, fmt.Errorf("subscribing to topics %v: %w", topics, err)
	}
	return &Consumer{raw: raw}, nil
}

// applySecurity sets librdkafka's own SASL/TLS properties from sec.
// An empty Security leaves cfg untouched (plaintext, as before).
func applySecurity(cfg *kafka.ConfigMap, sec config.Security) {
	if sec.Protocol != "" {
		cfg.SetKey("security.protocol", sec.Protocol)
	}
	if sec.SaslMechanism != "" {
		cfg.SetKey("sasl.mechanisms", sec.SaslMechanism)
	}
	if sec.SaslUsername != "" {
		cfg.SetKey("sasl.username", sec.SaslUsername)
	}
	if sec.SaslPassword != "" {
		cfg.SetKey("sasl.password", sec.SaslPassword)
	}
	if sec.TLSCACert != "" {
		cfg.SetKey("ssl.ca.pem", sec.TLSCACert)
	}
	if sec.TLSClientCert != "" {
		cfg.SetKey("ssl.certificate.pem", sec.TLSClientCert)
	}
	if sec.TLSClientKey != "" {
		cfg.SetKey("ssl.key.pem", sec.TLSClientKey)
	}
	if sec.TLSSkipVerify {
		cfg.SetKey("enable.ssl.certificate.verification", false)
	}
}

// Recv polls for the next message, waiting up to timeout. It returns
// ErrTimeout if nothing arrived, and the underlying kafka.Error
// (wrapped) for transport-level failures — both are window-ending,
// not fatal, conditions for the caller.
func (c *Consumer) Recv(timeout time.Duration) (Message, error) {
	ev := c.raw.Poll(int(timeout.Milliseconds()))
	switch e := ev.(type) {
	case nil:
		return Message{}, ErrTimeout
	case *kafka.Message:
		return Message{
			Topic:     *e.TopicPartition.Topic,
			Partition: e.TopicPartition.Partition,
			Offset:    e.TopicPartition.Offset,
			Value:     e.Value,
		}, nil
	case kafka.Error:
		return Message{}, fmt.Errorf("kafka transport error: %w", e)
	default:
		return Message{}, ErrTimeout
	}
}

// Commit synchronously commits the given topic-partition offsets.
func (c *Consumer) Commit(partitions []kafka.TopicPartition) error {
	if len(partitions) == 0 {
		return nil
	}
	_, err := c.raw.CommitOffsets(partitions)
	if err != nil {
		return fmt.Errorf("committing offsets: %w", err)
	}
	return nil
}

// Close releases the underlying consumer.
func (c *Consumer) Close() error {
	return c.raw.Close()
}
