// Package ingester implements the core batch-and-commit state machine:
// accumulate decoded rows up to a size or time bound, then retry the
// ClickHouse insert until it succeeds before committing the Kafka
// offsets that produced the batch.
//
// Each ingester runs on its own goroutine driven by a context.Context,
// logging through zerolog.
package ingester

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/streambridge/chafka/internal/chvalue"
	"github.com/streambridge/chafka/internal/config"
	"github.com/streambridge/chafka/internal/decoder"
	"github.com/streambridge/chafka/internal/kafkaconsumer"
	"github.com/streambridge/chafka/internal/offsettracker"
)

// chBackoff is the fixed retry delay between failed ClickHouse insert
// attempts. A var, not a const, so tests can shrink it instead of
// sleeping for real.
var chBackoff = time.Second

// telemetryEvery is the processed-row interval at which throughput is
// logged and the counter resets.
const telemetryEvery = 100_000

// Consumer is the subset of *kafkaconsumer.Consumer an Ingester needs.
// Narrowed to an interface so the window loop can be exercised against
// a fake in tests without a broker.
type Consumer interface {
	Recv(timeout time.Duration) (kafkaconsumer.Message, error)
	Commit(partitions []kafka.TopicPartition) error
	Close() error
}

// Sink is the subset of *chsink.Sink an Ingester needs.
type Sink interface {
	Insert(ctx context.Context, table string, rows []chvalue.Row) error
	Close() error
}

// Ingester owns one consumer, one decoder, and one sink for the
// lifetime of the process. Nothing about it is shared with any other
// ingester — each runs on its own goroutine with its own state.
type Ingester struct {
	name     string
	table    string
	decoder  decoder.Decoder
	consumer Consumer
	sink     Sink

	batchSize    int
	batchTimeout time.Duration

	logger zerolog.Logger
}

// New builds an Ingester. The consumer passed in must already be
// subscribed to the configured topic.
func New(name string, cfg config.Ingester, consumer Consumer, dec decoder.Decoder, sink Sink) *Ingester {
	return &Ingester{
		name:         name,
		table:        cfg.ClickhouseTable,
		decoder:      dec,
		consumer:     consumer,
		sink:         sink,
		batchSize:    cfg.BatchSize,
		batchTimeout: cfg.BatchTimeout(),
		logger:       log.With().Str("ingester", name).Logger(),
	}
}

// Run executes the window loop forever, or until ctx is cancelled.
func (g *Ingester) Run(ctx context.Context) error {
	batch := make([]chvalue.Row, 0, g.batchSize)

	var telemetryRows int
	telemetryStart := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tracker := offsettracker.New()
		for len(batch) < g.batchSize {
			msg, err := g.consumer.Recv(g.batchTimeout)
			if err != nil {
				if errors.Is(err, kafkaconsumer.ErrTimeout) {
					break
				}
				g.logger.Error().Err(err).Msg("error receiving message")
				break
			}

			tracker.Update(msg.Topic, msg.Partition, msg.Offset)

			row, err := g.decoder.Decode(msg.Value)
			if err != nil {
				// Poison-pill policy: drop the message, but its offset
				// was already recorded above, so it will not be
				// redelivered once this window commits.
				g.logger.Warn().Err(err).Str("topic", msg.Topic).Int32("partition", msg.Partition).Msg("failed to decode message")
				continue
			}
			batch = append(batch, row)
		}

		if tracker.Empty() && len(batch) == 0 {
			continue
		}

		rowsThisWindow := len(batch)
		batch = g.flush(ctx, tracker, batch)

		telemetryRows += rowsThisWindow
		if telemetryRows >= telemetryEvery {
			elapsed := time.Since(telemetryStart)
			rate := float64(telemetryRows) / elapsed.Seconds()
			g.logger.Info().
				Int("rows", telemetryRows).
				Dur("elapsed", elapsed).
				Float64("rows_per_sec", rate).
				Msg("throughput")
			telemetryRows = 0
			telemetryStart = time.Now()
		}
	}
}

// flush is the commit protocol: retry the insert forever (with a
// fixed backoff) before committing offsets synchronously. The batch
// is only cleared on a successful insert — a failed attempt leaves it
// untouched so the retry resends the exact same rows.
func (g *Ingester) flush(ctx context.Context, tracker *offsettracker.Tracker, batch []chvalue.Row) []chvalue.Row {
	for {
		if err := g.insertBatch(ctx, batch); err != nil {
			g.logger.Error().Err(err).Int("pending_rows", len(batch)).Msg("inserting batch")
			select {
			case <-time.After(chBackoff):
			case <-ctx.Done():
				return batch
			}
			continue
		}

		if err := g.consumer.Commit(tracker.TopicPartitions()); err != nil {
			// Deliberately not retried: the next window's batch will
			// cover these offsets again under at-least-once semantics.
			g.logger.Error().Err(err).Msg("failed to commit offsets")
		}
		return batch[:0]
	}
}

func (g *Ingester) insertBatch(ctx context.Context, batch []chvalue.Row) error {
	if len(batch) == 0 {
		return nil
	}
	return g.sink.Insert(ctx, g.table, batch)
}
