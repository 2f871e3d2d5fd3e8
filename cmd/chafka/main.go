// Command chafka runs the streaming bridge: one supervised ingester
// per entry in the configured TOML file, each consuming one Kafka
// topic and inserting decoded rows into ClickHouse.
//
// Startup parses flags, loads configuration, builds dependencies, and
// runs until signaled. A configuration failure exits non-zero; an
// ingester whose construction fails is logged and stops on its own,
// and does not change the exit code. The CLI is built on urfave/cli/v2,
// with zerolog handling startup/shutdown logging.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/streambridge/chafka/internal/chsink"
	"github.com/streambridge/chafka/internal/config"
	"github.com/streambridge/chafka/internal/decoder"
	"github.com/streambridge/chafka/internal/decoder/avro"
	"github.com/streambridge/chafka/internal/decoder/exampledecoder"
	"github.com/streambridge/chafka/internal/decoder/staticavro"
	"github.com/streambridge/chafka/internal/ingester"
	"github.com/streambridge/chafka/internal/kafkaconsumer"
	"github.com/streambridge/chafka/internal/supervisor"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	app := &cli.App{
		Name:  "chafka",
		Usage: "bridge Kafka-compatible topics into ClickHouse-compatible tables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "path to the TOML configuration file",
				Required: true,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("chafka exited with an error")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if len(settings.Ingesters) == 0 {
		return fmt.Errorf("configuration defines no ingesters")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := newFactory()

	log.Info().Int("ingesters", len(settings.Ingesters)).Msg("starting chafka")
	supervisor.Run(ctx, settings.Ingesters, func(name string, cfg config.Ingester) (ingester.Consumer, decoder.Decoder, ingester.Sink, error) {
		return buildIngester(ctx, name, cfg, factory)
	})
	log.Info().Msg("all ingesters stopped")
	return nil
}

// newFactory registers every built-in decoder. Adding a new wire
// format is exactly one more Register call plus that decoder's own
// package.
func newFactory() *decoder.Factory {
	f := decoder.NewFactory()
	f.Register(exampledecoder.Name, func(topic string, custom map[string]any) (decoder.Decoder, error) {
		return exampledecoder.New(topic, custom)
	})
	f.Register(avro.Name, func(topic string, custom map[string]any) (decoder.Decoder, error) {
		return avro.New(topic, custom)
	})
	f.Register(staticavro.Name, func(topic string, custom map[string]any) (decoder.Decoder, error) {
		return staticavro.New(topic, custom)
	})
	f.Register("test-avro", func(topic string, custom map[string]any) (decoder.Decoder, error) {
		return staticavro.NewTestAvro(topic, custom)
	})
	return f
}

// buildIngester constructs one ingester's consumer, decoder, and sink
// from its configuration. Any error here is fatal to this ingester
// alone — the supervisor turns it into a per-ingester panic.
func buildIngester(ctx context.Context, name string, cfg config.Ingester, factory *decoder.Factory) (ingester.Consumer, decoder.Decoder, ingester.Sink, error) {
	if cfg.Decoder == "" {
		return nil, nil, nil, fmt.Errorf("ingester %s: decoder is required", name)
	}
	dec, err := factory.Build(cfg.Decoder, cfg.Topic, cfg.Custom)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ingester %s: %w", name, err)
	}

	consumer, err := kafkaconsumer.New(cfg.KafkaBroker, cfg.ConsumerGroup, []string{cfg.Topic}, cfg.Security)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ingester %s: %w", name, err)
	}

	sink, err := chsink.Open(ctx, cfg.ClickhouseURL)
	if err != nil {
		consumer.Close()
		return nil, nil, nil, fmt.Errorf("ingester %s: %w", name, err)
	}

	return consumer, dec, sink, nil
}
