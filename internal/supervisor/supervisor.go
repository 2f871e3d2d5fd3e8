// Package supervisor runs one goroutine per configured ingester and
// waits for all of them. A construction failure (bad decoder
// settings, unreachable broker, unreachable ClickHouse) is fatal only
// to that one ingester's goroutine — it panics with the ingester's
// name so the failure is attributable, but every other ingester keeps
// running. There is no restart policy: a misconfigured ingester stays
// down until the operator restarts the process.
//
// Every ingester is an independent task with no shared state, so one
// ingester's failure never affects another.
package supervisor

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/streambridge/chafka/internal/config"
	"github.com/streambridge/chafka/internal/decoder"
	"github.com/streambridge/chafka/internal/ingester"
)

// Builder constructs the consumer, decoder, and sink for one named
// ingester from its configuration. Splitting construction out of
// Supervisor keeps this package free of any direct dependency on how
// those pieces are wired together — cmd/chafka supplies it.
type Builder func(name string, cfg config.Ingester) (ingester.Consumer, decoder.Decoder, ingester.Sink, error)

// Run builds and starts one Ingester per entry in cfgs, each on its
// own goroutine, and blocks until every goroutine has returned. A
// running ingester returns once ctx is cancelled; one whose
// construction failed returns at once.
func Run(ctx context.Context, cfgs map[string]config.Ingester, build Builder) {
	var wg sync.WaitGroup
	for name, cfg := range cfgs {
		wg.Add(1)
		go func(name string, cfg config.Ingester) {
			defer wg.Done()
			runOne(ctx, name, cfg, build)
		}(name, cfg)
	}
	wg.Wait()
}

// runOne recovers a panic raised during construction, logs it, and
// returns — isolating the failure to this ingester without bringing
// down the others or the process.
func runOne(ctx context.Context, name string, cfg config.Ingester, build Builder) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("ingester", name).Interface("panic", r).Msg("ingester task failed")
		}
	}()

	consumer, dec, sink, err := build(name, cfg)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	defer consumer.Close()
	defer sink.Close()

	g := ingester.New(name, cfg, consumer, dec, sink)
	if err := g.Run(ctx); err != nil {
		log.Info().Str("ingester", name).Err(err).Msg("ingester stopped")
	}
}
