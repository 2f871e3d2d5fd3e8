// Package decoder defines the narrow capability every message decoder
// implements, and a factory for building one by name from an
// ingester's configuration.
package decoder

import (
	"fmt"

	"github.com/streambridge/chafka/internal/chvalue"
)

// Decoder converts raw message bytes into a Row. Implementations are
// stateless after construction and owned exclusively by one ingester;
// they are never shared between goroutines.
type Decoder interface {
	// Name returns the decoder's identifier, used only for diagnostics.
	Name() string
	// Decode converts a single message payload into a Row, or reports
	// why the payload was rejected. A Decode error drops the message
	// (the poison-pill policy) — it never panics for malformed input.
	Decode(message []byte) (chvalue.Row, error)
}

// Constructor builds a Decoder from the opaque `custom` settings table
// of one ingester's configuration. topic is passed alongside because
// Avro schema resolution is keyed by it (Schema Registry subject name).
type Constructor func(topic string, custom map[string]any) (Decoder, error)

// Factory is a registry of named decoder constructors.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory returns an empty Factory; no decoder can be built from it
// until the caller registers one with Register.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	return f
}

// Register adds or replaces the constructor for name. Extending the
// bridge with a new wire format is exactly this one call plus an
// implementation of Decoder.
func (f *Factory) Register(name string, ctor Constructor) {
	f.constructors[name] = ctor
}

// Build instantiates the decoder registered under name.
func (f *Factory) Build(name, topic string, custom map[string]any) (Decoder, error) {
	ctor, ok := f.constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown decoder %s", name)
	}
	return ctor(topic, custom)
}
