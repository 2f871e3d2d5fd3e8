// Package exampledecoder implements the reference JSON decoder: the
// simplest possible Decoder, used in tests and as a template for
// hand-written decoders that don't need Avro's generality.
package exampledecoder

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/streambridge/chafka/internal/chvalue"
)

const Name = "example"

type entry struct {
	Key   uuid.UUID `json:"key"`
	Value int64     `json:"value"`
}

// Decoder reads `{"key": <uuid>, "value": <int64>}` and emits
// [("id", Uuid(key)), ("v", Int64(value))].
type Decoder struct{}

// New is a decoder.Constructor; it ignores both arguments since the
// example decoder carries no schema and no configuration.
func New(_ string, _ map[string]any) (*Decoder, error) {
	return &Decoder{}, nil
}

func (d *Decoder) Name() string { return Name }

func (d *Decoder) Decode(message []byte) (chvalue.Row, error) {
	var e entry
	if err := json.Unmarshal(message, &e); err != nil {
		return nil, fmt.Errorf("decoding example message: %w", err)
	}
	return chvalue.Row{
		{Name: "id", Value: chvalue.NewUuid(e.Key)},
		{Name: "v", Value: chvalue.NewInt64(e.Value)},
	}, nil
}
