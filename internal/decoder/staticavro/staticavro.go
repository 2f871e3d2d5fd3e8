// Package staticavro implements the fixed-schema reference Avro
// decoders: a hand-coded counterpart to the general-purpose AvroDecoder
// that skips schema resolution and analysis entirely, decoding
// directly into a hardcoded Go struct. Useful as a known-good fixture
// when developing against a fixed topic shape.
//
// Two registered names share one implementation, differing only in
// the name a decoder.Factory looks them up by.
package staticavro

import (
	"fmt"

	goavro "github.com/linkedin/goavro/v2"

	"github.com/streambridge/chafka/internal/chvalue"
)

// Name is the identifier this package's default constructor registers
// under. NewTestAvro registers the same decoder under "test-avro".
const Name = "static-avro-example"

const fixedSchema = `
{
    "type": "record",
    "name": "test",
    "fields": [
        {"name": "a", "type": "long", "default": 42},
        {"name": "b", "type": "string"},
        {"name": "c", "type": {"type": "array", "items": "int"}}
    ]
}
`

type entry struct {
	A int64   `json:"a"`
	B string  `json:"b"`
	C []int32 `json:"c"`
}

// Decoder reads a message matching the hardcoded {a: long, b: string,
// c: array<int>} schema and emits [("a", a), ("b", b), ("c", c)].
type Decoder struct {
	name  string
	codec *goavro.Codec
}

// New builds the decoder registered as "static-avro-example". topic
// and custom are ignored — the schema is fixed.
func New(_ string, _ map[string]any) (*Decoder, error) {
	return newNamed(Name)
}

// NewTestAvro builds the same decoder registered under the name
// "test-avro", an alternate identifier for this fixture.
func NewTestAvro(_ string, _ map[string]any) (*Decoder, error) {
	return newNamed("test-avro")
}

func newNamed(name string) (*Decoder, error) {
	codec, err := goavro.NewCodec(fixedSchema)
	if err != nil {
		return nil, fmt.Errorf("parsing static avro schema: %w", err)
	}
	return &Decoder{name: name, codec: codec}, nil
}

func (d *Decoder) Name() string { return d.name }

func (d *Decoder) Decode(message []byte) (chvalue.Row, error) {
	if len(message) < 5 {
		return nil, fmt.Errorf("avro message shorter than the confluent wire prefix")
	}
	native, _, err := d.codec.NativeFromBinary(message[5:])
	if err != nil {
		return nil, fmt.Errorf("decoding avro binary: %w", err)
	}
	record, ok := native.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("avro message must be a record")
	}

	e, err := toEntry(record)
	if err != nil {
		return nil, err
	}

	items := make([]chvalue.Value, len(e.C))
	for i, v := range e.C {
		items[i] = chvalue.NewInt32(v)
	}
	return chvalue.Row{
		{Name: "a", Value: chvalue.NewInt64(e.A)},
		{Name: "b", Value: chvalue.NewStringFrom(e.B)},
		{Name: "c", Value: chvalue.NewArray(chvalue.Int32, items)},
	}, nil
}

func toEntry(record map[string]interface{}) (entry, error) {
	a, ok := record["a"].(int64)
	if !ok {
		return entry{}, fmt.Errorf("field a: expected long, got %T", record["a"])
	}
	b, ok := record["b"].(string)
	if !ok {
		return entry{}, fmt.Errorf("field b: expected string, got %T", record["b"])
	}
	rawC, ok := record["c"].([]interface{})
	if !ok {
		return entry{}, fmt.Errorf("field c: expected array, got %T", record["c"])
	}
	c := make([]int32, len(rawC))
	for i, v := range rawC {
		n, ok := v.(int32)
		if !ok {
			return entry{}, fmt.Errorf("field c[%d]: expected int, got %T", i, v)
		}
		c[i] = n
	}
	return entry{A: a, B: b, C: c}, nil
}
