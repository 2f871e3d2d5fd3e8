package staticavro

import (
	"testing"

	goavro "github.com/linkedin/goavro/v2"
)

func encodeFixture(t *testing.T, a int64, b string, c []int32) []byte {
	t.Helper()
	codec, err := goavro.NewCodec(fixedSchema)
	if err != nil {
		t.Fatalf("building fixture codec: %v", err)
	}
	items := make([]interface{}, len(c))
	for i, v := range c {
		items[i] = v
	}
	payload, err := codec.BinaryFromNative(nil, map[string]interface{}{
		"a": a,
		"b": b,
		"c": items,
	})
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return append([]byte{0x00, 0x00, 0x00, 0x00, 0x01}, payload...)
}

func TestDecode(t *testing.T) {
	d, err := New("any-topic", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != Name {
		t.Fatalf("expected name %q, got %q", Name, d.Name())
	}

	message := encodeFixture(t, 7, "hello", []int32{1, 2, 3})
	row, err := d.Decode(message)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(row) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(row))
	}
	if row[0].Value.Int64() != 7 {
		t.Fatalf("expected a=7, got %#v", row[0])
	}
	if row[1].Value.String() != "hello" {
		t.Fatalf("expected b=hello, got %#v", row[1])
	}
	items := row[2].Value.Array()
	if len(items) != 3 || items[2].Int32() != 3 {
		t.Fatalf("expected c=[1 2 3], got %#v", items)
	}
}

func TestNewTestAvroUsesDifferentName(t *testing.T) {
	d, err := NewTestAvro("any-topic", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "test-avro" {
		t.Fatalf("expected name test-avro, got %q", d.Name())
	}
}
