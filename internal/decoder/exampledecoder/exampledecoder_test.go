package exampledecoder

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestDecode(t *testing.T) {
	d, err := New("any-topic", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != Name {
		t.Fatalf("expected name %q, got %q", Name, d.Name())
	}

	id := uuid.New()
	message := []byte(fmt.Sprintf(`{"key":"%s","value":42}`, id))

	row, err := d.Decode(message)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(row) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(row))
	}
	if row[0].Name != "id" || row[0].Value.Uuid() != id {
		t.Fatalf("expected id column %s, got %#v", id, row[0])
	}
	if row[1].Name != "v" || row[1].Value.Int64() != 42 {
		t.Fatalf("expected v column 42, got %#v", row[1])
	}
}

func TestDecodeMalformed(t *testing.T) {
	d, _ := New("any-topic", nil)
	if _, err := d.Decode([]byte("not json")); err == nil {
		t.Fatalf("expected an error for malformed input")
	}
}
