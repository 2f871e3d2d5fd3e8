package decoder

import (
	"testing"

	"github.com/streambridge/chafka/internal/chvalue"
)

type stubDecoder struct{ name string }

func (s stubDecoder) Name() string { return s.name }
func (s stubDecoder) Decode(message []byte) (chvalue.Row, error) {
	return chvalue.Row{{Name: "raw", Value: chvalue.NewString(message)}}, nil
}

func TestFactoryBuildUnknown(t *testing.T) {
	f := NewFactory()
	_, err := f.Build("nope", "topic", nil)
	if err == nil {
		t.Fatalf("expected an error for an unregistered decoder name")
	}
	if err.Error() != "unknown decoder nope" {
		t.Fatalf("expected %q, got %q", "unknown decoder nope", err.Error())
	}
}

func TestFactoryBuildRegistered(t *testing.T) {
	f := NewFactory()
	f.Register("stub", func(topic string, custom map[string]any) (Decoder, error) {
		return stubDecoder{name: "stub:" + topic}, nil
	})

	d, err := f.Build("stub", "orders", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "stub:orders" {
		t.Fatalf("expected constructor to receive the topic, got name %q", d.Name())
	}
}
