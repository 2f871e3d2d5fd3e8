package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chafka.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[ingesters.orders]
decoder = "avro"
kafka_broker = "localhost:9092"
topic = "orders"
clickhouse_url = "clickhouse://localhost:9000"
clickhouse_table = "orders"
`)

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ing, ok := settings.Ingesters["orders"]
	if !ok {
		t.Fatalf("expected an 'orders' ingester")
	}
	if ing.BatchSize != defaultBatchSize {
		t.Fatalf("expected default batch size %d, got %d", defaultBatchSize, ing.BatchSize)
	}
	if ing.BatchTimeoutSeconds != defaultBatchTimeoutSeconds {
		t.Fatalf("expected default batch timeout %d, got %d", defaultBatchTimeoutSeconds, ing.BatchTimeoutSeconds)
	}
	if ing.ConsumerGroup != "orders" {
		t.Fatalf("expected consumer group to default to the ingester name, got %q", ing.ConsumerGroup)
	}
}

func TestLoadPreservesExplicitValues(t *testing.T) {
	path := writeConfig(t, `
[ingesters.orders]
decoder = "example"
kafka_broker = "localhost:9092"
topic = "orders"
consumer_group = "custom-group"
batch_size = 50
batch_timeout_seconds = 2
clickhouse_url = "clickhouse://localhost:9000"
clickhouse_table = "orders"

[ingesters.orders.custom]
include_fields = ["id", "value"]
`)

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ing := settings.Ingesters["orders"]
	if ing.ConsumerGroup != "custom-group" {
		t.Fatalf("expected explicit consumer group to survive, got %q", ing.ConsumerGroup)
	}
	if ing.BatchSize != 50 {
		t.Fatalf("expected explicit batch size to survive, got %d", ing.BatchSize)
	}
	if ing.BatchTimeout().Seconds() != 2 {
		t.Fatalf("expected batch timeout of 2s, got %s", ing.BatchTimeout())
	}
	fields, ok := ing.Custom["include_fields"].([]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("expected custom.include_fields to round-trip, got %#v", ing.Custom["include_fields"])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
