// Package config loads the TOML configuration file describing one or
// more ingesters, applying defaults: batch_size 1000,
// batch_timeout_seconds 10, and consumer_group defaulting to the
// ingester's own name.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Ingester is one named ingester's full configuration.
type Ingester struct {
	Decoder             string                 `toml:"decoder"`
	KafkaBroker         string                 `toml:"kafka_broker"`
	Topic               string                 `toml:"topic"`
	ConsumerGroup       string                 `toml:"consumer_group"`
	BatchSize           int                    `toml:"batch_size"`
	BatchTimeoutSeconds int64                  `toml:"batch_timeout_seconds"`
	ClickhouseURL       string                 `toml:"clickhouse_url"`
	ClickhouseTable     string                 `toml:"clickhouse_table"`
	Custom              map[string]interface{} `toml:"custom"`

	Security Security `toml:"security"`
}

// Security carries the broker transport-security settings a topic may
// need beyond a plaintext bootstrap string. The values are handed to
// librdkafka's own ConfigMap rather than built into a Go tls.Config,
// since confluent-kafka-go's C binding does its own TLS/SASL
// handshakes.
type Security struct {
	Protocol      string `toml:"security_protocol"`
	SaslMechanism string `toml:"sasl_mechanism"`
	SaslUsername  string `toml:"sasl_username"`
	SaslPassword  string `toml:"sasl_password"`
	TLSCACert     string `toml:"tls_ca_cert"`
	TLSClientCert string `toml:"tls_client_cert"`
	TLSClientKey  string `toml:"tls_client_key"`
	TLSSkipVerify bool   `toml:"tls_skip_verify"`
}

// BatchTimeout returns the configured batch timeout as a duration.
func (i Ingester) BatchTimeout() time.Duration {
	return time.Duration(i.BatchTimeoutSeconds) * time.Second
}

// Settings is the top-level configuration document: one ingester
// definition per name.
type Settings struct {
	Ingesters map[string]Ingester `toml:"ingesters"`
}

// defaultBatchSize and defaultBatchTimeoutSeconds are applied to any
// ingester entry that omits them.
const (
	defaultBatchSize           = 1000
	defaultBatchTimeoutSeconds = 10
)

// Load reads and parses path, applying defaults to every ingester
// entry: batch_size, batch_timeout_seconds, and consumer_group (which
// falls back to the ingester's map key, not a fixed string).
func Load(path string) (Settings, error) {
	var settings Settings
	if _, err := toml.DecodeFile(path, &settings); err != nil {
		return Settings{}, fmt.Errorf("decoding config file %s: %w", path, err)
	}

	for name, ingester := range settings.Ingesters {
		if ingester.BatchSize == 0 {
			ingester.BatchSize = defaultBatchSize
		}
		if ingester.BatchTimeoutSeconds == 0 {
			ingester.BatchTimeoutSeconds = defaultBatchTimeoutSeconds
		}
		if ingester.ConsumerGroup == "" {
			ingester.ConsumerGroup = name
		}
		settings.Ingesters[name] = ingester
	}
	return settings, nil
}
