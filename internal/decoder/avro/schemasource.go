package avro

import (
	"fmt"
	"os"

	"github.com/streambridge/chafka/internal/schemaregistry"
)

// SchemaSourceConfig is the subset of an ingester's `custom` settings
// table that controls where the Avro schema text comes from.
type SchemaSourceConfig struct {
	SchemaFile       string
	RegistryURL      string
	RegistryUsername string
	RegistryPassword string
}

// ResolveSchema fetches the raw Avro schema JSON for topic. A local
// file takes priority over the registry; if neither is configured,
// construction fails.
func ResolveSchema(topic string, cfg SchemaSourceConfig) (string, error) {
	switch {
	case cfg.SchemaFile != "":
		contents, err := os.ReadFile(cfg.SchemaFile)
		if err != nil {
			return "", fmt.Errorf("reading schema file %s: %w", cfg.SchemaFile, err)
		}
		return string(contents), nil
	case cfg.RegistryURL != "":
		client := schemaregistry.NewClient(cfg.RegistryURL, cfg.RegistryUsername, cfg.RegistryPassword)
		subject := topic + "-value"
		schema, err := client.GetLatestSchema(subject)
		if err != nil {
			return "", fmt.Errorf("fetching schema for subject %s: %w", subject, err)
		}
		return schema, nil
	default:
		return "", fmt.Errorf("registry_url or schema_file must be specified")
	}
}
