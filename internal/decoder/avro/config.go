package avro

import "time"

// schemaSourceFrom reads the schema-location keys out of an
// ingester's custom settings table. Keys absent from custom simply
// resolve to their zero value, which ResolveSchema treats as "not
// configured".
func schemaSourceFrom(custom map[string]any) SchemaSourceConfig {
	return SchemaSourceConfig{
		SchemaFile:       stringValue(custom["schema_file"]),
		RegistryURL:      stringValue(custom["registry_url"]),
		RegistryUsername: stringValue(custom["registry_username"]),
		RegistryPassword: stringValue(custom["registry_password"]),
	}
}

func stringValue(raw any) string {
	s, _ := raw.(string)
	return s
}

// stringSet reads a TOML string array (decoded as []interface{} or
// []string depending on the caller) into a membership set. A nil or
// absent key yields an empty set, which the caller treats as "no
// filter configured".
func stringSet(raw any) map[string]bool {
	set := make(map[string]bool)
	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			set[s] = true
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				set[s] = true
			}
		}
	}
	return set
}

// stringMap reads a TOML inline table of string-to-string overrides.
func stringMap(raw any) map[string]string {
	out := make(map[string]string)
	switch v := raw.(type) {
	case map[string]string:
		for k, val := range v {
			out[k] = val
		}
	case map[string]interface{}:
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

// unixToTime converts a unix offset in the given precision (3 for
// milliseconds, 6 for microseconds) to a time.Time in UTC.
func unixToTime(units int64, precision int) time.Time {
	if precision >= 6 {
		return time.UnixMicro(units).UTC()
	}
	return time.UnixMilli(units).UTC()
}
