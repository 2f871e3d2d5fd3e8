// Package schemaregistry is a thin client for a Confluent-compatible
// Schema Registry, used by the Avro decoder to resolve a topic's
// schema when no local schema file is configured.
package schemaregistry

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the registry's HTTP API.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewClient builds a Client. username/password may both be empty, in
// which case requests carry no Authorization header.
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type schemaResponse struct {
	Schema string `json:"schema"`
}

// GetLatestSchema fetches the latest schema version registered under
// subject, returning the raw schema JSON text.
func (c *Client) GetLatestSchema(subject string) (string, error) {
	url := fmt.Sprintf("%s/subjects/%s/versions/latest", c.baseURL, subject)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building schema registry request: %w", err)
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting schema from registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("schema registry returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed schemaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding schema registry response: %w", err)
	}
	return parsed.Schema, nil
}
