// Package chsink inserts decoded rows into ClickHouse, one column
// block per flush, using ParseDSN/Open, a Ping at construction, and
// PrepareBatch/Append/Send for inserts.
//
// The insert statement's column list comes from the row itself (an
// ingester's decoder determines its own columns), so there is no
// fixed schema or table-creation step here — the destination tables
// are provisioned out of band.
package chsink

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/streambridge/chafka/internal/chvalue"
)

// Sink owns one ClickHouse connection pool.
type Sink struct {
	conn driver.Conn
}

// Open parses dsn, opens a connection, and pings it once so
// construction failures surface immediately rather than on the first
// insert.
func Open(ctx context.Context, dsn string) (*Sink, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing clickhouse dsn: %w", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging clickhouse: %w", err)
	}
	return &Sink{conn: conn}, nil
}

// Insert appends every row in rows to table as one batch and sends
// it. rows must be non-empty and share the same column set in the
// same order — an ingester's decoder guarantees this within a batch.
func (s *Sink) Insert(ctx context.Context, table string, rows []chvalue.Row) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, insertStatement(table, rows[0].Names()))
	if err != nil {
		return fmt.Errorf("preparing batch for %s: %w", table, err)
	}

	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, col := range row {
			values[j] = col.Value.Native()
		}
		if err := batch.Append(values...); err != nil {
			return fmt.Errorf("appending row %d to %s: %w", i, table, err)
		}
	}

	return batch.Send()
}

func insertStatement(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = "`" + c + "`"
	}
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(quoted, ", "))
}

// Close releases the underlying connection.
func (s *Sink) Close() error {
	return s.conn.Close()
}
