package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pgprism/pgprism/internal/queries"
)

// DefaultTimeout bounds connect and query time when Options.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Options customises how EXPLAIN is executed.
type Options struct {
	DSN     string
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// Run executes EXPLAIN (ANALYZE, BUFFERS) for the provided SQL statement and
// returns the plan text, one line per plan row. ANALYZE runs the statement
// for real, writes included.
func Run(ctx context.Context, sqlStatement string, opts Options) (string, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return "", fmt.Errorf("runner: empty DSN")
	}
	stmt := strings.TrimSpace(sqlStatement)
	if stmt == "" {
		return "", fmt.Errorf("runner: empty sql statement")
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, opts.DSN)
	if err != nil {
		return "", fmt.Errorf("runner: connect: %w", err)
	}
	defer conn.Close(ctx)
	logger.Debug().Msg("connected")

	rows, err := conn.Query(ctx, queries.Explain(stmt, false))
	if err != nil {
		return "", fmt.Errorf("runner: query: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", fmt.Errorf("runner: scan: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("runner: rows: %w", err)
	}
	logger.Debug().Int("lines", len(lines)).Msg("plan captured")

	return strings.Join(lines, "\n"), nil
}
