// Package queries builds SQL text for common PostgreSQL administration
// checks. The statements are returned as text for piping into psql, never
// executed here.
package queries

import (
	"fmt"
	"strings"
)

// Statements lists pg_stat_statements entries ordered by total execution
// time. Requires the pg_stat_statements extension to be enabled.
func Statements(table string, hideQuery bool, limit string) string {
	cols := []string{"queryid"}
	if !hideQuery {
		cols = append(cols, "query")
	}
	cols = append(cols,
		"calls",
		"rows",
		"total_exec_time",
		"mean_exec_time",
		"stddev_exec_time",
		"min_exec_time",
		"max_exec_time",
	)

	var b strings.Builder
	b.WriteString("SELECT\n    ")
	b.WriteString(strings.Join(cols, ",\n    "))
	b.WriteString("\nFROM pg_stat_statements\n")
	if table != "" {
		_, _ = fmt.Fprintf(&b, "WHERE query ILIKE '%%%s%%'\n", table)
	}
	b.WriteString("ORDER BY total_exec_time DESC")
	return addLimit(b.String(), limit)
}

// LongRunning lists open transactions and their current queries with
// durations. At most one of the two duration filters should be set; the
// query-duration filter wins when both are.
func LongRunning(minQueryDuration, minTxnDuration, orderBy string, compact bool) string {
	cols := []string{
		"pid",
		"now() - xact_start AS txn_duration",
		"now() - query_start AS query_duration",
		"usename",
		"application_name",
		"client_addr",
		"state",
	}
	if !compact {
		cols = append(cols,
			"query_start",
			"wait_event_type",
			"wait_event",
			"query",
		)
	}

	var filter string
	switch {
	case minQueryDuration != "":
		filter = fmt.Sprintf("\n    AND now() - query_start > interval '%s'", minQueryDuration)
	case minTxnDuration != "":
		filter = fmt.Sprintf("\n    AND now() - xact_start > interval '%s'", minTxnDuration)
	}

	order := "txn_duration"
	if orderBy == "query" {
		order = "query_duration"
	}

	return fmt.Sprintf(`SELECT
    %s
FROM pg_stat_activity
WHERE xact_start IS NOT NULL
    AND state <> 'idle'
    AND pid <> pg_backend_pid()%s
ORDER BY %s DESC`, strings.Join(cols, ",\n    "), filter, order)
}

// Blocked lists sessions waiting on locks alongside the session blocking them.
func Blocked(minDuration string, compact bool) string {
	cols := []string{
		"blocked.pid",
		"blocked.usename",
		"blocked.application_name",
		"now() - blocked.query_start AS query_duration",
	}
	if !compact {
		cols = append(cols, "blocked.query")
	}
	cols = append(cols,
		"blocking.pid AS blocking_pid",
		"blocking.application_name AS blocking_app_name",
		"now() - blocking.query_start AS blocking_duration",
	)
	if !compact {
		cols = append(cols, "blocking.query AS blocking_query")
	}

	var where string
	if minDuration != "" {
		where = fmt.Sprintf("WHERE now() - blocked.query_start > interval '%s'\n", minDuration)
	}

	return fmt.Sprintf(`SELECT
    %s
FROM pg_stat_activity blocked
JOIN pg_stat_activity blocking ON blocking.pid = ANY(pg_blocking_pids(blocked.pid))
%sORDER BY query_duration DESC`, strings.Join(cols, ",\n    "), where)
}

// Locks lists lock information, optionally filtered by pid or grant state.
// A nil granted selects both granted and waiting locks.
func Locks(pid int, granted *bool, compact bool) string {
	query := "SELECT pg_locks.*\nFROM pg_locks"
	if compact {
		query = `SELECT
    locktype,
    relation::regclass AS relation,
    pid,
    mode,
    granted
FROM pg_locks`
	}

	var clauses []string
	if granted != nil {
		if *granted {
			clauses = append(clauses, "granted")
		} else {
			clauses = append(clauses, "NOT granted")
		}
	}
	if pid > 0 {
		clauses = append(clauses, fmt.Sprintf("pid = %d", pid))
	}
	if len(clauses) > 0 {
		query += "\nWHERE " + strings.Join(clauses, " AND ")
	}
	return query
}

// DeadTuples lists the tables with the highest proportion of dead tuples.
func DeadTuples(limit string) string {
	return addLimit(`SELECT
    schemaname,
    relname,
    n_dead_tup,
    n_live_tup,
    ROUND(100.0 * n_dead_tup / NULLIF(n_live_tup + n_dead_tup, 0), 2) AS dead_tuple_pct
FROM pg_stat_user_tables
WHERE schemaname = 'public'
ORDER BY dead_tuple_pct DESC NULLS LAST`, limit)
}

// TableSizes lists the largest base tables by total relation size.
func TableSizes(limit string) string {
	return addLimit(`SELECT
    table_schema || '.' || table_name AS table_full_name,
    pg_size_pretty(pg_total_relation_size(quote_ident(table_schema) || '.' || quote_ident(table_name))) AS total_size
FROM information_schema.tables
WHERE table_type = 'BASE TABLE' AND table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY pg_total_relation_size(quote_ident(table_schema) || '.' || quote_ident(table_name)) DESC`, limit)
}

// IndexesUsed lists the most scanned indexes.
func IndexesUsed(limit string, noPkey bool) string {
	var filter string
	if noPkey {
		filter = "\n    AND indexrelname NOT ILIKE '%_pkey'"
	}
	return addLimit(fmt.Sprintf(`SELECT
    relname AS table,
    indexrelname AS index,
    idx_scan AS index_scans
FROM pg_stat_all_indexes
WHERE schemaname = 'public'
    AND idx_scan > 0%s
ORDER BY idx_scan DESC`, filter), limit)
}

// IndexesUnused lists indexes that have never been scanned, candidates for
// removal.
func IndexesUnused(limit string) string {
	return addLimit(`SELECT
    schemaname AS schema,
    relname AS table,
    indexrelname AS index,
    idx_scan AS index_scans,
    pg_size_pretty(pg_relation_size(indexrelid)) AS index_size
FROM pg_stat_all_indexes
WHERE schemaname = 'public' AND idx_scan = 0
ORDER BY pg_relation_size(indexrelid) DESC`, limit)
}

// IndexUtilization reports the share of index scans per table. orderBy is
// "rows" or "index"; minRows > 0 filters out small tables.
func IndexUtilization(limit, orderBy string, minRows int) (string, error) {
	var order string
	switch orderBy {
	case "rows":
		order = "n_live_tup DESC"
	case "index":
		order = "idx_percent ASC"
	default:
		return "", fmt.Errorf("queries: order by %q not supported", orderBy)
	}

	var filter string
	if minRows > 0 {
		filter = fmt.Sprintf("\nWHERE n_live_tup >= %d", minRows)
	}

	return addLimit(fmt.Sprintf(`SELECT
    relname AS table,
    n_live_tup AS rows,
    round(100*idx_scan/nullif(idx_scan+seq_scan,0),2) AS idx_percent
FROM pg_stat_user_tables%s
ORDER BY %s`, filter, order), limit), nil
}

// CacheHitRatio reports the ratio of heap cache hits to total accesses.
func CacheHitRatio() string {
	return `SELECT round(100*sum(heap_blks_hit)::numeric /
    nullif(sum(heap_blks_hit+heap_blks_read),0),2) AS hit_ratio
FROM pg_statio_user_tables`
}

// Explain wraps a statement so that running it captures a full plan. ANALYZE
// executes the statement, including any writes it performs.
func Explain(stmt string, jsonFormat bool) string {
	options := "ANALYZE, BUFFERS"
	if jsonFormat {
		options += ", FORMAT JSON"
	}
	return fmt.Sprintf("EXPLAIN (%s)\n%s", options, stmt)
}

// addLimit appends a LIMIT clause unless limit is empty, which disables it.
func addLimit(query, limit string) string {
	if limit == "" {
		return query
	}
	return query + "\nLIMIT " + limit
}
