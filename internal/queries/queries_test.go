package queries_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgprism/pgprism/internal/queries"
)

func TestStatements(t *testing.T) {
	q := queries.Statements("", false, "10")
	assert.Contains(t, q, "FROM pg_stat_statements")
	assert.Contains(t, q, "query,")
	assert.Contains(t, q, "ORDER BY total_exec_time DESC")
	assert.True(t, strings.HasSuffix(q, "LIMIT 10"))

	q = queries.Statements("users", true, "")
	assert.Contains(t, q, "WHERE query ILIKE '%users%'")
	assert.NotContains(t, q, "query,")
	assert.NotContains(t, q, "LIMIT")
}

func TestLongRunning(t *testing.T) {
	q := queries.LongRunning("", "", "transaction", false)
	assert.Contains(t, q, "FROM pg_stat_activity")
	assert.Contains(t, q, "pid <> pg_backend_pid()")
	assert.Contains(t, q, "wait_event_type")
	assert.Contains(t, q, "ORDER BY txn_duration DESC")

	q = queries.LongRunning("5 minutes", "", "query", true)
	assert.Contains(t, q, "AND now() - query_start > interval '5 minutes'")
	assert.Contains(t, q, "ORDER BY query_duration DESC")
	assert.NotContains(t, q, "wait_event_type")

	q = queries.LongRunning("", "1 hour", "transaction", false)
	assert.Contains(t, q, "AND now() - xact_start > interval '1 hour'")
}

func TestBlocked(t *testing.T) {
	q := queries.Blocked("", false)
	assert.Contains(t, q, "pg_blocking_pids(blocked.pid)")
	assert.Contains(t, q, "blocking.query AS blocking_query")
	assert.NotContains(t, q, "WHERE")

	q = queries.Blocked("30 seconds", true)
	assert.Contains(t, q, "WHERE now() - blocked.query_start > interval '30 seconds'")
	assert.NotContains(t, q, "blocking_query")
}

func TestLocks(t *testing.T) {
	q := queries.Locks(0, nil, false)
	assert.Contains(t, q, "SELECT pg_locks.*")
	assert.NotContains(t, q, "WHERE")

	granted := true
	q = queries.Locks(1234, &granted, true)
	assert.Contains(t, q, "relation::regclass AS relation")
	assert.Contains(t, q, "WHERE granted AND pid = 1234")

	granted = false
	q = queries.Locks(0, &granted, false)
	assert.Contains(t, q, "WHERE NOT granted")
}

func TestDeadTuples(t *testing.T) {
	q := queries.DeadTuples("30")
	assert.Contains(t, q, "NULLIF(n_live_tup + n_dead_tup, 0)")
	assert.Contains(t, q, "ORDER BY dead_tuple_pct DESC NULLS LAST")
	assert.True(t, strings.HasSuffix(q, "LIMIT 30"))
}

func TestTableSizes(t *testing.T) {
	q := queries.TableSizes("10")
	assert.Contains(t, q, "pg_total_relation_size")
	assert.Contains(t, q, "table_type = 'BASE TABLE'")
}

func TestIndexesUsed(t *testing.T) {
	q := queries.IndexesUsed("10", false)
	assert.Contains(t, q, "idx_scan AS index_scans\nFROM pg_stat_all_indexes")
	assert.Contains(t, q, "idx_scan > 0")
	assert.NotContains(t, q, "_pkey")

	q = queries.IndexesUsed("", true)
	assert.Contains(t, q, "AND indexrelname NOT ILIKE '%_pkey'")
}

func TestIndexesUnused(t *testing.T) {
	q := queries.IndexesUnused("10")
	assert.Contains(t, q, "idx_scan = 0")
	assert.Contains(t, q, "pg_relation_size(indexrelid)")
}

func TestIndexUtilization(t *testing.T) {
	q, err := queries.IndexUtilization("10", "rows", 0)
	require.NoError(t, err)
	assert.Contains(t, q, "ORDER BY n_live_tup DESC")
	assert.NotContains(t, q, "WHERE")

	q, err = queries.IndexUtilization("", "index", 10000)
	require.NoError(t, err)
	assert.Contains(t, q, "WHERE n_live_tup >= 10000")
	assert.Contains(t, q, "ORDER BY idx_percent ASC")

	_, err = queries.IndexUtilization("10", "bogus", 0)
	require.Error(t, err)
}

func TestCacheHitRatio(t *testing.T) {
	q := queries.CacheHitRatio()
	assert.Contains(t, q, "FROM pg_statio_user_tables")
	assert.Contains(t, q, "hit_ratio")
}

func TestExplain(t *testing.T) {
	q := queries.Explain("SELECT 1;", false)
	assert.Equal(t, "EXPLAIN (ANALYZE, BUFFERS)\nSELECT 1;", q)

	q = queries.Explain("SELECT 1;", true)
	assert.Equal(t, "EXPLAIN (ANALYZE, BUFFERS, FORMAT JSON)\nSELECT 1;", q)
}
