package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgprism/pgprism/internal/queries"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print diagnostic SQL for piping into psql",
		Long: `Print SQL for common PostgreSQL checks. Each subcommand writes a single
statement to stdout so you can pipe it into psql:

  pgprism query statements | psql -d mydb`,
	}
	cmd.AddCommand(
		newQueryStatementsCmd(),
		newQueryActivityCmd(),
		newQueryMaintenanceCmd(),
		newQueryPerformanceCmd(),
	)
	return cmd
}

func newQueryStatementsCmd() *cobra.Command {
	var (
		table     string
		hideQuery bool
		limit     string
	)

	cmd := &cobra.Command{
		Use:   "statements",
		Short: "Slowest statements from pg_stat_statements",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.Statements(table, hideQuery, limit))
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "only statements mentioning this table")
	cmd.Flags().BoolVar(&hideQuery, "hide-query", false, "omit the query text column")
	cmd.Flags().StringVar(&limit, "limit", "10", "row limit, empty for all")
	return cmd
}

func newQueryActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Inspect running sessions and locks",
	}
	cmd.AddCommand(
		newLongRunningCmd(),
		newBlockedCmd(),
		newLocksCmd(),
	)
	return cmd
}

func newLongRunningCmd() *cobra.Command {
	var (
		minQuery string
		minTxn   string
		orderBy  string
		compact  bool
	)

	cmd := &cobra.Command{
		Use:   "long-running",
		Short: "Sessions with open transactions, longest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if minQuery != "" && minTxn != "" {
				return fmt.Errorf("cannot specify both --min-query-duration and --min-transaction-duration")
			}
			if orderBy != "transaction" && orderBy != "query" {
				return fmt.Errorf("order by %q not supported, use transaction or query", orderBy)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.LongRunning(minQuery, minTxn, orderBy, compact))
			return nil
		},
	}

	cmd.Flags().StringVar(&minQuery, "min-query-duration", "", "only queries running longer than this interval, e.g. '5 seconds'")
	cmd.Flags().StringVar(&minTxn, "min-transaction-duration", "", "only transactions open longer than this interval")
	cmd.Flags().StringVar(&orderBy, "order-by", "transaction", "sort by transaction or query duration")
	cmd.Flags().BoolVar(&compact, "compact", false, "fewer columns for narrow terminals")
	return cmd
}

func newBlockedCmd() *cobra.Command {
	var (
		minDuration string
		compact     bool
	)

	cmd := &cobra.Command{
		Use:   "blocked",
		Short: "Sessions waiting on locks and who is blocking them",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.Blocked(minDuration, compact))
		},
	}

	cmd.Flags().StringVar(&minDuration, "min-duration", "", "only sessions blocked longer than this interval")
	cmd.Flags().BoolVar(&compact, "compact", false, "fewer columns for narrow terminals")
	return cmd
}

func newLocksCmd() *cobra.Command {
	var (
		pid        int
		granted    bool
		notGranted bool
		compact    bool
	)

	cmd := &cobra.Command{
		Use:   "locks",
		Short: "Lock information from pg_locks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if granted && notGranted {
				return fmt.Errorf("cannot specify both --granted and --not-granted")
			}
			var grantFilter *bool
			switch {
			case granted:
				v := true
				grantFilter = &v
			case notGranted:
				v := false
				grantFilter = &v
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.Locks(pid, grantFilter, compact))
			return nil
		},
	}

	cmd.Flags().IntVar(&pid, "pid", 0, "only locks held or awaited by this backend")
	cmd.Flags().BoolVar(&granted, "granted", false, "only granted locks")
	cmd.Flags().BoolVar(&notGranted, "not-granted", false, "only locks still being waited on")
	cmd.Flags().BoolVar(&compact, "compact", false, "fewer columns for narrow terminals")
	return cmd
}

func newQueryMaintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Vacuum and storage checks",
	}
	cmd.AddCommand(
		newDeadTuplesCmd(),
		newTableSizeCmd(),
	)
	return cmd
}

func newDeadTuplesCmd() *cobra.Command {
	var limit string

	cmd := &cobra.Command{
		Use:   "dead-tuples",
		Short: "Tables with the highest dead tuple ratio",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.DeadTuples(limit))
		},
	}

	cmd.Flags().StringVar(&limit, "limit", "30", "row limit, empty for all")
	return cmd
}

func newTableSizeCmd() *cobra.Command {
	var limit string

	cmd := &cobra.Command{
		Use:   "table-size",
		Short: "Largest tables including indexes and toast",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.TableSizes(limit))
		},
	}

	cmd.Flags().StringVar(&limit, "limit", "10", "row limit, empty for all")
	return cmd
}

func newQueryPerformanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "performance",
		Short: "Index usage and cache efficiency checks",
	}
	cmd.AddCommand(
		newIndexesUsedCmd(),
		newIndexesUnusedCmd(),
		newIndexUtilizationCmd(),
		newCacheHitRatioCmd(),
	)
	return cmd
}

func newIndexesUsedCmd() *cobra.Command {
	var (
		limit  string
		noPkey bool
	)

	cmd := &cobra.Command{
		Use:   "indexes-used",
		Short: "Most frequently scanned indexes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.IndexesUsed(limit, noPkey))
		},
	}

	cmd.Flags().StringVar(&limit, "limit", "10", "row limit, empty for all")
	cmd.Flags().BoolVar(&noPkey, "no-pkey", false, "exclude primary key indexes")
	return cmd
}

func newIndexesUnusedCmd() *cobra.Command {
	var limit string

	cmd := &cobra.Command{
		Use:   "indexes-unused",
		Short: "Indexes that have never been scanned",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.IndexesUnused(limit))
		},
	}

	cmd.Flags().StringVar(&limit, "limit", "10", "row limit, empty for all")
	return cmd
}

func newIndexUtilizationCmd() *cobra.Command {
	var (
		limit   string
		orderBy string
		minRows int
	)

	cmd := &cobra.Command{
		Use:   "index-utilization",
		Short: "Share of table reads served by indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := queries.IndexUtilization(limit, orderBy, minRows)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), query)
			return nil
		},
	}

	cmd.Flags().StringVar(&limit, "limit", "10", "row limit, empty for all")
	cmd.Flags().StringVar(&orderBy, "order-by", "rows", "sort by rows or index percentage")
	cmd.Flags().IntVar(&minRows, "min-rows", 0, "only tables with at least this many live rows")
	return cmd
}

func newCacheHitRatioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-hit-ratio",
		Short: "Buffer cache hit ratio per table",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.CacheHitRatio())
		},
	}
}
