package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgprism/pgprism/internal/analyzer"
	"github.com/pgprism/pgprism/internal/config"
	"github.com/pgprism/pgprism/internal/diff"
	"github.com/pgprism/pgprism/internal/parser"
	"github.com/pgprism/pgprism/internal/queries"
	"github.com/pgprism/pgprism/internal/render/html"
	"github.com/pgprism/pgprism/internal/render/tui"
	"github.com/pgprism/pgprism/internal/runner"
)

func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Work with EXPLAIN plans",
	}
	cmd.AddCommand(
		newExplainFormatCmd(),
		newExplainQueryCmd(),
		newExplainRunCmd(),
		newExplainDiffCmd(),
	)
	return cmd
}

// renderOptions carries the output flags shared by format and run.
type renderOptions struct {
	insights bool
	asHTML   bool
	title    string
	output   string
}

func addRenderFlags(cmd *cobra.Command, opts *renderOptions) {
	cmd.Flags().BoolVar(&opts.insights, "insights", false, "append findings below the plan")
	cmd.Flags().BoolVar(&opts.asHTML, "html", false, "emit an HTML report instead of terminal output")
	cmd.Flags().StringVar(&opts.title, "title", "", "HTML report title")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to a file instead of stdout")
}

func newExplainFormatCmd() *cobra.Command {
	var input string
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "format",
		Short: "Parse EXPLAIN text and render an annotated plan",
		Long: `Read EXPLAIN (ANALYZE, BUFFERS) text output from stdin or a file, parse it,
and render the plan tree with heat coloring and per-node icons.

Example:
  pgprism explain query "SELECT * FROM users;" | psql -d mydb | pgprism explain format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readSource(cmd, nil, input)
			if err != nil {
				return err
			}
			analysis, err := analyzeText(text)
			if err != nil {
				return err
			}
			return renderAnalysis(cmd, analysis, opts)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "read plan text from a file instead of stdin")
	addRenderFlags(cmd, &opts)
	return cmd
}

func newExplainQueryCmd() *cobra.Command {
	var jsonFormat bool

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Wrap a statement with EXPLAIN for piping into psql",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, err := readSource(cmd, args, "")
			if err != nil {
				return err
			}
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				return fmt.Errorf("provide a statement as an argument or on stdin")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), queries.Explain(stmt, jsonFormat))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFormat, "json", false, "request FORMAT JSON in the EXPLAIN options")
	return cmd
}

func newExplainRunCmd() *cobra.Command {
	var (
		file string
		dsn  string
		opts renderOptions
	)

	cmd := &cobra.Command{
		Use:   "run [SQL]",
		Short: "Execute EXPLAIN (ANALYZE, BUFFERS) and render the plan",
		Long: `Execute EXPLAIN (ANALYZE, BUFFERS) for a statement against PostgreSQL and
render the annotated plan. ANALYZE runs the statement for real, including
any writes it performs; wrap it in a transaction you roll back if that
matters.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, err := readSource(cmd, args, file)
			if err != nil {
				return err
			}
			if strings.TrimSpace(stmt) == "" {
				return fmt.Errorf("provide a statement as an argument, with --file, or on stdin")
			}

			cfg := config.Active()
			if dsn == "" {
				dsn = cfg.DSN
			}
			if dsn == "" {
				return fmt.Errorf("no DSN: pass --dsn or set dsn in the config")
			}

			logger := newLogger(cfg)
			text, err := runner.Run(cmd.Context(), stmt, runner.Options{
				DSN:     dsn,
				Timeout: cfg.QueryTimeout,
				Logger:  &logger,
			})
			if err != nil {
				return err
			}

			analysis, err := analyzeText(text)
			if err != nil {
				return err
			}
			return renderAnalysis(cmd, analysis, opts)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the statement from a file")
	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string (overrides config)")
	addRenderFlags(cmd, &opts)
	return cmd
}

func newExplainDiffCmd() *cobra.Command {
	var (
		basePath   string
		targetPath string
		asJSON     bool
		minDelta   float64
		minPct     float64
		maxItems   int
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two plans and report regressions and improvements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base, err := loadAnalysisFile(basePath)
			if err != nil {
				return fmt.Errorf("load base: %w", err)
			}
			target, err := loadAnalysisFile(targetPath)
			if err != nil {
				return fmt.Errorf("load target: %w", err)
			}

			report, err := diff.Compare(base, target, diff.Options{
				MinSelfDelta:     minDelta,
				MinPercentChange: minPct,
				MaxItems:         maxItems,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				payload, err := report.JSON()
				if err != nil {
					return err
				}
				_, _ = out.Write(payload)
				_, _ = io.WriteString(out, "\n")
				return nil
			}
			_, _ = io.WriteString(out, report.Markdown())
			return nil
		},
	}

	cmd.Flags().StringVar(&basePath, "base", "", "baseline plan text file")
	cmd.Flags().StringVar(&targetPath, "target", "", "changed plan text file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of Markdown")
	cmd.Flags().Float64Var(&minDelta, "min-delta", 0, "minimum self delta to report (default from config)")
	cmd.Flags().Float64Var(&minPct, "min-percent", 0, "minimum percent change to report (default from config)")
	cmd.Flags().IntVar(&maxItems, "limit", 0, "maximum rows per section (default from config)")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func analyzeText(text string) (*analyzer.Analysis, error) {
	plan, err := parser.ParseText(text)
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(plan)
}

func loadAnalysisFile(path string) (*analyzer.Analysis, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	plan, err := parser.Parse(file)
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(plan)
}

func renderAnalysis(cmd *cobra.Command, analysis *analyzer.Analysis, opts renderOptions) error {
	w := cmd.OutOrStdout()
	if opts.output != "" {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			_ = file.Close()
		}()
		w = file
	}

	if opts.asHTML {
		return html.Render(w, analysis, html.Options{Title: opts.title, IncludeStyles: true})
	}

	cfg := config.Active()
	return tui.Render(w, analysis, tui.Options{
		Color:        colorEnabled(cfg, w),
		Icons:        cfg.Icons,
		Heat:         true,
		ShowInsights: opts.insights,
	})
}
