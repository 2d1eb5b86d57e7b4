// Package cli wires the pgprism command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pgprism/pgprism/internal/config"
)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "pgprism: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		verbose bool
		noIcons bool
	)

	cmd := &cobra.Command{
		Use:   "pgprism",
		Short: "PostgreSQL EXPLAIN analyzer and admin query toolbox",
		Long: `pgprism parses EXPLAIN (ANALYZE, BUFFERS) text, attributes cost and time
to the nodes that actually spend them, and renders the plan with heat
coloring in the terminal or as an HTML report. It also prints ready-made
SQL for common administration checks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgPath, "config", "", "path to a config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.String("color", "", "color output: auto, always, or never")
	flags.BoolVar(&noIcons, "no-icons", false, "disable node icons in terminal output")

	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		if err := config.Load(cfgPath, flags); err != nil {
			return err
		}
		cfg := config.Active()
		if noIcons {
			cfg.Icons = false
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		config.Use(cfg)
		return nil
	}

	cmd.AddCommand(
		newExplainCmd(),
		newQueryCmd(),
		newVersionCmd(),
	)
	return cmd
}

// newLogger builds the stderr logger the runner reports through.
func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "pgprism").Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// readSource collects input from an argument, a file, or piped stdin, in that
// order. An interactive stdin yields no input.
func readSource(cmd *cobra.Command, args []string, path string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return "", nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// colorEnabled resolves the configured color mode against the writer.
func colorEnabled(cfg config.Config, w io.Writer) bool {
	switch cfg.Color {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
