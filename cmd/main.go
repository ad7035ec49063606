package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shakfu/makefilegen/pkg/logctx"
)

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

var (
	toolConfig Config
	// logger starts with a stderr fallback so errors raised before
	// PersistentPreRunE runs (flag parsing, config loading) are still
	// visible; the configured writer replaces it once the flags are known.
	logger = fallbackLogger(os.Stderr)
)

func fallbackLogger(out io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true})
}

var rootCmd = &cobra.Command{
	Use:   "makefilegen",
	Short: "Makefile generator / direct compilation tool",
	Long: `makefilegen generates Makefiles from command line flags or Starlark build
scripts and can compile small projects directly, without a Makefile.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		toolConfig, err = loadConfig()
		if err != nil {
			return err
		}

		level := toolConfig.Log.Level
		if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
			level = flag
		}
		parsed, ok := logLevels[level]
		if !ok {
			parsed = zerolog.InfoLevel
		}

		jsonLog, _ := cmd.Flags().GetBool("json-log")
		noColor, _ := cmd.Flags().GetBool("no-color")

		var out io.Writer
		switch {
		case jsonLog || toolConfig.Log.JSON:
			out = os.Stderr
		case noColor || toolConfig.NoColor:
			out = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}
		default:
			out = NewConsoleWriter()
		}

		logger = zerolog.New(out).Level(parsed)
		return nil
	},
}

// cmdContext returns a context carrying the configured logger.
func cmdContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logctx.WithLogger(ctx, &logger)
}

// splitFlagValues splits comma-separated flag groups into individual
// entries, so both `--cxxflags "-Wall,-O3"` and repeated flags work.
func splitFlagValues(groups []string) []string {
	flags := make([]string, 0, len(groups))
	for _, group := range groups {
		for _, flag := range strings.Split(group, ",") {
			if flag != "" {
				flags = append(flags, flag)
			}
		}
	}
	return flags
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-log", false, "emit JSONND log records instead of console output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
