package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/bacalhau-project/eventcollector/cmd/cli/hash"
	"github.com/bacalhau-project/eventcollector/cmd/cli/probe"
	"github.com/bacalhau-project/eventcollector/cmd/cli/version"
	"github.com/bacalhau-project/eventcollector/cmd/util"
	"github.com/bacalhau-project/eventcollector/pkg/config"
	"github.com/bacalhau-project/eventcollector/pkg/logger"
	"github.com/bacalhau-project/eventcollector/pkg/system"
	"github.com/bacalhau-project/eventcollector/pkg/telemetry"
)

const rootName = "eventcollector"

func NewRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	defaults := config.Default()

	RootCmd := &cobra.Command{
		Use:           rootName,
		Short:         "Run batches of tasks and collect their completions",
		Long:          `Run batches of tasks concurrently, report progress as each completes and stop waiting once a deadline passes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			mode, err := logger.ParseLogMode(cfg.Logging.Mode)
			if err != nil {
				return err
			}
			logger.ConfigureLogging(mode, cfg.Logging.Level)
			telemetry.SetupFromEnvs()

			cm := system.NewCleanupManager()
			cm.RegisterCallback(telemetry.Cleanup)
			ctx = context.WithValue(ctx, util.SystemManagerKey, cm)
			ctx = context.WithValue(ctx, util.ConfigKey, cfg)

			var names []string
			root := cmd
			for ; root.HasParent(); root = root.Parent() {
				names = append([]string{root.Name()}, names...)
			}
			name := fmt.Sprintf("%s.%s", rootName, strings.Join(names, "."))
			ctx, span := telemetry.NewRootSpan(ctx, telemetry.GetTracer(), name)
			ctx = context.WithValue(ctx, spanKey, span)

			cmd.SetContext(ctx)
			return nil
		},
	}

	RootCmd.AddCommand(probe.NewCmd())
	RootCmd.AddCommand(hash.NewCmd())
	RootCmd.AddCommand(version.NewCmd())

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "",
		`Path to a yaml, json or toml config file.`)
	flags.String("log-level", defaults.Logging.Level,
		`Log level: 'trace', 'debug', 'info', 'warn', 'error'`)
	flags.String("log-mode", defaults.Logging.Mode,
		`Log format: 'default','json','combined','event'`)
	flags.StringP("output", "o", defaults.Output.Format,
		`The output format for the command: 'table', 'json', 'yaml'`)
	flags.Int("concurrency", defaults.Fanout.Concurrency,
		`Maximum number of tasks running at once.`)
	flags.Duration("timeout", defaults.Fanout.Timeout,
		`Stop waiting for tasks after this long. Zero waits forever.`)

	for key, flag := range map[string]string{
		config.KeyLoggingLevel:      "log-level",
		config.KeyLoggingMode:       "log-mode",
		config.KeyOutputFormat:      "output",
		config.KeyFanoutConcurrency: "concurrency",
		config.KeyFanoutTimeout:     "timeout",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("DEVELOPER ERROR: binding %s: %s", flag, err))
		}
	}
	return RootCmd
}

func Execute() {
	rootCmd := NewRootCmd()

	// Ensure commands are able to stop cleanly if someone presses ctrl+c
	ctx, cancel := signal.NotifyContext(context.Background(), util.ShutdownSignals...)
	defer cancel()
	rootCmd.SetContext(ctx)

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	if err := ExecuteContext(ctx, rootCmd); err != nil {
		cancel()
		util.Fatal(rootCmd, err, 1)
	}
}

// ExecuteContext runs rootCmd and then ends the root span and runs the
// clean-up callbacks of whichever command executed, including when it failed.
func ExecuteContext(ctx context.Context, rootCmd *cobra.Command) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cmd != nil {
		err = multierr.Append(err, finish(cmd.Context()))
	}
	return err
}

// finish is a no-op for contexts the root pre-run never populated, such as
// when flag parsing failed.
func finish(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if span, ok := ctx.Value(spanKey).(trace.Span); ok {
		span.End()
	}
	if cm, ok := ctx.Value(util.SystemManagerKey).(*system.CleanupManager); ok {
		return cm.Cleanup(ctx)
	}
	return nil
}

type contextKey struct {
	name string
}

var spanKey = contextKey{name: "context key for storing the root span"}
