package util

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/eventcollector/pkg/config"
	"github.com/bacalhau-project/eventcollector/pkg/fanout"
)

// NewRunner builds a fan-out runner from the resolved configuration with a
// progress spinner on the command's error stream.
func NewRunner(cmd *cobra.Command, cfg config.Config, name string, total int) (*fanout.Runner, *Progress, error) {
	progress := NewProgress(cmd.ErrOrStderr(), name, total)
	runner, err := fanout.NewRunner(
		fanout.WithName(name),
		fanout.WithConcurrency(cfg.Fanout.Concurrency),
		fanout.WithTimeout(cfg.Fanout.Timeout),
		fanout.WithLogger(log.Ctx(cmd.Context()).With().Str("command", cmd.Name()).Logger()),
		fanout.WithProgress(progress.Update),
	)
	if err != nil {
		progress.Stop(false)
		return nil, nil, err
	}
	return runner, progress, nil
}
