package util

import (
	"context"

	"github.com/bacalhau-project/eventcollector/pkg/config"
	"github.com/bacalhau-project/eventcollector/pkg/system"
)

type contextKey struct {
	name string
}

var (
	SystemManagerKey = contextKey{name: "context key for storing the system manager"}
	ConfigKey        = contextKey{name: "context key for storing the resolved configuration"}
)

func GetCleanupManager(ctx context.Context) *system.CleanupManager {
	return ctx.Value(SystemManagerKey).(*system.CleanupManager)
}

// GetConfig returns the configuration resolved by the root command, or the
// defaults when a command runs without it.
func GetConfig(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(ConfigKey).(config.Config); ok {
		return cfg
	}
	return config.Default()
}
