package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
	"github.com/bacalhau-project/eventcollector/pkg/lib/validate"
	"github.com/bacalhau-project/eventcollector/pkg/logger"
)

const (
	environmentVariablePrefix = "EVENTCOLLECTOR"
	inferConfigTypes          = true
)

var (
	environmentVariableReplace = strings.NewReplacer(".", "_")
	configDecoderHook          = viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	outputFormats = []string{"table", "json", "yaml"}
)

// New returns a viper instance with defaults and environment bindings in
// place. Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(environmentVariablePrefix)
	v.SetEnvKeyReplacer(environmentVariableReplace)
	v.SetTypeByDefaultValue(inferConfigTypes)

	defaults := Default()
	v.SetDefault(KeyFanoutConcurrency, defaults.Fanout.Concurrency)
	v.SetDefault(KeyFanoutTimeout, defaults.Fanout.Timeout)
	v.SetDefault(KeyProbeRetries, defaults.Probe.Retries)
	v.SetDefault(KeyProbeRetryWaitMin, defaults.Probe.RetryWaitMin)
	v.SetDefault(KeyProbeRetryWaitMax, defaults.Probe.RetryWaitMax)
	v.SetDefault(KeyProbeRequestTimeout, defaults.Probe.RequestTimeout)
	v.SetDefault(KeyOutputFormat, defaults.Output.Format)
	v.SetDefault(KeyLoggingLevel, defaults.Logging.Level)
	v.SetDefault(KeyLoggingMode, defaults.Logging.Mode)

	v.AutomaticEnv()
	return v
}

// Load resolves the configuration from, in increasing priority, defaults,
// the optional config file, environment variables (including a .env file in
// the working directory) and flags bound to v.
func Load(v *viper.Viper, configFile string) (Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load()

	if configFile != "" {
		if err := validate.IsReadable(configFile, "config file %s is not readable", configFile); err != nil {
			return Config{}, bacerrors.Wrap(err, "failed to load configuration").
				WithCode(bacerrors.ConfigurationError).
				WithHint("check the path passed with --config")
		}
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, bacerrors.Wrap(err, "failed to read config file %s", configFile).
				WithCode(bacerrors.ConfigurationError)
		}
	}

	var out Config
	if err := v.Unmarshal(&out, configDecoderHook); err != nil {
		return Config{}, bacerrors.Wrap(err, "failed to decode configuration").
			WithCode(bacerrors.ConfigurationError)
	}

	if err := out.Validate(); err != nil {
		return Config{}, err
	}
	return out, nil
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	err := multierr.Combine(
		validate.IsGreaterThanZero(c.Fanout.Concurrency, "%s must be greater than zero", KeyFanoutConcurrency),
		validate.IsGreaterOrEqualToZero(c.Fanout.Timeout, "%s must not be negative", KeyFanoutTimeout),
		wholeMillis(c.Fanout.Timeout, KeyFanoutTimeout),
		validate.IsGreaterOrEqualToZero(c.Probe.Retries, "%s must not be negative", KeyProbeRetries),
		validate.IsGreaterOrEqualToZero(c.Probe.RetryWaitMin, "%s must not be negative", KeyProbeRetryWaitMin),
		validate.IsGreaterOrEqualToZero(c.Probe.RetryWaitMax, "%s must not be negative", KeyProbeRetryWaitMax),
		validate.IsGreaterThanZero(c.Probe.RequestTimeout, "%s must be greater than zero", KeyProbeRequestTimeout),
		oneOf(c.Output.Format, outputFormats, KeyOutputFormat),
		validate.NotBlank(c.Logging.Level, "%s must not be blank", KeyLoggingLevel),
	)
	if c.Probe.RetryWaitMax < c.Probe.RetryWaitMin {
		err = multierr.Append(err, fmt.Errorf("%s must not be smaller than %s", KeyProbeRetryWaitMax, KeyProbeRetryWaitMin))
	}
	if _, modeErr := logger.ParseLogMode(c.Logging.Mode); modeErr != nil {
		err = multierr.Append(err, modeErr)
	}
	if err != nil {
		return bacerrors.Wrap(err, "invalid configuration").WithCode(bacerrors.ConfigurationError)
	}
	return nil
}

func wholeMillis(d time.Duration, key string) error {
	if d%time.Millisecond != 0 {
		return fmt.Errorf("%s must be a whole number of milliseconds", key)
	}
	return nil
}

func oneOf(value string, allowed []string, key string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return errors.New(key + " must be one of " + strings.Join(allowed, ", "))
}

// KeyAsEnvVar returns the environment variable corresponding to a config key.
func KeyAsEnvVar(key string) string {
	return environmentVariablePrefix + "_" + strings.ToUpper(environmentVariableReplace.Replace(key))
}
