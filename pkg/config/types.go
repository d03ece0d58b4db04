package config

import "time"

// Config is the fully resolved configuration of the CLI.
type Config struct {
	Fanout  FanoutConfig  `yaml:"Fanout"`
	Probe   ProbeConfig   `yaml:"Probe"`
	Output  OutputConfig  `yaml:"Output"`
	Logging LoggingConfig `yaml:"Logging"`
}

type FanoutConfig struct {
	// Concurrency is the maximum number of tasks running at once.
	Concurrency int `yaml:"Concurrency"`
	// Timeout bounds a whole fan-out run. Zero disables the deadline.
	Timeout time.Duration `yaml:"Timeout"`
}

type ProbeConfig struct {
	Retries        int           `yaml:"Retries"`
	RetryWaitMin   time.Duration `yaml:"RetryWaitMin"`
	RetryWaitMax   time.Duration `yaml:"RetryWaitMax"`
	RequestTimeout time.Duration `yaml:"RequestTimeout"`
}

type OutputConfig struct {
	// Format is one of table, json or yaml.
	Format string `yaml:"Format"`
}

type LoggingConfig struct {
	Level string `yaml:"Level"`
	Mode  string `yaml:"Mode"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Fanout: FanoutConfig{
			Concurrency: 8,
			Timeout:     30 * time.Second,
		},
		Probe: ProbeConfig{
			Retries:        3,
			RetryWaitMin:   100 * time.Millisecond,
			RetryWaitMax:   2 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Output: OutputConfig{
			Format: "table",
		},
		Logging: LoggingConfig{
			Level: "info",
			Mode:  "default",
		},
	}
}
