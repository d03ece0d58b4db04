package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogMode selects the writer used for log output.
type LogMode string

const (
	LogModeDefault  LogMode = "default"
	LogModeJSON     LogMode = "json"
	LogModeCombined LogMode = "combined"
	LogModeEvent    LogMode = "event"
)

var stderr = struct{ io.Writer }{os.Stderr}

func init() { //nolint:gochecknoinits // init with zerolog is idiomatic
	configureLogging(LogMode(strings.ToLower(os.Getenv("LOG_TYPE"))), os.Getenv("LOG_LEVEL"))
}

// ParseLogMode validates a user supplied log mode.
func ParseLogMode(s string) (LogMode, error) {
	mode := LogMode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case LogModeDefault, LogModeJSON, LogModeCombined, LogModeEvent:
		return mode, nil
	case "":
		return LogModeDefault, nil
	default:
		return "", fmt.Errorf("invalid log mode %q: expected one of default, json, combined, event", s)
	}
}

// ParseLogLevel maps a level name to a zerolog level, defaulting to info.
func ParseLogLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// ConfigureLogging replaces the global logger. It is called by the CLI once
// flags have been parsed.
func ConfigureLogging(mode LogMode, level string) {
	configureLogging(mode, level)
}

type tTesting interface {
	Log(args ...interface{})
	Logf(format string, args ...interface{})
	Helper()
	Cleanup(f func())
}

// ConfigureTestLogging allows logs to be associated with individual tests
func ConfigureTestLogging(t tTesting) {
	oldLogger := log.Logger
	oldContextLogger := zerolog.DefaultContextLogger
	configureLogging(LogModeDefault, os.Getenv("LOG_LEVEL"), zerolog.ConsoleTestWriter(t))
	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.DefaultContextLogger = oldContextLogger
	})
}

func configureLogging(mode LogMode, level string, loggingOptions ...func(w *zerolog.ConsoleWriter)) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLogLevel(level))

	isTerminal := isatty.IsTerminal(os.Stdout.Fd())

	defaultLogging := func(w *zerolog.ConsoleWriter) {
		w.Out = stderr
		w.NoColor = !isTerminal
		w.TimeFormat = "15:04:05.999 |"
		w.PartsOrder = []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		}
		w.FormatFieldName = func(i interface{}) string {
			return fmt.Sprintf("[%s:", i)
		}
		w.FormatFieldValue = func(i interface{}) string {
			// don't print nil in case field value wasn't set
			if i == nil {
				i = ""
			}
			return fmt.Sprintf("%s]", i)
		}
	}

	loggingOptions = append([]func(w *zerolog.ConsoleWriter){defaultLogging}, loggingOptions...)
	textWriter := zerolog.NewConsoleWriter(loggingOptions...)

	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return shortCaller(file) + ":" + strconv.Itoa(line)
	}

	// we default to text output
	var useLogWriter io.Writer = textWriter
	switch mode {
	case LogModeJSON:
		useLogWriter = os.Stdout
	case LogModeCombined:
		useLogWriter = zerolog.MultiLevelWriter(textWriter, os.Stdout)
	case LogModeEvent:
		useLogWriter = io.Discard
	default:
	}

	log.Logger = zerolog.New(useLogWriter).With().Timestamp().Caller().Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

// shortCaller keeps the last two path elements of file.
func shortCaller(file string) string {
	const separatorCount = 2
	countedSeparators := 0
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			countedSeparators++
			if countedSeparators >= separatorCount {
				return file[i+1:]
			}
		}
	}
	return file
}
