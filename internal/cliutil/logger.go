package cliutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// EnvLogLevel overrides the default log level when --log-level is not set.
const EnvLogLevel = "UNC_LOG_LEVEL"

// DefaultLogLevel is used when neither the flag nor the environment set one.
const DefaultLogLevel = "info"

// LogLevelFromEnv returns the level named by UNC_LOG_LEVEL, or the default.
func LogLevelFromEnv() string {
	if value := strings.TrimSpace(os.Getenv(EnvLogLevel)); value != "" {
		return value
	}
	return DefaultLogLevel
}

// NewLogger builds the CLI logger writing to w. Timestamps are only reported
// at debug level, where they help line up watcher output with supervisor
// decisions.
func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	if level == "" {
		level = DefaultLogLevel
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          "unc",
		Level:           lvl,
		ReportTimestamp: lvl <= log.DebugLevel,
	}), nil
}
