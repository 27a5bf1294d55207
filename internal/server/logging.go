package server

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pion/logging"
)

func parseLogLevel(level string) (logging.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logging.LogLevelTrace, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "", "info":
		return logging.LogLevelInfo, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "error":
		return logging.LogLevelError, nil
	case "disabled", "off", "none":
		return logging.LogLevelDisabled, nil
	default:
		return logging.LogLevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLoggerFactory returns a pion logger factory writing to w at the given
// level. A nil writer means stderr.
func NewLoggerFactory(level string, w io.Writer) logging.LoggerFactory {
	if w == nil {
		w = os.Stderr
	}
	lvl, _ := parseLogLevel(level)

	factory := logging.NewDefaultLoggerFactory()
	factory.Writer = w
	factory.DefaultLogLevel = lvl
	return factory
}
