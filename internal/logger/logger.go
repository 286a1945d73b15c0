// Package logger holds the process-wide logrus logger.
//
// Output goes to stderr so that stdout stays free for command results and
// the MCP protocol stream.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "SHAPEFINDER_LOG_LEVEL"

var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.WarnLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if lvl, ok := os.LookupEnv(EnvLevel); ok {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			Logger.SetLevel(parsed)
		}
	}
}

// Options configures the logger.
type Options struct {
	Level  string
	Format string // "text" or "json"
	Output io.Writer
}

// Configure applies opts. The EnvLevel variable, when set, wins over
// opts.Level.
func Configure(opts Options) error {
	level := opts.Level
	if env, ok := os.LookupEnv(EnvLevel); ok && env != "" {
		level = env
	}
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		Logger.SetLevel(parsed)
	}

	switch strings.ToLower(opts.Format) {
	case "", "text":
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", opts.Format)
	}

	if opts.Output != nil {
		Logger.SetOutput(opts.Output)
	}
	return nil
}

// WithFields creates a new entry with the given fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithField creates a new entry with a single field
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithError creates a new entry with an error field
func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}
