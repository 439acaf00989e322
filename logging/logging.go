// Package logging builds the application logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// FormatText renders human-readable lines with full timestamps.
	FormatText = "text"
	// FormatJSON renders one JSON object per entry.
	FormatJSON = "json"
)

// TimestampFormat is used by the JSON formatter.
const TimestampFormat = "2006-01-02 15:04:05"

// New creates a logger writing to stdout.
//
// Arguments:
//   - level: A logrus level name such as "debug" or "info". Empty means info.
//   - format: FormatText or FormatJSON. Empty selects text at debug level and
//     JSON otherwise.
//
// Returns:
//   - *logrus.Logger: The configured logger.
//   - error: An error for an unknown level or format.
func New(level, format string) (*logrus.Logger, error) {
	return NewWithOutput(os.Stdout, level, format)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(w io.Writer, level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", level)
		}
		lvl = parsed
	}
	logger.SetLevel(lvl)

	if format == "" {
		format = FormatJSON
		if lvl >= logrus.DebugLevel {
			format = FormatText
		}
	}

	switch strings.ToLower(format) {
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: TimestampFormat,
		})
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}

	logger.WithField("log_level", lvl.String()).Debug("debug logging enabled")
	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
