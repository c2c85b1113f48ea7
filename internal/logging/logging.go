// Package logging builds the process logger from server settings.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logrus logger at the given level. Production environments
// get JSON output; everything else uses the text formatter with full
// timestamps. Unknown levels fall back to info.
func New(level, env string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(env, "production") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// IsDebug reports whether level enables debug output.
func IsDebug(level string) bool {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	return err == nil && lvl >= logrus.DebugLevel
}
