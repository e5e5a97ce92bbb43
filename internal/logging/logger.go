// Package logging builds the logrus logger shared by every component.
//
// Usage:
//
//	log := logging.NewLogger("iptvbrowser", "info", "json")
//	log.WithField("url", url).Info("playlist loaded")
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a logrus logger for a named service writing to stdout.
// format is "json" (default) or "text"; an unparsable level means info.
func NewLogger(service, level, format string) *logrus.Entry {
	return newLogger(os.Stdout, service, level, format)
}

func newLogger(w io.Writer, service, level, format string) *logrus.Entry {
	log := logrus.New()
	if format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}
	log.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil || level == "" {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log.WithField("service", service)
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Entry {
	return newLogger(io.Discard, "test", "panic", "text")
}
