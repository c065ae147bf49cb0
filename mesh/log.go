package mesh

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var log = logrus.New()

func init() {
	log.Formatter = &prefixed.TextFormatter{
		DisableTimestamp: true,
		ForceFormatting:  true,
	}
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
}

// Logger returns the package logger so callers can share its configuration.
func Logger() *logrus.Logger {
	return log
}

// SetLogLevel sets the package log level from a name: debug, info, warn or
// error. Unknown names fall back to info.
func SetLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

// SetLogOutput redirects package logging, mostly for tests.
func SetLogOutput(w io.Writer) {
	log.SetOutput(w)
}
