package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var defaultLogger = logrus.StandardLogger()

func init() {
	// This ensures that any log statements that occur before
	// the configuration has been loaded will be written to
	// stdout instead of stderr
	defaultLogger.Out = os.Stdout
}

// Config contains logging configuration values
type Config struct {
	Format string `toml:"format" envconfig:"format"`
	Level  string `toml:"level" envconfig:"level"`
}

// Configure sets the format and level on the default logger.
func Configure(format string, level string) {
	switch format {
	case "json":
		defaultLogger.Formatter = &logrus.JSONFormatter{}
	case "text", "":
		// Just stick with the default
	default:
		logrus.WithField("format", format).Fatal("invalid logger format")
	}

	logrusLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrusLevel = logrus.InfoLevel
	}
	defaultLogger.SetLevel(logrusLevel)
}

// Default is the default logrus logger
func Default() *logrus.Entry { return defaultLogger.WithField("pid", os.Getpid()) }
