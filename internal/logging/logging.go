package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Environment names accepted by New.
const (
	Development = "development"
	Production  = "production"
)

// New builds the process logger. Production logs JSON at info by default;
// development logs text at debug. An explicit level overrides the default.
func New(environment, level string, out io.Writer) (*logrus.Logger, error) {
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)

	defaultLevel := logrus.DebugLevel
	if strings.EqualFold(environment, Production) {
		logger.SetFormatter(&logrus.JSONFormatter{})
		defaultLevel = logrus.InfoLevel
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if level == "" {
		logger.SetLevel(defaultLevel)
		return logger, nil
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(parsed)
	return logger, nil
}

// Component returns a child logger tagged with the component name.
func Component(logger logrus.FieldLogger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
