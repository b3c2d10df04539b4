package testutils

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewSilentLogger returns a logger that discards everything, keeping test
// output readable.
func NewSilentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
