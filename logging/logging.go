// Package logging constructs the shared logrus logger.
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/minimart/backoffice/config"
)

// NewLogger creates a new configured logger instance.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}
