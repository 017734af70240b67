package utils

import (
    "os"

    "github.com/sirupsen/logrus"
)

// NewLogger builds the application logger: JSON output with ISO 8601
// timestamps to stdout. The level is taken from LOG_LEVEL when set
// (debug, info, warn, error); anything else means info.
func NewLogger() *logrus.Logger {
    log := logrus.New()
    log.SetFormatter(&logrus.JSONFormatter{
        TimestampFormat: "2006-01-02T15:04:05Z07:00",
    })
    log.SetOutput(os.Stdout)

    if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
        log.SetLevel(lvl)
    } else {
        log.SetLevel(logrus.InfoLevel)
    }
    return log
}
