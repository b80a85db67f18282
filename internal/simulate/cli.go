// Package simulate drives a running service with synthetic game feeds and
// checks that replaying them produces no new notifications.
package simulate

import (
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging logs to stdout and to logFile. An empty logFile gets a
// timestamped name. The returned closer releases the file.
func SetupLogging(logFile, format string) (io.Closer, error) {
	if logFile == "" {
		logFile = "simulate_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	if err := logger.Init(logger.WithFormat(format), logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "initialize logger")
	}
	return file, nil
}
