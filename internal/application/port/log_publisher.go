package port

import (
	"context"
	"time"
)

// LogLevel represents the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogEntry is one structured log line handed to an external log system.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Fields    map[string]interface{}
}

// LogPublisher ships log entries to an external observability platform.
type LogPublisher interface {
	// Publish buffers or sends a single entry.
	Publish(ctx context.Context, entry LogEntry) error

	// Flush forces publication of buffered entries. Called on shutdown.
	Flush(ctx context.Context) error
}
