package component

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/c360/plotstream/pkg/timestamp"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	// LogLevelDebug represents debug-level logs
	LogLevelDebug LogLevel = "DEBUG"
	// LogLevelInfo represents informational logs
	LogLevelInfo LogLevel = "INFO"
	// LogLevelWarn represents warning logs
	LogLevelWarn LogLevel = "WARN"
	// LogLevelError represents error logs
	LogLevelError LogLevel = "ERROR"
)

// LogEntry is a structured log entry that can be published to NATS for live
// consumption alongside local slog output.
type LogEntry struct {
	Timestamp string   `json:"timestamp"` // RFC3339 format
	Level     LogLevel `json:"level"`
	Component string   `json:"component"`
	Message   string   `json:"message"`
	Detail    string   `json:"detail,omitempty"` // Error details
}

// Logger provides structured logging for components. It wraps a standard
// slog.Logger for local logging and optionally publishes entries to the
// logs.plotstream.<component> NATS subject for remote consumption.
type Logger struct {
	componentName string
	nc            *nats.Conn
	logger        *slog.Logger
	enabled       bool // whether NATS publishing is enabled
}

// NewLogger creates a component logger. nc may be nil for local-only logging.
func NewLogger(componentName string, nc *nats.Conn, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		componentName: componentName,
		nc:            nc,
		logger:        logger,
		enabled:       nc != nil,
	}
}

// Debug logs a debug-level message
func (cl *Logger) Debug(msg string, args ...any) {
	cl.publish(context.Background(), LogLevelDebug, msg, "")
	cl.logger.Debug(msg, append([]any{"component", cl.componentName}, args...)...)
}

// Info logs an info-level message
func (cl *Logger) Info(msg string, args ...any) {
	cl.publish(context.Background(), LogLevelInfo, msg, "")
	cl.logger.Info(msg, append([]any{"component", cl.componentName}, args...)...)
}

// Warn logs a warning-level message
func (cl *Logger) Warn(msg string, args ...any) {
	cl.publish(context.Background(), LogLevelWarn, msg, "")
	cl.logger.Warn(msg, append([]any{"component", cl.componentName}, args...)...)
}

// Error logs an error-level message with error details
func (cl *Logger) Error(msg string, err error, args ...any) {
	detail := ""
	if err != nil {
		detail = fmt.Sprintf("%+v", err)
	}
	cl.publish(context.Background(), LogLevelError, msg, detail)
	cl.logger.Error(msg, append([]any{"component", cl.componentName, "error", err}, args...)...)
}

// publish sends a log entry to NATS, best effort.
func (cl *Logger) publish(ctx context.Context, level LogLevel, message, detail string) {
	if !cl.enabled {
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	entry := LogEntry{
		Timestamp: timestamp.Format(timestamp.Now()),
		Level:     level,
		Component: cl.componentName,
		Message:   message,
		Detail:    detail,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		cl.logger.Error("Failed to marshal log entry", "error", err)
		return
	}

	nc := cl.nc
	if nc == nil {
		return
	}

	subject := fmt.Sprintf("logs.plotstream.%s", cl.componentName)
	if err := nc.Publish(subject, data); err != nil {
		cl.logger.Error("Failed to publish log to NATS", "error", err, "subject", subject)
	}
}
