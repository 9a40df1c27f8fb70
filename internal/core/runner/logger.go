package runner

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
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

var levelRank = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// ParseLogLevel maps a case-insensitive level name to a LogLevel, falling back
// to INFO for unknown names.
func ParseLogLevel(name string) LogLevel {
	level := LogLevel(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := levelRank[level]; ok {
		return level
	}
	return LogLevelInfo
}

// LogField represents a key-value pair in structured logging.
type LogField struct {
	Key   string
	Value any
}

// Field creates a LogField from a key-value pair.
func Field(key string, value any) LogField {
	return LogField{Key: key, Value: value}
}

// Logger provides structured logging capabilities with context support.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...LogField)
	Info(ctx context.Context, msg string, fields ...LogField)
	Warn(ctx context.Context, msg string, fields ...LogField)
	Error(ctx context.Context, msg string, err error, fields ...LogField)
	WithFields(fields ...LogField) Logger
}

// NoOpLogger is a logger that discards all log entries.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(_ context.Context, _ string, _ ...LogField)          {}
func (n *NoOpLogger) Info(_ context.Context, _ string, _ ...LogField)           {}
func (n *NoOpLogger) Warn(_ context.Context, _ string, _ ...LogField)           {}
func (n *NoOpLogger) Error(_ context.Context, _ string, _ error, _ ...LogField) {}
func (n *NoOpLogger) WithFields(_ ...LogField) Logger                           { return n }

// StdLogger writes one line per entry: timestamp, level, optional error, the
// message and its fields. Trace IDs found on the context are appended.
type StdLogger struct {
	fields   []LogField
	minLevel LogLevel
	logger   *log.Logger
	now      func() time.Time
	mu       *sync.Mutex
}

// NewStdLogger creates a new logger with the specified minimum log level and writer.
// If writer is nil, logs are discarded.
func NewStdLogger(minLevel LogLevel, writer io.Writer) *StdLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &StdLogger{
		minLevel: minLevel,
		logger:   log.New(writer, "", 0),
		now:      time.Now,
		mu:       &sync.Mutex{},
	}
}

func (s *StdLogger) log(ctx context.Context, level LogLevel, msg string, err error, fields ...LogField) {
	if levelRank[level] < levelRank[s.minLevel] {
		return
	}

	allFields := make([]LogField, 0, len(s.fields)+len(fields)+1)
	allFields = append(allFields, s.fields...)
	allFields = append(allFields, fields...)
	if traceID := TraceID(ctx); traceID != "" {
		allFields = append(allFields, Field("trace_id", traceID))
	}

	parts := []string{
		fmt.Sprintf("[%s]", s.now().Format(time.RFC3339)),
		fmt.Sprintf("[%s]", level),
	}
	if err != nil {
		parts = append(parts, fmt.Sprintf("[error=%q]", err.Error()))
	}
	parts = append(parts, msg)

	if len(allFields) > 0 {
		fieldParts := make([]string, 0, len(allFields))
		for _, f := range allFields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", f.Key, f.Value))
		}
		parts = append(parts, fmt.Sprintf("fields=[%s]", strings.Join(fieldParts, " ")))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Println(strings.Join(parts, " "))
}

func (s *StdLogger) Debug(ctx context.Context, msg string, fields ...LogField) {
	s.log(ctx, LogLevelDebug, msg, nil, fields...)
}

func (s *StdLogger) Info(ctx context.Context, msg string, fields ...LogField) {
	s.log(ctx, LogLevelInfo, msg, nil, fields...)
}

func (s *StdLogger) Warn(ctx context.Context, msg string, fields ...LogField) {
	s.log(ctx, LogLevelWarn, msg, nil, fields...)
}

func (s *StdLogger) Error(ctx context.Context, msg string, err error, fields ...LogField) {
	s.log(ctx, LogLevelError, msg, err, fields...)
}

func (s *StdLogger) WithFields(fields ...LogField) Logger {
	merged := make([]LogField, 0, len(s.fields)+len(fields))
	merged = append(merged, s.fields...)
	merged = append(merged, fields...)
	return &StdLogger{
		fields:   merged,
		minLevel: s.minLevel,
		logger:   s.logger,
		now:      s.now,
		mu:       s.mu,
	}
}

// traceIDKey is the context key for trace IDs.
type traceIDKey struct{}

// WithTraceID adds a trace ID to the context so every entry of one run can be
// correlated.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceID extracts the trace ID from context, if present.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewTraceID creates a new trace ID for a run.
func NewTraceID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
