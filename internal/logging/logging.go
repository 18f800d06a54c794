package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level controls which messages a Logger emits
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Field is a single structured log field
type Field struct {
	Key   string
	Value interface{}
}

// WithField attaches a single key/value pair to a log entry
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// WithFields attaches multiple key/value pairs to a log entry
func WithFields(fields map[string]interface{}) Field {
	return Field{Key: "", Value: fields}
}

// Logger is a leveled logger writing one JSON line per entry
type Logger struct {
	mu    sync.Mutex
	level Level
	out   io.Writer
}

// New creates a logger that writes to stderr at the given level
func New(level Level) *Logger {
	return &Logger{level: level, out: os.Stderr}
}

// NewWithOutput creates a logger writing to the given writer
func NewWithOutput(level Level, out io.Writer) *Logger {
	return &Logger{level: level, out: out}
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

func (l *Logger) log(level Level, msg string, fields ...Field) {
	if level < l.level {
		return
	}

	entry := map[string]interface{}{
		"time":    time.Now().Format(time.RFC3339),
		"level":   level.String(),
		"message": msg,
	}

	for _, f := range fields {
		if f.Key == "" {
			if m, ok := f.Value.(map[string]interface{}); ok {
				for k, v := range m {
					entry[k] = v
				}
			}
			continue
		}
		entry[f.Key] = f.Value
	}

	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":%q,"message":%q}`, level.String(), msg))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(data, '\n'))
}
