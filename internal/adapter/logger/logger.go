package logger

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Warn(action, message, requestID string, details map[string]interface{}, err error)
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// ParseLevel accepts DEBUG, INFO, WARN or ERROR in any case. Anything else is INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

type jsonLogger struct {
	service  string
	hostname string
	min      Level
	out      io.Writer
	mu       sync.Mutex
}

func New(service string) Logger {
	return NewWithWriter(service, os.Stdout, LevelDebug)
}

func NewWithWriter(service string, out io.Writer, min Level) Logger {
	hostname, _ := os.Hostname()
	return &jsonLogger{
		service:  service,
		hostname: hostname,
		min:      min,
		out:      out,
	}
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log(LevelInfo, action, message, requestID, details, nil)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log(LevelDebug, action, message, requestID, details, nil)
}

func (l *jsonLogger) Warn(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(LevelWarn, action, message, requestID, details, err)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(LevelError, action, message, requestID, details, err)
}

func (l *jsonLogger) log(level Level, action, message, requestID string, details map[string]interface{}, err error) {
	if level < l.min {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     levelNames[level],
		Service:   l.service,
		Hostname:  l.hostname,
		RequestID: requestID,
		Action:    action,
		Message:   message,
		Details:   details,
	}

	if err != nil {
		entry.Error = &ErrorInfo{
			Msg:  err.Error(),
			Type: errorType(err),
		}
	}

	json.NewEncoder(l.out).Encode(entry)
}
