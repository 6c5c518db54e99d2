// Package logger provides component-tagged structured logging.
//
// Every entry carries a "component" attribute plus an optional fields map,
// so call sites read as logger.InfoCF("slack", "Reply posted", fields).
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var (
	mu       sync.RWMutex
	level    = new(slog.LevelVar)
	instance = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
)

func toSlog(l LogLevel) slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the minimum level emitted.
func SetLevel(l LogLevel) {
	level.Set(toSlog(l))
}

// SetOutput redirects log output. When jsonFormat is set, entries are
// written as JSON lines.
func SetOutput(w io.Writer, jsonFormat bool) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if jsonFormat {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	mu.Lock()
	instance = slog.New(h)
	mu.Unlock()
}

func logf(l LogLevel, component, message string, fields map[string]any) {
	mu.RLock()
	lg := instance
	mu.RUnlock()

	attrs := make([]any, 0, 2+2*len(fields))
	attrs = append(attrs, "component", component)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, fields[k])
	}

	lg.Log(context.Background(), toSlog(l), message, attrs...)
}

func DebugC(component, message string) { logf(DEBUG, component, message, nil) }

func DebugCF(component, message string, fields map[string]any) {
	logf(DEBUG, component, message, fields)
}

func InfoC(component, message string) { logf(INFO, component, message, nil) }

func InfoCF(component, message string, fields map[string]any) {
	logf(INFO, component, message, fields)
}

func WarnC(component, message string) { logf(WARN, component, message, nil) }

func WarnCF(component, message string, fields map[string]any) {
	logf(WARN, component, message, fields)
}

func ErrorC(component, message string) { logf(ERROR, component, message, nil) }

func ErrorCF(component, message string, fields map[string]any) {
	logf(ERROR, component, message, fields)
}
