// Package logging provides leveled console output for monitoring a batch
// run. Output format is traditional: LEVEL TIMESTAMP [component] message
// key=value ...
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stdout.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs in key order.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Dispatch-derived logging methods ---
// Real-time output for the phases of a batch run.

// BatchStart logs the start of a batch dispatch.
func (l *Logger) BatchStart(batchID string, size, workers int) {
	l.Info("batch_start", map[string]interface{}{
		"batch":   batchID,
		"size":    size,
		"workers": workers,
	})
}

// BatchComplete logs the completion of a batch dispatch.
func (l *Logger) BatchComplete(batchID string, duration time.Duration, succeeded, failed int) {
	l.Info("batch_complete", map[string]interface{}{
		"batch":     batchID,
		"duration":  duration.String(),
		"succeeded": succeeded,
		"failed":    failed,
	})
}

// Attempt logs one completion attempt by a worker.
func (l *Logger) Attempt(workerID string, jobIndex, attempt int) {
	l.Debug("attempt", map[string]interface{}{
		"worker":  workerID,
		"job":     jobIndex,
		"attempt": attempt,
	})
}

// AttemptFailed logs a failed attempt and the retry decision.
func (l *Logger) AttemptFailed(workerID string, jobIndex, attempt int, err error, retrying bool) {
	fields := map[string]interface{}{
		"worker":   workerID,
		"job":      jobIndex,
		"attempt":  attempt,
		"retrying": retrying,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if retrying {
		l.Warn("attempt_failed", fields)
	} else {
		l.Error("attempt_failed", fields)
	}
}

// AdmissionWait logs a worker suspending until the next window.
func (l *Logger) AdmissionWait(jobIndex int, wait time.Duration) {
	l.Debug("admission_wait", map[string]interface{}{
		"job":  jobIndex,
		"wait": wait.String(),
	})
}

// WindowReset logs a budget window rollover.
func (l *Logger) WindowReset(tokensSpent, requestsSpent int) {
	l.Debug("window_reset", map[string]interface{}{
		"tokens_spent":   tokensSpent,
		"requests_spent": requestsSpent,
	})
}

// Backoff logs a retry backoff sleep.
func (l *Logger) Backoff(workerID string, jobIndex int, delay time.Duration) {
	l.Debug("backoff", map[string]interface{}{
		"worker": workerID,
		"job":    jobIndex,
		"delay":  delay.String(),
	})
}

// CapacityReduced logs a capacity reduction after a provider-side 429.
func (l *Logger) CapacityReduced(resource string, newCapacity int, reason string) {
	l.Warn("capacity_reduced", map[string]interface{}{
		"resource": resource,
		"capacity": newCapacity,
		"reason":   reason,
	})
}
