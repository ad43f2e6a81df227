package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel is the severity of a terminal log line
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ANSI colours for the timestamp column
const (
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorReset  = "\033[0m"
)

var (
	logMu           sync.Mutex
	logOutput       io.Writer = os.Stderr
	currentLogLevel           = LevelInfo
	useColors                 = IsTerminal(os.Stderr.Fd())
)

// SetLogLevel sets the minimum level written to the terminal
func SetLogLevel(level LogLevel) {
	logMu.Lock()
	defer logMu.Unlock()
	currentLogLevel = level
}

// SetVerbose turns on per-record debug lines (-v)
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LevelDebug)
	}
}

// SetQuiet limits terminal output to errors (-q). It also hides the
// progress bar and lowers the event log to warnings.
func SetQuiet(quiet bool) {
	if quiet {
		SetLogLevel(LevelError)
	}
}

// IsQuiet reports whether only errors reach the terminal
func IsQuiet() bool {
	return logLevel() >= LevelError
}

// IsVerbose reports whether per-record debug lines are shown
func IsVerbose() bool {
	return logLevel() <= LevelDebug
}

// SetColors forces coloured timestamps on or off. By default they are on
// only when stderr is a terminal.
func SetColors(enabled bool) {
	logMu.Lock()
	defer logMu.Unlock()
	useColors = enabled
}

// SetLogOutput redirects terminal logging, mainly for tests
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logOutput = w
}

func logLevel() LogLevel {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogLevel
}

// logf writes one line when level passes the current threshold. Workers
// log concurrently, so lines are written whole under the lock.
func logf(level LogLevel, color, tag, format string, args ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()

	if level < currentLogLevel {
		return
	}

	ts := time.Now().Format("15:04:05")
	if useColors {
		ts = color + ts + colorReset
	}
	fmt.Fprintf(logOutput, "%s %-7s %s\n", ts, tag, fmt.Sprintf(format, args...))
}

// DebugLog logs per-record detail, shown with -v
func DebugLog(format string, args ...interface{}) {
	logf(LevelDebug, colorGray, "[DEBUG]", format, args...)
}

// InfoLog logs run progress
func InfoLog(format string, args ...interface{}) {
	logf(LevelInfo, colorCyan, "[INFO]", format, args...)
}

// WarnLog logs conditions the run survives, such as a repeated import
func WarnLog(format string, args ...interface{}) {
	logf(LevelWarn, colorYellow, "[WARN]", format, args...)
}

// ErrorLog logs failed records and failed runs; it is shown even with -q
func ErrorLog(format string, args ...interface{}) {
	logf(LevelError, colorRed, "[ERROR]", format, args...)
}

// SuccessLog logs completed steps at info level
func SuccessLog(format string, args ...interface{}) {
	logf(LevelInfo, colorGreen, "[OK]", format, args...)
}
