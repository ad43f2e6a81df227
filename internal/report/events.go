package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventRun    EventType = "run"
	EventImport EventType = "import"
	EventSkip   EventType = "skip"
	EventError  EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event of an import run
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	RunID     string            `json:"run_id,omitempty"`
	Index     int               `json:"index,omitempty"` // position of the record in the library, 1-based
	TrackID   int64             `json:"track_id,omitempty"`
	Title     string            `json:"title,omitempty"`
	Artist    string            `json:"artist,omitempty"`
	Album     string            `json:"album,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Malformed int               `json:"malformed,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, path, err := createLogFile(outputDir, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// createLogFile creates a new events-<timestamp>.jsonl file in dir. An
// existing log is never truncated: a name already taken gets a numeric
// suffix instead.
func createLogFile(dir string, now time.Time) (*os.File, string, error) {
	base := "events-" + now.Format("20060102-150405.000")
	for attempt := 0; attempt < 100; attempt++ {
		name := base + ".jsonl"
		if attempt > 0 {
			name = fmt.Sprintf("%s-%d.jsonl", base, attempt)
		}
		path := filepath.Join(dir, name)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free event log name for %s", base)
}

// SetRunID stamps every subsequent event with the given run id
func (l *EventLogger) SetRunID(runID string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runID = runID
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RunID == "" {
		event.RunID = l.runID
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogRunStart logs the beginning of an import run
func (l *EventLogger) LogRunStart(sourcePath, sourceSHA1 string, records int) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventRun,
		Reason: "started",
		Extra: map[string]string{
			"source_path": sourcePath,
			"source_sha1": sourceSHA1,
			"records":     fmt.Sprintf("%d", records),
		},
	})
}

// LogRunFinish logs the final status and counts of an import run
func (l *EventLogger) LogRunFinish(status string, imported, skipped, failed int, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventRun,
		Reason:   status,
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"imported": fmt.Sprintf("%d", imported),
			"skipped":  fmt.Sprintf("%d", skipped),
			"failed":   fmt.Sprintf("%d", failed),
		},
	})
}

// LogImport logs a record that was written to the store
func (l *EventLogger) LogImport(index int, trackID int64, title, artist, album string, malformed int, duration time.Duration) error {
	level := LevelDebug
	if malformed > 0 {
		level = LevelWarning
	}

	return l.Log(&Event{
		Level:     level,
		Event:     EventImport,
		Index:     index,
		TrackID:   trackID,
		Title:     title,
		Artist:    artist,
		Album:     album,
		Malformed: malformed,
		Duration:  duration.Milliseconds(),
	})
}

// LogSkip logs a record rejected by an exclusion rule
func (l *EventLogger) LogSkip(index int, title, reason string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventSkip,
		Index:  index,
		Title:  title,
		Reason: reason,
	})
}

// LogError logs a record that could not be persisted
func (l *EventLogger) LogError(index int, title string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: EventError,
		Index: index,
		Title: title,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
