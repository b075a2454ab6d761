package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Severity is the level of a log record, ordered from least to most severe.
type Severity int

const (
	TRACE Severity = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

var severityNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}

func (s Severity) String() string {
	if s < TRACE || s > CRITICAL {
		return "INFO"
	}
	return severityNames[s]
}

// ParseSeverity maps a case-insensitive level name to a Severity.
// The second return value is false for unknown names.
func ParseSeverity(name string) (Severity, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range severityNames {
		if n == upper {
			return Severity(i), true
		}
	}
	return INFO, false
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Metadata holds the static fields attached to every record shipped by one
// sink instance. It is built once at sink construction and shared by pointer;
// it must never be mutated afterwards.
type Metadata struct {
	AppName    string
	Env        string
	ServerName string
	ProcessID  int
}

// LogRecord is one normalized log event. Records are immutable once they
// enter the buffer: the sink owns them until they are sent or dropped.
type LogRecord struct {
	// Time is the wall-clock time of the event.
	Time time.Time

	Level   Severity
	Message string

	// Context carries structured key/value data attached at the call site.
	// Keys are strings, values must be JSON-encodable.
	Context map[string]any

	// Source location. Optional; zero values are omitted from the wire form.
	File     string
	Line     int
	Function string

	// Meta points at the sink's shared static metadata.
	Meta *Metadata
}
