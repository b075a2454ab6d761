package model

import (
	"encoding/json"
	"time"
)

// wireTimeLayout is the human-readable timestamp format the Plumelog
// collector displays alongside the epoch-millisecond dtTime.
const wireTimeLayout = "2006-01-02 15:04:05.000"

// Batch is an ordered, non-empty sequence of records sent together in a
// single push. Insertion order is preserved on the wire.
type Batch []*LogRecord

// runLogMessage is the JSON shape one record takes on the Redis queue. Field
// names follow the Plumelog run-log message format consumed downstream.
type runLogMessage struct {
	AppName    string         `json:"appName"`
	Env        string         `json:"env,omitempty"`
	ServerName string         `json:"serverName,omitempty"`
	ProcessID  int            `json:"processId,omitempty"`
	DtTime     int64          `json:"dtTime"`
	DateTime   string         `json:"dateTime"`
	LogLevel   string         `json:"logLevel"`
	Content    string         `json:"content"`
	ClassName  string         `json:"className,omitempty"`
	Method     string         `json:"method,omitempty"`
	LineNumber int            `json:"lineNumber,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Encode serializes each record to one compact JSON object, ready for a
// single variadic RPUSH. A record whose context cannot be JSON-encoded is
// skipped rather than poisoning the batch; skipped reports how many were.
func (b Batch) Encode() (entries [][]byte, skipped int) {
	entries = make([][]byte, 0, len(b))
	for _, rec := range b {
		data, err := rec.encode()
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, data)
	}
	return entries, skipped
}

// Records reports the number of records in the batch.
func (b Batch) Records() int { return len(b) }

func (r *LogRecord) encode() ([]byte, error) {
	msg := runLogMessage{
		DtTime:     r.Time.UnixMilli(),
		DateTime:   r.Time.Format(wireTimeLayout),
		LogLevel:   r.Level.String(),
		Content:    r.Message,
		ClassName:  r.File,
		Method:     r.Function,
		LineNumber: r.Line,
		Extra:      r.Context,
	}
	if r.Meta != nil {
		msg.AppName = r.Meta.AppName
		msg.Env = r.Meta.Env
		msg.ServerName = r.Meta.ServerName
		msg.ProcessID = r.Meta.ProcessID
	}
	if r.Time.IsZero() {
		now := time.Now()
		msg.DtTime = now.UnixMilli()
		msg.DateTime = now.Format(wireTimeLayout)
	}
	return json.Marshal(msg)
}
