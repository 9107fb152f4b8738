/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

// Package logtest provides a log.FieldLogger implementation that records all logged entries
// and allows inspecting them in tests.
package logtest

import (
	"sync"

	"github.com/ssgreg/logf"

	"github.com/chorushub/go-clipkit/log"
)

// RecordedEntry represents recorded entry which was logged.
type RecordedEntry struct {
	Fields []log.Field
	Level  log.Level
	Text   string
}

// FindField tries to find field in logging entry by key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			return &re.Fields[i], true
		}
	}
	return nil, false
}

type recordingEntryWriter struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic
func (ew *recordingEntryWriter) WriteEntry(e logf.Entry) {
	ew.mu.Lock()
	defer ew.mu.Unlock()

	allFields := append([]log.Field{}, e.Fields...)
	allFields = append(allFields, e.DerivedFields...)
	ew.entries = append(ew.entries, RecordedEntry{
		Fields: allFields,
		Level:  convertLogfLevelToLevel(e.Level),
		Text:   e.Text,
	})
}

// Recorder is an implementation of log.FieldLogger that records all logged entries.
type Recorder struct {
	log.FieldLogger
	entryWriter *recordingEntryWriter
}

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	ew := &recordingEntryWriter{}
	logger := logf.NewLogger(logf.LevelDebug, ew)
	return &Recorder{FieldLogger: &log.LogfAdapter{Logger: logger}, entryWriter: ew}
}

// Entries returns a copy of all recorded entries.
func (r *Recorder) Entries() []RecordedEntry {
	r.entryWriter.mu.RLock()
	defer r.entryWriter.mu.RUnlock()
	entries := make([]RecordedEntry, len(r.entryWriter.entries))
	copy(entries, r.entryWriter.entries)
	return entries
}

// FindEntry tries to find the first recorded entry which text equals to the passed one.
func (r *Recorder) FindEntry(text string) (RecordedEntry, bool) {
	r.entryWriter.mu.RLock()
	defer r.entryWriter.mu.RUnlock()
	for _, entry := range r.entryWriter.entries {
		if entry.Text == text {
			return entry, true
		}
	}
	return RecordedEntry{}, false
}

// Reset removes all recorded entries.
func (r *Recorder) Reset() {
	r.entryWriter.mu.Lock()
	defer r.entryWriter.mu.Unlock()
	r.entryWriter.entries = nil
}

func convertLogfLevelToLevel(value logf.Level) log.Level {
	switch value {
	case logf.LevelError:
		return log.LevelError
	case logf.LevelWarn:
		return log.LevelWarn
	case logf.LevelInfo:
		return log.LevelInfo
	case logf.LevelDebug:
		return log.LevelDebug
	}
	return log.LevelInfo
}
