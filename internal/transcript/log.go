// Package transcript holds the in-memory message log of one interview
// session: an append-only ordered list of attributed utterances. Nothing here
// is persisted; the archive worker copies entries out after the session ends.
package transcript

import (
	"sync"
	"time"
)

type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Entry is one attributed utterance with its capture timestamp.
type Entry struct {
	TimestampMillis int64   `json:"timestamp"`
	Speaker         Speaker `json:"speaker"`
	Content         string  `json:"content"`
}

// Log is an append-only message log. Insertion order is the only order;
// entries are never edited or reordered. Once frozen, appends are dropped
// until the next Reset.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	frozen  bool
	now     func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append records an utterance and returns it. It reports false when the log
// is frozen, in which case nothing was recorded.
func (l *Log) Append(speaker Speaker, content string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		return Entry{}, false
	}
	e := Entry{
		TimestampMillis: l.now().UnixMilli(),
		Speaker:         speaker,
		Content:         content,
	}
	l.entries = append(l.entries, e)
	return e, true
}

// Reset clears all entries and lifts a freeze. Called at session start.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.frozen = false
}

// Freeze makes the log read-only and returns a copy of its entries. Called
// once when a session ends; the copy is handed to the summary generator and
// the archive worker.
func (l *Log) Freeze() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
	return append([]Entry(nil), l.entries...)
}

// Entries returns a copy of the current entries.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
