package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendKeepsInsertionOrder(t *testing.T) {
	l := NewLog()

	_, ok := l.Append(SpeakerAgent, "hello")
	require.True(t, ok)
	_, ok = l.Append(SpeakerUser, "hi there")
	require.True(t, ok)
	_, ok = l.Append(SpeakerAgent, "first question")
	require.True(t, ok)

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, SpeakerAgent, entries[0].Speaker)
	assert.Equal(t, "hello", entries[0].Content)
	assert.Equal(t, SpeakerUser, entries[1].Speaker)
	assert.Equal(t, "first question", entries[2].Content)
}

func TestLog_AppendStampsTime(t *testing.T) {
	l := NewLog()
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	e, ok := l.Append(SpeakerUser, "answer")
	require.True(t, ok)
	assert.Equal(t, fixed.UnixMilli(), e.TimestampMillis)
}

func TestLog_FreezeDropsLaterAppends(t *testing.T) {
	l := NewLog()
	l.Append(SpeakerUser, "kept")

	frozen := l.Freeze()
	require.Len(t, frozen, 1)

	_, ok := l.Append(SpeakerUser, "dropped")
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())
}

func TestLog_ResetClearsAndUnfreezes(t *testing.T) {
	l := NewLog()
	l.Append(SpeakerAgent, "old")
	l.Freeze()

	l.Reset()
	assert.Equal(t, 0, l.Len())

	_, ok := l.Append(SpeakerUser, "new session")
	assert.True(t, ok)
}

func TestLog_EntriesReturnsCopy(t *testing.T) {
	l := NewLog()
	l.Append(SpeakerUser, "original")

	entries := l.Entries()
	entries[0].Content = "mutated"

	assert.Equal(t, "original", l.Entries()[0].Content)
}
