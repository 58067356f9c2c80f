package interview

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepview/prepview/internal/avatar"
	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/transcript"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at time.Time
	f  func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers = append(c.timers, &fakeTimer{at: c.now.Add(d), f: f})
}

// Advance moves the clock forward, firing due timers in order. Timers
// scheduled by fired callbacks are honored within the same advance.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		sort.Slice(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
		if len(c.timers) == 0 || c.timers[0].at.After(target) {
			break
		}
		t := c.timers[0]
		c.timers = c.timers[1:]
		c.now = t.at
		c.mu.Unlock()
		t.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

type fakeProvider struct {
	mu         sync.Mutex
	configured bool
	createErr  error
	conv       avatar.Conversation
	created    int
	ended      []string
	endErr     error
}

func (p *fakeProvider) Configured() bool { return p.configured }

func (p *fakeProvider) CreateConversation(ctx context.Context, cfg models.InterviewConfig) (*avatar.Conversation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	if p.createErr != nil {
		return nil, p.createErr
	}
	conv := p.conv
	return &conv, nil
}

func (p *fakeProvider) End(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, id)
	return p.endErr
}

type fakeCapture struct {
	mu       sync.Mutex
	starts   int
	stops    int
	fed      [][]byte
	startErr error
	stopErr  error
}

func (c *fakeCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	return c.startErr
}

func (c *fakeCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	return c.stopErr
}

func (c *fakeCapture) Feed(pcm []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fed = append(c.fed, pcm)
}

func testConfig() models.InterviewConfig {
	return models.InterviewConfig{
		Role:            "Backend Engineer",
		Company:         "Acme",
		InterviewType:   models.InterviewTechnical,
		DurationMinutes: 30,
		Resume:          "resume text",
		JobDescription:  "jd text",
		UserID:          "user-1",
	}
}

func newTestController(p *fakeProvider, cap *fakeCapture) (*Controller, *fakeClock) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if p == nil {
		p = &fakeProvider{}
	}
	if cap == nil {
		cap = &fakeCapture{}
	}
	c := NewController(p, cap, logrus.NewEntry(logger))
	clk := newFakeClock()
	c.SetClock(clk)
	return c, clk
}

func TestStartWithoutProviderUsesMockConversation(t *testing.T) {
	c, clk := newTestController(&fakeProvider{configured: false}, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))

	st := c.State()
	assert.True(t, st.Connected)
	assert.False(t, st.AgentReady)
	assert.Equal(t, MockConversationID, st.ConversationID)
	assert.Empty(t, st.AvatarURL)

	clk.Advance(2 * time.Second)

	st = c.State()
	assert.True(t, st.AgentReady)
	assert.True(t, st.Recording)

	entries := c.Transcript()
	require.Len(t, entries, 1)
	assert.Equal(t, transcript.SpeakerAgent, entries[0].Speaker)
	assert.Contains(t, entries[0].Content, "Technical interview for the Backend Engineer position at Acme")
}

func TestStartWithProviderAdoptsConversation(t *testing.T) {
	p := &fakeProvider{
		configured: true,
		conv:       avatar.Conversation{ID: "c-123", URL: "https://tavus.daily.co/c-123"},
	}
	c, clk := newTestController(p, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))

	st := c.State()
	assert.Equal(t, "c-123", st.ConversationID)
	assert.Equal(t, "https://tavus.daily.co/c-123", st.AvatarURL)

	clk.Advance(2 * time.Second)
	entries := c.Transcript()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Content, "AI interviewer from Acme")
}

func TestStartProviderFailureFallsBack(t *testing.T) {
	p := &fakeProvider{configured: true, createErr: errors.New("boom")}
	c, clk := newTestController(p, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))

	st := c.State()
	assert.True(t, st.Connected)
	assert.Equal(t, FallbackConversationID, st.ConversationID)

	clk.Advance(2 * time.Second)
	assert.True(t, c.State().AgentReady)
}

func TestStartWhileActiveReturnsErrAlreadyActive(t *testing.T) {
	c, _ := newTestController(nil, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))
	err := c.Start(context.Background(), testConfig())
	assert.ErrorIs(t, err, ErrAlreadyActive)

	c.End(context.Background())
	assert.NoError(t, c.Start(context.Background(), testConfig()))
}

func TestElapsedCountsOnlyWhileRecording(t *testing.T) {
	c, clk := newTestController(nil, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))
	clk.Advance(2 * time.Second) // agent ready, recording on

	clk.Advance(5 * time.Second)
	assert.Equal(t, 5, c.State().ElapsedSeconds)

	c.ToggleRecording() // off
	clk.Advance(10 * time.Second)
	assert.Equal(t, 5, c.State().ElapsedSeconds)

	c.ToggleRecording() // back on
	clk.Advance(3 * time.Second)
	assert.Equal(t, 8, c.State().ElapsedSeconds)
}

func TestEndBeforeAgentReadyCancelsDelay(t *testing.T) {
	c, clk := newTestController(nil, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))
	report := c.End(context.Background())

	// the delayed callback must not resurrect the ended session
	clk.Advance(5 * time.Second)

	st := c.State()
	assert.Equal(t, idleState(), st)
	assert.Empty(t, report.Entries)
	assert.Empty(t, c.Transcript())
}

func TestEndResetsToIdleShape(t *testing.T) {
	p := &fakeProvider{configured: true, conv: avatar.Conversation{ID: "c-9", URL: "u"}}
	cap := &fakeCapture{}
	c, clk := newTestController(p, cap)

	require.NoError(t, c.Start(context.Background(), testConfig()))
	clk.Advance(4 * time.Second)
	c.ToggleVideo()

	report := c.End(context.Background())

	assert.Equal(t, State{VideoEnabled: true}, c.State())
	assert.Equal(t, "c-9", report.ConversationID)
	assert.Equal(t, 2, report.ElapsedSeconds)
	assert.GreaterOrEqual(t, cap.stops, 1)
	assert.Equal(t, []string{"c-9"}, p.ended)
}

func TestEndProviderFailureStillResets(t *testing.T) {
	p := &fakeProvider{
		configured: true,
		conv:       avatar.Conversation{ID: "c-9"},
		endErr:     errors.New("remote down"),
	}
	c, clk := newTestController(p, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))
	clk.Advance(2 * time.Second)
	c.End(context.Background())

	assert.Equal(t, State{VideoEnabled: true}, c.State())
}

func TestEndDoesNotCallProviderForMockSessions(t *testing.T) {
	p := &fakeProvider{configured: false}
	c, _ := newTestController(p, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))
	c.End(context.Background())

	assert.Empty(t, p.ended)
}

func TestToggleRecordingCaptureErrorSetsLastError(t *testing.T) {
	cap := &fakeCapture{startErr: errors.New("no microphone")}
	c, clk := newTestController(nil, cap)

	require.NoError(t, c.Start(context.Background(), testConfig()))
	clk.Advance(2 * time.Second)
	c.ToggleRecording() // off, no error
	st := c.ToggleRecording()

	assert.True(t, st.Recording, "flag flips even when capture fails")
	assert.Equal(t, "no microphone", st.LastError)
}

func TestToggleVideoIsPure(t *testing.T) {
	cap := &fakeCapture{}
	c, _ := newTestController(nil, cap)

	st := c.ToggleVideo()
	assert.False(t, st.VideoEnabled)
	st = c.ToggleVideo()
	assert.True(t, st.VideoEnabled)
	assert.Zero(t, cap.starts)
	assert.Zero(t, cap.stops)
}

func TestAppendUserAfterEndIsDropped(t *testing.T) {
	c, clk := newTestController(nil, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))
	clk.Advance(2 * time.Second)
	c.AppendUser("first answer")
	report := c.End(context.Background())

	c.AppendUser("late recognizer result")

	require.Len(t, report.Entries, 2)
	assert.Equal(t, transcript.SpeakerUser, report.Entries[1].Speaker)
	assert.Len(t, c.Transcript(), 2, "post-end appends are dropped")
}

func TestHooksFireOutsideLock(t *testing.T) {
	c, clk := newTestController(nil, nil)

	var states []State
	var entries []transcript.Entry
	c.OnState(func(s State) {
		states = append(states, s)
		// re-entrancy: reading state from a hook must not deadlock
		_ = c.State()
	})
	c.OnTranscript(func(e transcript.Entry) { entries = append(entries, e) })

	require.NoError(t, c.Start(context.Background(), testConfig()))
	clk.Advance(2 * time.Second)

	require.NotEmpty(t, states)
	assert.True(t, states[len(states)-1].AgentReady)
	require.Len(t, entries, 1)
	assert.Equal(t, transcript.SpeakerAgent, entries[0].Speaker)
}

func TestFeedForwardsToCapture(t *testing.T) {
	cap := &fakeCapture{}
	c, _ := newTestController(nil, cap)

	c.Feed([]byte{1, 2, 3})
	require.Len(t, cap.fed, 1)
	assert.Equal(t, []byte{1, 2, 3}, cap.fed[0])
}

func TestRestartAfterEndCountsFromZero(t *testing.T) {
	c, clk := newTestController(nil, nil)

	require.NoError(t, c.Start(context.Background(), testConfig()))
	clk.Advance(7 * time.Second)
	c.End(context.Background())

	require.NoError(t, c.Start(context.Background(), testConfig()))
	clk.Advance(2 * time.Second)
	clk.Advance(3 * time.Second)
	assert.Equal(t, 3, c.State().ElapsedSeconds)
}
