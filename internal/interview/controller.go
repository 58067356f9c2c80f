// Package interview implements the session lifecycle: a state machine
// running Idle -> Connecting -> Connected (agent pending, then ready), with
// End cleaning everything back to Idle. The controller owns the transcript
// log and the elapsed-time counter and sequences the avatar provider and the
// speech capture adapter around them.
package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/avatar"
	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/transcript"
)

const (
	// Sentinel conversation ids for the two degraded branches: no provider
	// credentials at all, and a provider create that failed.
	MockConversationID     = "mock-conversation-id"
	FallbackConversationID = "fallback-conversation-id"

	// How long after a session is requested the agent is reported ready.
	// The provider gives no readiness signal; this stands in for one.
	agentReadyDelay = 2 * time.Second
)

// ErrAlreadyActive is returned by Start while a session is connecting or
// connected. The caller must End the current session first.
var ErrAlreadyActive = errors.New("an interview session is already active")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseConnected
)

// State is the snapshot the UI renders. It is replaced wholesale on every
// transition; readers never see a partially applied update.
type State struct {
	Connected      bool   `json:"connected"`
	Recording      bool   `json:"recording"`
	VideoEnabled   bool   `json:"video_enabled"`
	AgentReady     bool   `json:"agent_ready"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	LastError      string `json:"last_error,omitempty"`
}

func idleState() State { return State{VideoEnabled: true} }

// Provider is the slice of the avatar client the controller needs.
type Provider interface {
	Configured() bool
	CreateConversation(ctx context.Context, cfg models.InterviewConfig) (*avatar.Conversation, error)
	End(ctx context.Context, conversationID string) error
}

// Capture is the slice of the speech capture adapter the controller needs.
type Capture interface {
	Start() error
	Stop() error
	Feed(pcm []byte)
}

// Report is what End hands back: everything the summary generator and the
// archive worker need, captured before the state is reset.
type Report struct {
	Config         models.InterviewConfig
	ConversationID string
	ElapsedSeconds int
	Entries        []transcript.Entry
}

type Controller struct {
	provider Provider
	capture  Capture
	clock    Clock
	logger   *logrus.Entry
	log      *transcript.Log

	mu    sync.Mutex
	phase Phase
	state State
	cfg   models.InterviewConfig
	// gen invalidates scheduled callbacks (agent-ready delay, elapsed
	// ticks) from sessions that have since ended; a late callback whose
	// generation no longer matches is a no-op.
	gen        uint64
	timerArmed bool
	// providerSession is set only when the conversation id came from the
	// provider and therefore has something remote to tear down.
	providerSession bool

	onState      func(State)
	onTranscript func(transcript.Entry)
}

func NewController(provider Provider, cap Capture, logger *logrus.Entry) *Controller {
	return &Controller{
		provider: provider,
		capture:  cap,
		clock:    systemClock{},
		logger:   logger,
		log:      transcript.NewLog(),
		state:    idleState(),
	}
}

// SetClock replaces the time source. Call before Start.
func (c *Controller) SetClock(clk Clock) { c.clock = clk }

// SetCapture wires the capture adapter. Call before Start; the adapter needs
// the controller's transcript sink, so the two are constructed in tandem.
func (c *Controller) SetCapture(cap Capture) { c.capture = cap }

// OnState registers a hook invoked with a state snapshot after every
// transition. Invoked outside the controller lock.
func (c *Controller) OnState(f func(State)) { c.onState = f }

// OnTranscript registers a hook invoked for every appended entry.
func (c *Controller) OnTranscript(f func(transcript.Entry)) { c.onTranscript = f }

func (c *Controller) fireState(st State) {
	if c.onState != nil {
		c.onState(st)
	}
}

func (c *Controller) fireTranscript(e transcript.Entry) {
	if c.onTranscript != nil {
		c.onTranscript(e)
	}
}

// Start requests a new session for the given config. The returned error is
// ErrAlreadyActive when a session is in flight; every other failure is
// absorbed into a degraded-but-usable session, matching the policy that
// nothing may block the user from attempting an interview.
func (c *Controller) Start(ctx context.Context, cfg models.InterviewConfig) error {
	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	c.gen++
	gen := c.gen
	c.cfg = cfg
	c.phase = PhaseConnecting
	c.providerSession = false
	c.state.LastError = ""
	c.state.Connected = true
	c.state.Recording = false
	c.state.AgentReady = false
	c.state.ElapsedSeconds = 0
	c.state.AvatarURL = ""
	c.state.ConversationID = ""
	st := c.state
	c.mu.Unlock()

	c.log.Reset()
	c.fireState(st)

	if !c.provider.Configured() {
		c.logger.Warn("avatar provider not configured, using mock conversation")
		c.adoptConversation(gen, MockConversationID, "", false)
		c.scheduleAgentReady(gen, mockGreeting(cfg))
		return nil
	}

	conv, err := c.provider.CreateConversation(ctx, cfg)
	if err != nil {
		c.logger.WithError(err).Error("avatar conversation create failed, falling back to mock")
		c.adoptConversation(gen, FallbackConversationID, "", false)
		c.scheduleAgentReady(gen, mockGreeting(cfg))
		return nil
	}

	c.adoptConversation(gen, conv.ID, conv.URL, true)
	c.scheduleAgentReady(gen, providerGreeting(cfg))
	return nil
}

// adoptConversation records the conversation identity, unless the session it
// belongs to has already been ended (a slow create landing after End).
func (c *Controller) adoptConversation(gen uint64, id, url string, fromProvider bool) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if fromProvider {
			// the session is gone; don't leak the remote conversation
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := c.provider.End(ctx, id); err != nil {
					c.logger.WithError(err).Warn("failed to end orphaned conversation")
				}
			}()
		}
		return
	}
	c.state.ConversationID = id
	c.state.AvatarURL = url
	c.providerSession = fromProvider
	st := c.state
	c.mu.Unlock()
	c.fireState(st)
}

func (c *Controller) scheduleAgentReady(gen uint64, greeting string) {
	c.clock.AfterFunc(agentReadyDelay, func() {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.phase = PhaseConnected
		c.state.AgentReady = true
		c.state.Recording = true
		c.armTimer(gen)
		st := c.state
		c.mu.Unlock()

		if e, ok := c.log.Append(transcript.SpeakerAgent, greeting); ok {
			c.fireTranscript(e)
		}
		c.fireState(st)
	})
}

// armTimer schedules the next elapsed-seconds tick. Caller holds c.mu. The
// chain stops rescheduling as soon as connected && recording no longer
// holds, and restarts (from the current value) when it holds again.
func (c *Controller) armTimer(gen uint64) {
	if c.timerArmed || !(c.state.Connected && c.state.Recording) {
		return
	}
	c.timerArmed = true
	c.clock.AfterFunc(time.Second, func() { c.tick(gen) })
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timerArmed = false
	if !(c.state.Connected && c.state.Recording) {
		c.mu.Unlock()
		return
	}
	c.state.ElapsedSeconds++
	c.armTimer(gen)
	st := c.state
	c.mu.Unlock()
	c.fireState(st)
}

// ToggleRecording flips the recording flag and starts or stops speech
// capture to match. A capture failure is surfaced through LastError but the
// flag keeps its new value; the clock simply follows the flag.
func (c *Controller) ToggleRecording() State {
	c.mu.Lock()
	next := !c.state.Recording
	gen := c.gen
	c.mu.Unlock()

	var err error
	if next {
		err = c.capture.Start()
	} else {
		err = c.capture.Stop()
	}

	c.mu.Lock()
	if gen != c.gen {
		st := c.state
		c.mu.Unlock()
		return st
	}
	c.state.Recording = next
	if err != nil {
		c.logger.WithError(err).Error("failed to toggle speech capture")
		c.state.LastError = err.Error()
	}
	c.armTimer(gen)
	st := c.state
	c.mu.Unlock()

	c.fireState(st)
	return st
}

// ToggleVideo flips the display preference. Pure state change.
func (c *Controller) ToggleVideo() State {
	c.mu.Lock()
	c.state.VideoEnabled = !c.state.VideoEnabled
	st := c.state
	c.mu.Unlock()
	c.fireState(st)
	return st
}

// End tears the session down and returns the frozen transcript and elapsed
// time. Ending the provider conversation is best-effort; regardless of what
// fails, the controller always lands back in the exact idle shape.
func (c *Controller) End(ctx context.Context) *Report {
	c.mu.Lock()
	c.gen++ // invalidate the pending agent-ready callback and timer chain
	report := &Report{
		Config:         c.cfg,
		ConversationID: c.state.ConversationID,
		ElapsedSeconds: c.state.ElapsedSeconds,
	}
	hadProvider := c.providerSession
	c.phase = PhaseIdle
	c.timerArmed = false
	c.providerSession = false
	c.state = idleState()
	c.mu.Unlock()

	if err := c.capture.Stop(); err != nil {
		c.logger.WithError(err).Warn("failed to stop speech capture")
	}

	report.Entries = c.log.Freeze()

	if hadProvider && report.ConversationID != "" {
		if err := c.provider.End(ctx, report.ConversationID); err != nil {
			c.logger.WithError(err).Warn("failed to end avatar conversation")
		}
	}

	c.fireState(idleState())
	return report
}

// AppendUser records a finalized user utterance. This is the capture
// adapter's sink.
func (c *Controller) AppendUser(text string) {
	if e, ok := c.log.Append(transcript.SpeakerUser, text); ok {
		c.fireTranscript(e)
	}
}

// Feed forwards raw audio to the capture adapter.
func (c *Controller) Feed(pcm []byte) { c.capture.Feed(pcm) }

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the current message log.
func (c *Controller) Transcript() []transcript.Entry {
	return c.log.Entries()
}

func mockGreeting(cfg models.InterviewConfig) string {
	return fmt.Sprintf("Hello! I'm ready to begin your %s interview for the %s position at %s. Let's get started.",
		cfg.InterviewType, cfg.Role, cfg.Company)
}

func providerGreeting(cfg models.InterviewConfig) string {
	return fmt.Sprintf("Hello! I'm your AI interviewer from %s. I'm ready to begin.", cfg.Company)
}
