package capture

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	"github.com/sirupsen/logrus"
)

// Hypothesis is one recognition batch from a continuous recognizer: the
// current hypothesis segments plus whether the engine has finalized the
// latest one.
type Hypothesis struct {
	Segments []string
	Final    bool
}

// Recognizer is a continuous, interim-results dictation stream. One instance
// serves one interview session.
type Recognizer interface {
	Start(ctx context.Context) error
	Feed(pcm []byte) error
	Results() <-chan Hypothesis
	Stop() error
}

// Capability reports whether real speech recognition is available and builds
// per-session recognizers. Detection runs exactly once at startup; every
// call site depends on this interface, never on the detection itself.
type Capability interface {
	Available() bool
	NewRecognizer(ctx context.Context) (Recognizer, error)
}

// Detect probes for a usable speech backend. Without one the system still
// runs; sessions simply record no user utterances.
func Detect(ctx context.Context, logger *logrus.Logger) Capability {
	client, err := speech.NewClient(ctx)
	if err != nil {
		logger.WithError(err).Warn("speech recognition unavailable, capture disabled")
		return unavailableCapability{}
	}
	return &googleCapability{client: client, logger: logger}
}

type googleCapability struct {
	client *speech.Client
	logger *logrus.Logger
}

func (g *googleCapability) Available() bool { return true }

func (g *googleCapability) NewRecognizer(ctx context.Context) (Recognizer, error) {
	return newGoogleRecognizer(g.client, g.logger), nil
}

// Noop returns a recognizer that accepts everything and recognizes nothing.
// It is the fallback when building a real recognizer fails mid-session.
func Noop() Recognizer { return noopRecognizer{} }

type unavailableCapability struct{}

func (unavailableCapability) Available() bool { return false }

func (unavailableCapability) NewRecognizer(ctx context.Context) (Recognizer, error) {
	return noopRecognizer{}, nil
}

// noResults is shared by all no-op recognizers; it never delivers.
var noResults = make(chan Hypothesis)

// noopRecognizer is the Unavailable variant: starting and feeding it succeed
// and do nothing, mirroring a client without a speech facility.
type noopRecognizer struct{}

func (noopRecognizer) Start(ctx context.Context) error { return nil }
func (noopRecognizer) Feed(pcm []byte) error           { return nil }
func (noopRecognizer) Results() <-chan Hypothesis      { return noResults }
func (noopRecognizer) Stop() error                     { return nil }
