// Package capture turns a continuous speech-recognition stream into discrete
// final utterances for the session transcript.
package capture

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Adapter sits between a Recognizer and the transcript: it concatenates the
// hypothesis segments of each batch and emits the text only when the engine
// marks the batch final and the text is non-empty. Interim hypotheses are
// discarded. Recognition errors never propagate past this layer.
type Adapter struct {
	rec    Recognizer
	emit   func(text string)
	logger *logrus.Entry

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func NewAdapter(rec Recognizer, emit func(text string), logger *logrus.Entry) *Adapter {
	return &Adapter{rec: rec, emit: emit, logger: logger}
}

// Start begins consuming recognition results. Starting an already-running
// adapter is a no-op.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := a.rec.Start(ctx); err != nil {
		cancel()
		return err
	}
	a.cancel = cancel
	a.running = true
	go a.pump(ctx)
	return nil
}

func (a *Adapter) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case h, ok := <-a.rec.Results():
			if !ok {
				return
			}
			text := strings.TrimSpace(strings.Join(h.Segments, ""))
			if h.Final && text != "" {
				a.emit(text)
			}
		}
	}
}

// Stop halts the recognizer. Stopping an idle adapter is a no-op.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	a.cancel()
	a.cancel = nil
	a.running = false
	return a.rec.Stop()
}

// Feed forwards raw audio to the recognizer while capture is active. Audio
// arriving while stopped is silently dropped; feed failures are logged and
// do not interrupt the stream.
func (a *Adapter) Feed(pcm []byte) {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()
	if !running {
		return
	}
	if err := a.rec.Feed(pcm); err != nil {
		a.logger.WithError(err).Warn("failed to feed audio to recognizer")
	}
}

func (a *Adapter) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
