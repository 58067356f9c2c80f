package capture

import (
	"context"
	"errors"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"
)

// googleRecognizer streams PCM 16kHz LE mono audio to Cloud Speech with
// interim results enabled, en-US. Responses map onto Hypothesis batches the
// same way a browser dictation event does: all current segments plus a
// final flag for the latest.
type googleRecognizer struct {
	client  *speech.Client
	logger  *logrus.Entry
	results chan Hypothesis

	mu     sync.Mutex
	stream speechpb.Speech_StreamingRecognizeClient
	cancel context.CancelFunc
}

func newGoogleRecognizer(client *speech.Client, logger *logrus.Logger) *googleRecognizer {
	return &googleRecognizer{
		client:  client,
		logger:  logger.WithField("component", "capture"),
		results: make(chan Hypothesis, 16),
	}
}

func (g *googleRecognizer) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stream != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	stream, err := g.client.StreamingRecognize(ctx)
	if err != nil {
		cancel()
		return err
	}

	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz:            16000,
					LanguageCode:               "en-US",
					EnableAutomaticPunctuation: true,
				},
				InterimResults: true,
			},
		},
	})
	if err != nil {
		cancel()
		return err
	}

	g.stream = stream
	g.cancel = cancel
	go g.recvLoop(stream)
	return nil
}

func (g *googleRecognizer) recvLoop(stream speechpb.Speech_StreamingRecognizeClient) {
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// stream is dead; the adapter stays up and a later Start
			// opens a fresh one
			g.logger.WithError(err).Warn("speech stream closed")
			return
		}
		if apiErr := resp.GetError(); apiErr != nil {
			g.logger.WithField("code", apiErr.GetCode()).Warn("speech recognition error")
			continue
		}
		if len(resp.Results) == 0 {
			continue
		}

		h := Hypothesis{}
		for _, res := range resp.Results {
			if len(res.Alternatives) > 0 {
				h.Segments = append(h.Segments, res.Alternatives[0].Transcript)
			}
		}
		h.Final = resp.Results[len(resp.Results)-1].IsFinal

		select {
		case g.results <- h:
		default:
			// consumer stalled; drop the batch rather than block ingest
		}
	}
}

func (g *googleRecognizer) Feed(pcm []byte) error {
	g.mu.Lock()
	stream := g.stream
	g.mu.Unlock()
	if stream == nil {
		return errors.New("recognizer is not started")
	}
	return stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: pcm,
		},
	})
}

func (g *googleRecognizer) Results() <-chan Hypothesis { return g.results }

func (g *googleRecognizer) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stream == nil {
		return nil
	}
	err := g.stream.CloseSend()
	g.cancel()
	g.stream = nil
	g.cancel = nil
	return err
}
