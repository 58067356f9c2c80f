package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/interview"
	"github.com/prepview/prepview/internal/transcript"
)

// ArchiveStream is the redis stream ended-session transcripts are queued on
// for the archive worker pool.
const ArchiveStream = "transcript:archive"

// SessionEvents fans live session updates out over redis pub/sub so every
// websocket attached to a session sees the same stream, and enqueues ended
// transcripts for archival. Publishing is best-effort: a redis hiccup must
// never fail the session operation that triggered it.
type SessionEvents struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

func NewSessionEvents(rdb *redis.Client, logger *logrus.Logger) *SessionEvents {
	return &SessionEvents{rdb: rdb, logger: logger}
}

func (e *SessionEvents) stateChannel(sessionID string) string {
	return "interview:" + sessionID + ":state"
}

func (e *SessionEvents) transcriptChannel(sessionID string) string {
	return "interview:" + sessionID + ":transcript"
}

func (e *SessionEvents) statusChannel(sessionID string) string {
	return "interview:" + sessionID + ":status"
}

// Subscribe returns a pub/sub subscription covering all three channels of a
// session. Callers own the subscription and must Close it.
func (e *SessionEvents) Subscribe(ctx context.Context, sessionID string) *redis.PubSub {
	return e.rdb.Subscribe(ctx,
		e.stateChannel(sessionID),
		e.transcriptChannel(sessionID),
		e.statusChannel(sessionID),
	)
}

func (e *SessionEvents) publish(ctx context.Context, channel string, payload any) {
	if e == nil || e.rdb == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := e.rdb.Publish(ctx, channel, string(b)).Err(); err != nil {
		e.logger.WithError(err).WithField("channel", channel).Warn("failed to publish session event")
	}
}

func (e *SessionEvents) PublishState(ctx context.Context, sessionID string, st interview.State) {
	e.publish(ctx, e.stateChannel(sessionID), map[string]any{
		"type":  "state",
		"state": st,
	})
}

func (e *SessionEvents) PublishTranscript(ctx context.Context, sessionID string, entry transcript.Entry) {
	e.publish(ctx, e.transcriptChannel(sessionID), map[string]any{
		"type":  "transcript",
		"entry": entry,
	})
}

func (e *SessionEvents) PublishStatus(ctx context.Context, sessionID, status, message string) {
	e.publish(ctx, e.statusChannel(sessionID), map[string]any{
		"type":    "status",
		"status":  status,
		"message": message,
	})
}

// EnqueueArchive puts an ended session's transcript on the archive stream.
// Unlike publishing, a failure here matters: the caller logs it, but the
// entries were already frozen so nothing is lost from the live path.
func (e *SessionEvents) EnqueueArchive(ctx context.Context, userID, sessionID string, entries []transcript.Entry) error {
	if e == nil || e.rdb == nil {
		return nil
	}
	if len(entries) == 0 {
		return nil
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return e.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: ArchiveStream,
		Values: map[string]any{
			"user_id":    userID,
			"session_id": sessionID,
			"entries":    string(b),
		},
	}).Err()
}
