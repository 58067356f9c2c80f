package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/models"
	pgrepo "github.com/prepview/prepview/internal/repositories/postgres"
	"github.com/prepview/prepview/internal/services"
	"github.com/prepview/prepview/internal/transcript"
)

// ArchiverPool drains the transcript archive stream and bulk-inserts the
// entries of ended sessions into Postgres. Archival runs off the request
// path; ending a session only enqueues.
type ArchiverPool struct {
	Redis       *redis.Client
	Transcripts pgrepo.TranscriptRepo
	NumWorkers  int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *ArchiverPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Transcripts == nil {
		return errors.New("ArchiverPool missing dependency: Redis/Transcripts must be set")
	}
	if p.Stream == "" {
		p.Stream = services.ArchiveStream
	}
	if p.Group == "" {
		p.Group = "archive-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "a"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *ArchiverPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *ArchiverPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	userID := getStr("user_id")
	sessionID := getStr("session_id")
	raw := getStr("entries")
	if userID == "" || sessionID == "" || raw == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
	})

	var entries []transcript.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.WithError(err).Warn("malformed archive payload, dropping")
		return
	}
	if len(entries) == 0 {
		return
	}

	rows := make([]models.TranscriptRecord, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.TranscriptRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			SessionID: sessionID,
			Speaker:   string(e.Speaker),
			Content:   e.Content,
			Timestamp: time.UnixMilli(e.TimestampMillis).UTC(),
		})
	}

	if err := p.Transcripts.InsertBatch(ctx, rows); err != nil {
		log.WithError(err).Error("failed to archive transcript batch")
		return
	}
	log.WithField("entries", len(rows)).Info("archived session transcript")
}
