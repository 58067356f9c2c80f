// Package avatar is the client for the Tavus conversational-avatar API. One
// conversation is one instantiated, time-bounded video interaction with the
// remote interviewer persona, identified by a provider-issued id and URL.
package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/config"
	"github.com/prepview/prepview/internal/models"
)

const defaultBaseURL = "https://tavusapi.com"

type Conversation struct {
	ID     string `json:"conversation_id"`
	URL    string `json:"conversation_url"`
	Status string `json:"status"`
}

type ConversationDetails struct {
	ID     string `json:"conversation_id"`
	Status string `json:"status"` // active|starting|ended|error
}

type TranscriptMessage struct {
	Speaker   string `json:"speaker"` // agent|user
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type createRequest struct {
	ReplicaID             string           `json:"replica_id"`
	ConversationName      string           `json:"conversation_name"`
	CustomGreeting        string           `json:"custom_greeting"`
	ConversationalContext string           `json:"conversational_context"`
	Properties            createProperties `json:"properties"`
}

type createProperties struct {
	MaxCallDuration      int  `json:"max_call_duration"` // seconds
	EnableClosedCaptions bool `json:"enable_closed_captions"`
}

type Client struct {
	apiKey    string
	replicaID string
	baseURL   string
	httpc     *http.Client
	logger    *logrus.Entry
}

func NewClient(cfg config.AvatarConfig, logger *logrus.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		apiKey:    cfg.APIKey,
		replicaID: cfg.ReplicaID,
		baseURL:   base,
		httpc:     &http.Client{Timeout: 30 * time.Second},
		logger:    logger.WithField("component", "avatar"),
	}
}

// Configured reports whether an API key is present. When false, all sessions
// run against the local mock conversation instead of the provider.
func (c *Client) Configured() bool { return c.apiKey != "" }

func (c *Client) replicaForInterview() (string, error) {
	if c.replicaID == "" {
		return "", &ConfigurationError{Missing: "TAVUS_REPLICA_ID"}
	}
	return c.replicaID, nil
}

// do performs one authenticated request and returns the raw JSON body, or
// nil for empty/204 responses. Non-2xx responses become a ProviderError.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// CreateConversation starts a new avatar conversation primed with the
// interview context. Any conversations still active under this credential
// are best-effort ended first; one playable session per credential is a
// courtesy policy at this layer, not something the provider enforces.
func (c *Client) CreateConversation(ctx context.Context, cfg models.InterviewConfig) (*Conversation, error) {
	replica, err := c.replicaForInterview()
	if err != nil {
		return nil, err
	}

	c.EndAllActive(ctx)

	req := createRequest{
		ReplicaID:             replica,
		ConversationName:      fmt.Sprintf("Interview for %s at %s", cfg.Role, cfg.Company),
		CustomGreeting:        Greeting(cfg),
		ConversationalContext: InterviewContext(cfg),
		Properties: createProperties{
			MaxCallDuration:      cfg.DurationMinutes * 60,
			EnableClosedCaptions: true,
		},
	}

	raw, err := c.do(ctx, http.MethodPost, "/v2/conversations", req)
	if err != nil {
		return nil, err
	}

	var conv Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	if conv.Status == "" {
		conv.Status = "active"
	}
	return &conv, nil
}

// List returns all conversations visible to the credential. Failures are
// logged and reported as an empty list; callers never see an error here.
func (c *Client) List(ctx context.Context) []ConversationDetails {
	raw, err := c.do(ctx, http.MethodGet, "/v2/conversations", nil)
	if err != nil {
		c.logger.WithError(err).Warn("failed to list conversations")
		return nil
	}

	var payload struct {
		Data []ConversationDetails `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.WithError(err).Warn("failed to decode conversation list")
		return nil
	}
	return payload.Data
}

// End deletes a conversation. The error is logged and also returned; whether
// it matters is the caller's call (session teardown ignores it).
func (c *Client) End(ctx context.Context, conversationID string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/v2/conversations/"+conversationID, nil); err != nil {
		c.logger.WithError(err).WithField("conversation_id", conversationID).Error("failed to end conversation")
		return err
	}
	return nil
}

// EndAllActive ends every active or starting conversation concurrently.
// Per-conversation failures are swallowed; this never returns an error.
func (c *Client) EndAllActive(ctx context.Context) {
	var wg sync.WaitGroup
	for _, conv := range c.List(ctx) {
		if conv.Status != "active" && conv.Status != "starting" {
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := c.End(ctx, id); err != nil {
				c.logger.WithError(err).WithField("conversation_id", id).Warn("failed to end stale conversation")
			}
		}(conv.ID)
	}
	wg.Wait()
}

// Transcript fetches the provider-side transcript when available. Returns
// nil on any failure; the in-memory log is the source of truth anyway.
func (c *Client) Transcript(ctx context.Context, conversationID string) []TranscriptMessage {
	raw, err := c.do(ctx, http.MethodGet, "/v2/conversations/"+conversationID+"?verbose=true", nil)
	if err != nil {
		c.logger.WithError(err).Warn("could not fetch conversation transcript")
		return nil
	}

	var payload struct {
		Transcript []TranscriptMessage `json:"transcript"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.WithError(err).Warn("failed to decode conversation transcript")
		return nil
	}
	return payload.Transcript
}
