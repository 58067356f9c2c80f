package avatar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepview/prepview/config"
	"github.com/prepview/prepview/internal/models"
)

func testConfig() models.InterviewConfig {
	return models.InterviewConfig{
		Role:            "Backend Engineer",
		Company:         "Acme",
		InterviewType:   models.InterviewTechnical,
		DurationMinutes: 30,
		Resume:          "resume text",
		JobDescription:  "job text",
		UserID:          "user-1",
	}
}

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(config.AvatarConfig{
		APIKey:    "test-key",
		ReplicaID: "r-123",
		BaseURL:   srv.URL,
	}, logrus.New())
	return c, srv
}

func TestCreateConversation_SendsInterviewRequest(t *testing.T) {
	var mu sync.Mutex
	var createBody createRequest
	var sawAPIKey string

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/conversations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
		case http.MethodPost:
			mu.Lock()
			sawAPIKey = r.Header.Get("x-api-key")
			json.NewDecoder(r.Body).Decode(&createBody)
			mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{
				"conversation_id":  "c-1",
				"conversation_url": "https://tavus.daily.co/c-1",
				"status":           "active",
			})
		}
	})

	c, _ := newTestClient(t, mux)
	conv, err := c.CreateConversation(context.Background(), testConfig())
	require.NoError(t, err)

	assert.Equal(t, "c-1", conv.ID)
	assert.Equal(t, "https://tavus.daily.co/c-1", conv.URL)
	assert.Equal(t, "active", conv.Status)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "test-key", sawAPIKey)
	assert.Equal(t, "r-123", createBody.ReplicaID)
	assert.Equal(t, "Interview for Backend Engineer at Acme", createBody.ConversationName)
	assert.Equal(t, 30*60, createBody.Properties.MaxCallDuration)
	assert.True(t, createBody.Properties.EnableClosedCaptions)
	assert.Contains(t, createBody.CustomGreeting, "Acme")
	assert.Contains(t, createBody.ConversationalContext, "technical interview")
	assert.Contains(t, createBody.ConversationalContext, "Backend Engineer")
}

func TestCreateConversation_DefaultsStatusActive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/conversations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"conversation_id":  "c-2",
			"conversation_url": "https://tavus.daily.co/c-2",
		})
	})

	c, _ := newTestClient(t, mux)
	conv, err := c.CreateConversation(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "active", conv.Status)
}

func TestCreateConversation_ProviderErrorCarriesStatusAndBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/conversations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
			return
		}
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte("out of conversational credits"))
	})

	c, _ := newTestClient(t, mux)
	_, err := c.CreateConversation(context.Background(), testConfig())
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusPaymentRequired, pe.StatusCode)
	assert.Equal(t, "out of conversational credits", pe.Body)
}

func TestCreateConversation_MissingReplicaFailsFast(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(config.AvatarConfig{APIKey: "k", BaseURL: srv.URL}, logrus.New())
	_, err := c.CreateConversation(context.Background(), testConfig())

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.False(t, called, "no request should be made without a replica id")
}

func TestCreateConversation_EndsActiveConversationsFirst(t *testing.T) {
	var mu sync.Mutex
	deleted := map[string]bool{}
	createSeen := false

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/conversations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{
				{"conversation_id": "old-1", "status": "active"},
				{"conversation_id": "old-2", "status": "starting"},
				{"conversation_id": "old-3", "status": "ended"},
			}})
		case http.MethodPost:
			mu.Lock()
			createSeen = true
			mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"conversation_id": "c-3", "conversation_url": "u"})
		}
	})
	mux.HandleFunc("/v2/conversations/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		mu.Lock()
		deleted[r.URL.Path] = true
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	c, _ := newTestClient(t, mux)
	_, err := c.CreateConversation(context.Background(), testConfig())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, createSeen)
	assert.True(t, deleted["/v2/conversations/old-1"])
	assert.True(t, deleted["/v2/conversations/old-2"])
	assert.False(t, deleted["/v2/conversations/old-3"], "ended conversations are left alone")
}

func TestList_ReturnsEmptyOnFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	assert.Empty(t, c.List(context.Background()))
}

func TestEnd_ReturnsProviderError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such conversation"))
	}))

	err := c.End(context.Background(), "gone")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusNotFound, pe.StatusCode)
}

func TestTranscript_NilOnFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	assert.Nil(t, c.Transcript(context.Background(), "c-1"))
}

func TestTranscript_DecodesMessages(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("verbose"))
		json.NewEncoder(w).Encode(map[string]any{
			"conversation_id": "c-1",
			"transcript": []map[string]string{
				{"speaker": "agent", "text": "hello", "timestamp": "0:01"},
				{"speaker": "user", "text": "hi", "timestamp": "0:04"},
			},
		})
	}))

	msgs := c.Transcript(context.Background(), "c-1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "agent", msgs[0].Speaker)
	assert.Equal(t, "hi", msgs[1].Text)
}
