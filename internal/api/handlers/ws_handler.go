package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prepview/prepview/internal/services"
	"github.com/prepview/prepview/internal/utils"
)

// WSHandler attaches a websocket to a live interview session: inbound
// messages carry microphone audio and control actions, outbound messages
// mirror the session's state, transcript, and status events from redis
// pub/sub so every attached socket sees the same stream.
type WSHandler struct {
	interviews services.InterviewService
	events     *services.SessionEvents
	upgrader   websocket.Upgrader
}

func NewWSHandler(interviews services.InterviewService, events *services.SessionEvents) *WSHandler {
	return &WSHandler{
		interviews: interviews,
		events:     events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type        string `json:"type"` // audio_chunk|toggle_recording|toggle_video|end_session
	AudioBase64 string `json:"audio_base64"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) SessionWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.SessionWS", "missing session_id", nil))
		return
	}

	// authorize before upgrading
	if _, err := h.interviews.State(c.Request.Context(), userID, sessionID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.events.Subscribe(ctx, sessionID)
	defer pubsub.Close()

	// reader: WS -> session operations
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}

			switch msg.Type {
			case "audio_chunk":
				raw := msg.AudioBase64
				if raw == "" {
					_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"audio_base64 required"}`))
					continue
				}
				if i := strings.Index(raw, ","); i >= 0 {
					raw = raw[i+1:] // strip data:...;base64,
				}
				pcm, derr := base64.StdEncoding.DecodeString(raw)
				if derr != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid audio_base64"}`))
					continue
				}
				if err := h.interviews.Feed(userID, sessionID, pcm); err != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"NOT_FOUND","message":"session not active"}`))
					continue
				}

			case "toggle_recording":
				if _, err := h.interviews.ToggleRecording(ctx, userID, sessionID); err != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"NOT_FOUND","message":"session not active"}`))
				}

			case "toggle_video":
				if _, err := h.interviews.ToggleVideo(ctx, userID, sessionID); err != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"NOT_FOUND","message":"session not active"}`))
				}

			case "end_session":
				_, _ = h.interviews.End(ctx, userID, sessionID)
				return

			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			// forward as-is (publishers emit JSON)
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}
