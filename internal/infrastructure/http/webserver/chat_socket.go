package webserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/ports/inbound"
)

const (
	FrameThinking = "thinking"
	FrameReply    = "reply"

	socketWriteWait = 10 * time.Second
)

// ChatRequestFrame is sent by the browser for every message
type ChatRequestFrame struct {
	Message string `json:"message"`
}

// ChatFrame is pushed to the browser: a thinking marker, then the reply
// together with the whole transcript
type ChatFrame struct {
	Type     string                `json:"type"`
	Text     string                `json:"text,omitempty"`
	Messages []inbound.ChatMessage `json:"messages,omitempty"`
}

// handleChatSocket runs one chat connection. Turns are handled one at a
// time in the read loop, so the transcript order matches the send order.
func (s *WebServer) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	if sess == nil {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := s.logger.With(zap.String("session", sess.ID))
	logger.Debug("Chat socket connected")

	for {
		var req ChatRequestFrame
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Chat socket read failed", zap.Error(err))
			}
			return
		}

		if err := s.writeFrame(conn, ChatFrame{Type: FrameThinking}); err != nil {
			return
		}

		transcript, err := s.chat.Send(r.Context(), sess.ID, req.Message)
		frame := ChatFrame{Type: FrameReply, Messages: transcript.Messages}
		if n := len(transcript.Messages); n > 0 {
			frame.Text = transcript.Messages[n-1].Text
		}
		if err != nil {
			// the transcript already ends with the error reply
			logger.Warn("Chat turn failed", zap.Error(err))
		}

		if err := s.writeFrame(conn, frame); err != nil {
			logger.Debug("Chat socket write failed", zap.Error(err))
			return
		}
	}
}

func (s *WebServer) writeFrame(conn *websocket.Conn, frame ChatFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return conn.WriteJSON(frame)
}
