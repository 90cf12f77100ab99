package http

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/pipeline"
)

// chatMessage is one inbound websocket frame.
type chatMessage struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// chatReply is one outbound websocket frame. Exactly one of Result and Error
// is set.
type chatReply struct {
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// handleChat upgrades the connection and runs the pipeline once per inbound
// message. The session ID of the first result is reused for the rest of the
// conversation unless the client overrides it.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range s.cfg.CORSOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var sessionID string
	for {
		var msg chatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		if msg.SessionID != "" {
			sessionID = msg.SessionID
		}

		result, err := s.pipeline.Process(r.Context(), pipeline.Request{
			Text:      msg.Text,
			SessionID: sessionID,
		})
		if err != nil {
			s.logger.Error("chat query failed", "error", err)
			if err := conn.WriteJSON(chatReply{Error: sanitizeError(err)}); err != nil {
				return
			}
			continue
		}

		sessionID = result.SessionID
		s.recordTurns(result, msg.Text)

		if err := conn.WriteJSON(chatReply{Result: result}); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}
