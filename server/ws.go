package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kalchan12/echomind/core"
	"github.com/kalchan12/echomind/orchestrator"
	"github.com/kalchan12/echomind/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The assistant runs behind the UI it serves; cross-origin policy is the
	// deployment's concern.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn wraps a websocket connection with a write mutex.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msgType protocol.MessageType, payload interface{}) error {
	data, err := protocol.Marshal(msgType, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) sendError(err error) {
	_ = c.send(protocol.MsgError, protocol.ErrorPayload{Message: err.Error()})
}

// handleWebSocket runs one chat session over a websocket connection. The
// session and its memory live exactly as long as the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.With(map[string]any{"error": err}).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	id, o, err := s.session(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		s.logger.With(map[string]any{"error": err}).Error("failed to build session")
		return
	}
	defer s.dropSession(id)

	logger := s.logger.With(map[string]any{"session_id": id})
	ws := &wsConn{conn: conn}

	// Announce the session so the client learns its ID.
	if err := ws.send(protocol.MsgStatus, statusPayload(id, o)); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.With(map[string]any{"error": err}).Warn("websocket read failed")
			}
			return
		}

		msgType, raw, err := protocol.Unmarshal(data)
		if err != nil {
			ws.sendError(err)
			continue
		}

		switch msgType {
		case protocol.MsgTextInput:
			payload, err := protocol.UnmarshalPayload[protocol.TextInputPayload](raw)
			if err != nil {
				ws.sendError(err)
				continue
			}
			s.handleTextMessage(r.Context(), ws, o, payload.Text, payload.Speak)

		case protocol.MsgAudioInput:
			payload, err := protocol.UnmarshalPayload[protocol.AudioInputPayload](raw)
			if err != nil {
				ws.sendError(err)
				continue
			}
			s.handleAudioMessage(r.Context(), ws, o, payload)

		case protocol.MsgStatus:
			_ = ws.send(protocol.MsgStatus, statusPayload(id, o))

		default:
			logger.With(map[string]any{"type": string(msgType)}).Warn("unknown message type")
		}
	}
}

func (s *Server) handleTextMessage(ctx context.Context, ws *wsConn, o *orchestrator.Orchestrator, text string, speak bool) {
	reply, err := o.HandleText(ctx, text)
	if err != nil {
		ws.sendError(err)
		return
	}
	if err := ws.send(protocol.MsgResponse, protocol.ResponsePayload{Text: reply, Timestamp: time.Now()}); err != nil {
		return
	}
	if speak {
		s.sendSpokenReply(ctx, ws, o, reply)
	}
}

func (s *Server) handleAudioMessage(ctx context.Context, ws *wsConn, o *orchestrator.Orchestrator, payload protocol.AudioInputPayload) {
	raw, err := base64.StdEncoding.DecodeString(payload.Audio)
	if err != nil {
		ws.sendError(err)
		return
	}
	chunk, err := normalizeInputAudio(raw, payload.SampleRate)
	if err != nil {
		ws.sendError(err)
		return
	}

	transcript, reply, err := o.HandleVoice(ctx, chunk)
	if err != nil {
		ws.sendError(err)
		return
	}
	if err := ws.send(protocol.MsgTranscript, protocol.TranscriptPayload{Text: transcript}); err != nil {
		return
	}
	if err := ws.send(protocol.MsgResponse, protocol.ResponsePayload{Text: reply, Timestamp: time.Now()}); err != nil {
		return
	}
	if payload.Speak {
		s.sendSpokenReply(ctx, ws, o, reply)
	}
}

// sendSpokenReply synthesizes reply and ships it as a base64 audio payload.
// Synthesis failures are reported but leave the text response standing.
func (s *Server) sendSpokenReply(ctx context.Context, ws *wsConn, o *orchestrator.Orchestrator, reply string) {
	chunk, err := o.Synthesize(ctx, reply)
	if err != nil {
		ws.sendError(err)
		return
	}
	_ = ws.send(protocol.MsgAudio, protocol.AudioPayload{
		Audio:      base64.StdEncoding.EncodeToString(chunk.Data),
		SampleRate: chunk.SampleRate,
		Channels:   chunk.Channels,
		Format:     formatName(chunk.Format),
	})
}

func formatName(f core.AudioEncodingFormat) string {
	switch f {
	case core.ULAW:
		return "ulaw"
	case core.ALAW:
		return "alaw"
	case core.WAV:
		return "wav"
	case core.MP3:
		return "mp3"
	default:
		return "pcm"
	}
}
