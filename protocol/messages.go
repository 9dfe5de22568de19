package protocol

import (
	"encoding/json"
	"time"
)

// MessageType enumerates all chat channel message types.
type MessageType string

const (
	// Client -> server
	MsgTextInput  MessageType = "text_input"
	MsgAudioInput MessageType = "audio_input"

	// Server -> client
	MsgTranscript MessageType = "transcript"
	MsgResponse   MessageType = "response"
	MsgAudio      MessageType = "audio"
	MsgStatus     MessageType = "status"
	MsgError      MessageType = "error"
)

// Envelope is the outer JSON wrapper for all WebSocket messages.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Client -> server payloads ---

// TextInputPayload carries one user utterance. Speak requests that the
// response also be synthesized.
type TextInputPayload struct {
	Text  string `json:"text"`
	Speak bool   `json:"speak,omitempty"`
}

// AudioInputPayload carries one recorded utterance, base64-encoded WAV or
// raw 16-bit PCM.
type AudioInputPayload struct {
	Audio      string `json:"audio"`
	SampleRate int    `json:"sample_rate,omitempty"` // Required for raw PCM.
	Speak      bool   `json:"speak,omitempty"`
}

// --- Server -> client payloads ---

// TranscriptPayload echoes back what the STT engine heard.
type TranscriptPayload struct {
	Text string `json:"text"`
}

// ResponsePayload carries the assistant's reply text.
type ResponsePayload struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// AudioPayload carries synthesized speech, base64-encoded.
type AudioPayload struct {
	Audio      string `json:"audio"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Format     string `json:"format"` // "pcm", "wav", "ulaw", "mp3"
}

// StatusPayload reports session-level counters.
type StatusPayload struct {
	SessionID         string    `json:"session_id"`
	State             string    `json:"state"`
	TotalTurns        int       `json:"total_turns"`
	MemoryTurns       int       `json:"memory_turns"`
	MemoryMaxTurns    int       `json:"memory_max_turns"`
	ConversationStart time.Time `json:"conversation_start"`
	SpeechInput       bool      `json:"speech_input"`
	SpeechOutput      bool      `json:"speech_output"`
}

// ErrorPayload reports a failed request. The session stays usable.
type ErrorPayload struct {
	Message string `json:"message"`
}
