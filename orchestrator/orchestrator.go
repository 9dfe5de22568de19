// Package orchestrator sequences the assistant's adapters: transcribe,
// generate, synthesize. It is a thin coordination layer over the conversation
// memory; there is no scheduling or retry machinery.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kalchan12/echomind/core"
	"github.com/kalchan12/echomind/memory"
	"github.com/kalchan12/echomind/store"
)

// State is the orchestrator's position in the text or voice path.
type State string

const (
	StateIdle         State = "idle"
	StateTranscribing State = "transcribing"
	StateGenerating   State = "generating"
	StateSynthesizing State = "synthesizing"
)

// Config controls orchestration behaviour.
type Config struct {
	// ContextTurns caps how many recent turns are handed to the generation
	// backend. Zero means the whole memory window.
	ContextTurns int `json:"context_turns"`
}

// DefaultConfig returns orchestration defaults.
func DefaultConfig() Config {
	return Config{ContextTurns: 6}
}

// Stats reports conversation counters for the status surface.
type Stats struct {
	TotalTurns        int       `json:"total_turns"`
	MemoryTurns       int       `json:"memory_turns"`
	MemoryMaxTurns    int       `json:"memory_max_turns"`
	ConversationStart time.Time `json:"conversation_start"`
	SpeechInput       bool      `json:"speech_input"`
	SpeechOutput      bool      `json:"speech_output"`
	State             State     `json:"state"`
}

// Orchestrator wires memory and adapters into the request/response flow.
// STT and TTS are optional; without them the assistant is text-only.
type Orchestrator struct {
	config Config
	logger *core.Logger

	memory    *memory.ConversationMemory
	llm       core.LLMService
	stt       core.STTService
	tts       core.TTSService
	snapshots store.Store

	// mu serializes orchestrations so at most one is in flight per session.
	mu sync.Mutex

	stateMu sync.RWMutex
	state   State

	statsMu           sync.Mutex
	totalTurns        int
	conversationStart time.Time
}

// New creates an orchestrator. llm and mem are required; stt, tts, and
// snapshots may be nil.
func New(mem *memory.ConversationMemory, llm core.LLMService, stt core.STTService, tts core.TTSService, config Config, logger *core.Logger) *Orchestrator {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Orchestrator{
		config:            config,
		logger:            logger,
		memory:            mem,
		llm:               llm,
		stt:               stt,
		tts:               tts,
		state:             StateIdle,
		conversationStart: time.Now(),
	}
}

// WithSnapshotStore attaches a snapshot store used by SaveConversation and
// LoadConversation.
func (o *Orchestrator) WithSnapshotStore(s store.Store) *Orchestrator {
	o.snapshots = s
	return o
}

// Memory exposes the conversation memory.
func (o *Orchestrator) Memory() *memory.ConversationMemory { return o.memory }

// State returns the current orchestration state.
func (o *Orchestrator) State() State {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.stateMu.Lock()
	o.state = s
	o.stateMu.Unlock()
}

// HandleText processes one user utterance. Commands are handled locally and
// never reach the generation backend; everything else is appended as a user
// turn, answered through the generation adapter, and the answer appended as
// an assistant turn. On generation failure the user turn stays and nothing
// else changes.
func (o *Orchestrator) HandleText(ctx context.Context, userText string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	text := strings.TrimSpace(userText)
	if text == "" {
		return "Please provide some text to process.", nil
	}

	if o.IsCommand(text) {
		return o.runCommand(text), nil
	}

	o.setState(StateGenerating)
	defer o.setState(StateIdle)

	// History is the prior conversation only; the new input travels as the
	// prompt so the backend never sees it twice.
	history := o.memory.PromptContext(o.config.ContextTurns)
	o.memory.Append(memory.NewTurn(core.LLMMessageRoleUser, text))

	reply, err := o.llm.Generate(ctx, text, history)
	if err != nil {
		o.logger.With(map[string]any{"error": err}).Error("generation failed")
		return "", err
	}

	o.memory.Append(memory.NewTurn(core.LLMMessageRoleAssistant, reply))
	o.statsMu.Lock()
	o.totalTurns++
	o.statsMu.Unlock()

	o.logger.With(map[string]any{"in_chars": len(text), "out_chars": len(reply)}).Debug("turn processed")
	return reply, nil
}

// HandleVoice transcribes the audio buffer and routes the transcript through
// HandleText. It returns the transcript alongside the reply so callers can
// show what was heard.
func (o *Orchestrator) HandleVoice(ctx context.Context, chunk core.AudioChunk) (transcript string, reply string, err error) {
	if o.stt == nil {
		return "", "", &core.TranscriptionError{Reason: "speech input is not configured"}
	}

	o.setState(StateTranscribing)
	transcript, err = o.stt.Transcribe(ctx, chunk)
	o.setState(StateIdle)
	if err != nil {
		o.logger.With(map[string]any{"error": err}).Error("transcription failed")
		return "", "", err
	}

	reply, err = o.HandleText(ctx, transcript)
	return transcript, reply, err
}

// Synthesize converts a response to playable audio.
func (o *Orchestrator) Synthesize(ctx context.Context, text string) (core.AudioChunk, error) {
	if o.tts == nil {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "speech output is not configured"}
	}

	o.setState(StateSynthesizing)
	defer o.setState(StateIdle)

	chunk, err := o.tts.Synthesize(ctx, text)
	if err != nil {
		o.logger.With(map[string]any{"error": err}).Error("synthesis failed")
		return core.AudioChunk{}, err
	}
	return chunk, nil
}

// Stats returns conversation counters.
func (o *Orchestrator) Stats() Stats {
	o.statsMu.Lock()
	totalTurns := o.totalTurns
	start := o.conversationStart
	o.statsMu.Unlock()

	return Stats{
		TotalTurns:        totalTurns,
		MemoryTurns:       o.memory.Count(),
		MemoryMaxTurns:    o.memory.MaxTurns(),
		ConversationStart: start,
		SpeechInput:       o.stt != nil,
		SpeechOutput:      o.tts != nil,
		State:             o.State(),
	}
}

// ClearConversation empties memory and resets counters.
func (o *Orchestrator) ClearConversation() string {
	o.memory.Clear()
	o.statsMu.Lock()
	o.totalTurns = 0
	o.conversationStart = time.Now()
	o.statsMu.Unlock()
	o.logger.Info("conversation cleared")
	return "Conversation history cleared. Starting fresh!"
}

// Export serializes the conversation to its portable form.
func (o *Orchestrator) Export() ([]byte, error) {
	return o.memory.Export()
}

// Import replaces the conversation from a snapshot. Malformed input fails
// with *memory.FormatError and leaves the conversation untouched.
func (o *Orchestrator) Import(data []byte) error {
	return o.memory.Import(data)
}

// SaveConversation writes the current conversation snapshot under key.
func (o *Orchestrator) SaveConversation(ctx context.Context, key string) error {
	if o.snapshots == nil {
		return store.ErrNoStore
	}
	data, err := o.memory.Export()
	if err != nil {
		return err
	}
	return o.snapshots.Save(ctx, key, data)
}

// LoadConversation replaces the conversation with the snapshot stored under
// key.
func (o *Orchestrator) LoadConversation(ctx context.Context, key string) error {
	if o.snapshots == nil {
		return store.ErrNoStore
	}
	data, err := o.snapshots.Load(ctx, key)
	if err != nil {
		return err
	}
	return o.memory.Import(data)
}

// Cleanup releases all attached services.
func (o *Orchestrator) Cleanup() {
	if o.stt != nil {
		if err := o.stt.Cleanup(); err != nil {
			o.logger.With(map[string]any{"error": err}).Warn("stt cleanup failed")
		}
	}
	if o.tts != nil {
		if err := o.tts.Cleanup(); err != nil {
			o.logger.With(map[string]any{"error": err}).Warn("tts cleanup failed")
		}
	}
	if err := o.llm.Cleanup(); err != nil {
		o.logger.With(map[string]any{"error": err}).Warn("llm cleanup failed")
	}
}
