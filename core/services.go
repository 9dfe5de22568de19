package core

import "context"

// STTService wraps an external transcription engine. Implementations treat
// the engine as an opaque function from audio to text.
type STTService interface {
	Initialize(ctx context.Context) error
	// Transcribe converts an audio buffer to text. Unintelligible or empty
	// audio fails with a *TranscriptionError.
	Transcribe(ctx context.Context, audio AudioChunk) (string, error)
	Cleanup() error
}

// TTSService wraps an external synthesis engine.
type TTSService interface {
	Initialize(ctx context.Context) error
	// Synthesize converts text to an audio buffer. Invalid voice configuration
	// fails with a *SynthesisError.
	Synthesize(ctx context.Context, text string) (AudioChunk, error)
	Cleanup() error
}

// LLMService wraps an external text-generation backend, local or remote.
type LLMService interface {
	Initialize(ctx context.Context) error
	// Generate produces a response for prompt given the prior conversation
	// history. Backend failures surface as a *GenerationError.
	Generate(ctx context.Context, prompt string, history []LLMMessage) (string, error)
	Cleanup() error
}
