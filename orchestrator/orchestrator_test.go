package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalchan12/echomind/core"
	"github.com/kalchan12/echomind/memory"
)

type stubLLM struct {
	reply   string
	err     error
	calls   int
	prompts []string
	history [][]core.LLMMessage
}

func (s *stubLLM) Initialize(ctx context.Context) error { return nil }
func (s *stubLLM) Cleanup() error                       { return nil }
func (s *stubLLM) Generate(ctx context.Context, prompt string, history []core.LLMMessage) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	s.history = append(s.history, history)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubSTT struct {
	text string
	err  error
}

func (s *stubSTT) Initialize(ctx context.Context) error { return nil }
func (s *stubSTT) Cleanup() error                       { return nil }
func (s *stubSTT) Transcribe(ctx context.Context, chunk core.AudioChunk) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubTTS struct {
	chunk core.AudioChunk
	err   error
	calls int
}

func (s *stubTTS) Initialize(ctx context.Context) error { return nil }
func (s *stubTTS) Cleanup() error                       { return nil }
func (s *stubTTS) Synthesize(ctx context.Context, text string) (core.AudioChunk, error) {
	s.calls++
	if s.err != nil {
		return core.AudioChunk{}, s.err
	}
	return s.chunk, nil
}

func newTestOrchestrator(llm core.LLMService, stt core.STTService, tts core.TTSService) *Orchestrator {
	mem := memory.NewConversationMemory(20)
	return New(mem, llm, stt, tts, DefaultConfig(), core.GetLogger())
}

func TestHandleTextAppendsBothTurns(t *testing.T) {
	llm := &stubLLM{reply: "OK"}
	o := newTestOrchestrator(llm, nil, nil)

	reply, err := o.HandleText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "OK", reply)

	turns := o.Memory().Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.LLMMessageRoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Text)
	assert.Equal(t, core.LLMMessageRoleAssistant, turns[1].Role)
	assert.Equal(t, "OK", turns[1].Text)
	assert.Equal(t, StateIdle, o.State())
}

func TestHandleTextPassesPriorHistoryOnly(t *testing.T) {
	llm := &stubLLM{reply: "OK"}
	o := newTestOrchestrator(llm, nil, nil)

	_, err := o.HandleText(context.Background(), "first")
	require.NoError(t, err)
	_, err = o.HandleText(context.Background(), "second")
	require.NoError(t, err)

	require.Len(t, llm.history, 2)
	assert.Empty(t, llm.history[0])
	require.Len(t, llm.history[1], 2)
	assert.Equal(t, "first", llm.history[1][0].Message)
	assert.Equal(t, "OK", llm.history[1][1].Message)
	assert.Equal(t, "second", llm.prompts[1])
}

func TestFailingGeneratorKeepsOnlyUserTurn(t *testing.T) {
	llm := &stubLLM{err: errors.New("backend down")}
	o := newTestOrchestrator(llm, nil, nil)

	_, err := o.HandleText(context.Background(), "hello")
	require.Error(t, err)

	turns := o.Memory().Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, core.LLMMessageRoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Text)
	assert.Equal(t, StateIdle, o.State())
}

func TestCommandsNeverReachGenerator(t *testing.T) {
	llm := &stubLLM{reply: "should not appear"}
	o := newTestOrchestrator(llm, nil, nil)

	// Seed some history first.
	llm.err = nil
	_, err := o.HandleText(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, 2, o.Memory().Count())

	reply, err := o.HandleText(context.Background(), "/clear")
	require.NoError(t, err)
	assert.Contains(t, reply, "cleared")
	assert.True(t, o.Memory().IsEmpty())
	assert.Equal(t, 1, llm.calls, "command must not call the generation adapter")
}

func TestCommandVariants(t *testing.T) {
	o := newTestOrchestrator(&stubLLM{}, nil, nil)

	for _, input := range []string{"/help", "help", "HELP", "  /Help  "} {
		assert.True(t, o.IsCommand(input), "expected %q to be a command", input)
	}
	assert.False(t, o.IsCommand("help me move this couch"))
	assert.False(t, o.IsCommand("what time is it?"))
}

func TestCommandsDoNotTouchMemory(t *testing.T) {
	llm := &stubLLM{}
	o := newTestOrchestrator(llm, nil, nil)

	for _, cmd := range []string{"/help", "/status", "/time", "/echo"} {
		reply, err := o.HandleText(context.Background(), cmd)
		require.NoError(t, err)
		assert.NotEmpty(t, reply)
	}
	assert.Zero(t, llm.calls)
	assert.True(t, o.Memory().IsEmpty())
}

func TestEmptyInput(t *testing.T) {
	llm := &stubLLM{}
	o := newTestOrchestrator(llm, nil, nil)

	reply, err := o.HandleText(context.Background(), "   ")
	require.NoError(t, err)
	assert.Contains(t, reply, "provide some text")
	assert.Zero(t, llm.calls)
	assert.True(t, o.Memory().IsEmpty())
}

func TestHandleVoiceRoutesTranscript(t *testing.T) {
	llm := &stubLLM{reply: "heard you"}
	stt := &stubSTT{text: "hello from voice"}
	o := newTestOrchestrator(llm, stt, nil)

	transcript, reply, err := o.HandleVoice(context.Background(), core.AudioChunk{Data: []byte{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "hello from voice", transcript)
	assert.Equal(t, "heard you", reply)

	turns := o.Memory().Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "hello from voice", turns[0].Text)
}

func TestHandleVoiceTranscriptionFailure(t *testing.T) {
	llm := &stubLLM{reply: "unreached"}
	stt := &stubSTT{err: &core.TranscriptionError{Reason: "no speech detected"}}
	o := newTestOrchestrator(llm, stt, nil)

	_, _, err := o.HandleVoice(context.Background(), core.AudioChunk{Data: []byte{1}})
	require.Error(t, err)
	var trErr *core.TranscriptionError
	assert.ErrorAs(t, err, &trErr)
	assert.Zero(t, llm.calls)
	assert.True(t, o.Memory().IsEmpty())
}

func TestHandleVoiceWithoutSTT(t *testing.T) {
	o := newTestOrchestrator(&stubLLM{}, nil, nil)
	_, _, err := o.HandleVoice(context.Background(), core.AudioChunk{Data: []byte{1}})
	var trErr *core.TranscriptionError
	require.ErrorAs(t, err, &trErr)
}

func TestSynthesize(t *testing.T) {
	tts := &stubTTS{chunk: core.AudioChunk{Data: []byte{9, 9}, SampleRate: 16000, Channels: 1}}
	o := newTestOrchestrator(&stubLLM{}, nil, tts)

	chunk, err := o.Synthesize(context.Background(), "say this")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, chunk.Data)
	assert.Equal(t, 1, tts.calls)

	o2 := newTestOrchestrator(&stubLLM{}, nil, nil)
	_, err = o2.Synthesize(context.Background(), "no tts")
	var synthErr *core.SynthesisError
	require.ErrorAs(t, err, &synthErr)
}

func TestStatsAndClear(t *testing.T) {
	llm := &stubLLM{reply: "OK"}
	o := newTestOrchestrator(llm, &stubSTT{text: "x"}, nil)

	_, err := o.HandleText(context.Background(), "one")
	require.NoError(t, err)

	stats := o.Stats()
	assert.Equal(t, 1, stats.TotalTurns)
	assert.Equal(t, 2, stats.MemoryTurns)
	assert.True(t, stats.SpeechInput)
	assert.False(t, stats.SpeechOutput)

	o.ClearConversation()
	stats = o.Stats()
	assert.Zero(t, stats.TotalTurns)
	assert.Zero(t, stats.MemoryTurns)
}

func TestExportImportThroughOrchestrator(t *testing.T) {
	llm := &stubLLM{reply: "OK"}
	o := newTestOrchestrator(llm, nil, nil)
	_, err := o.HandleText(context.Background(), "hello")
	require.NoError(t, err)

	data, err := o.Export()
	require.NoError(t, err)

	other := newTestOrchestrator(&stubLLM{}, nil, nil)
	require.NoError(t, other.Import(data))
	assert.Equal(t, o.Memory().Turns(), other.Memory().Turns())

	var formatErr *memory.FormatError
	err = other.Import([]byte("{broken"))
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, 2, other.Memory().Count())
}
