package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalchan12/echomind/core"
)

func TestGenerateEchoesPrompt(t *testing.T) {
	svc := NewEchoLLMService(DefaultConfig())
	require.NoError(t, svc.Initialize(context.Background()))

	reply, err := svc.Generate(context.Background(), "hello there friend", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, `You said: "hello there friend"`)
	assert.NotContains(t, reply, "previous conversation")
}

func TestGenerateMentionsContextWithHistory(t *testing.T) {
	svc := NewEchoLLMService(DefaultConfig())
	history := []core.LLMMessage{{Role: core.LLMMessageRoleUser, Message: "earlier"}}

	reply, err := svc.Generate(context.Background(), "and now this", history)
	require.NoError(t, err)
	assert.Contains(t, reply, "previous conversation")
}

func TestGenerateEmptyPrompt(t *testing.T) {
	svc := NewEchoLLMService(Config{AssistantName: "Echo"})
	reply, err := svc.Generate(context.Background(), "   ", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "Echo")
}

func TestGenerateLengthRemarks(t *testing.T) {
	svc := NewEchoLLMService(DefaultConfig())

	short, err := svc.Generate(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Contains(t, short, "Short and sweet!")

	long, err := svc.Generate(context.Background(),
		"this is a rather long message that certainly exceeds the fifty character threshold", nil)
	require.NoError(t, err)
	assert.Contains(t, long, "detailed message")
}
