package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalchan12/echomind/core"
)

func TestAppendEvictsOldestBeyondCapacity(t *testing.T) {
	mem := NewConversationMemory(5)
	for i := 0; i < 12; i++ {
		mem.Append(NewTurn(core.LLMMessageRoleUser, fmt.Sprintf("message %d", i)))
	}

	turns := mem.Turns()
	require.Len(t, turns, 5)
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("message %d", i+7), turn.Text)
	}
}

func TestAppendDropsBlankTurns(t *testing.T) {
	mem := NewConversationMemory(5)
	mem.Append(NewTurn(core.LLMMessageRoleUser, "   "))
	mem.Append(NewTurn(core.LLMMessageRoleUser, ""))
	assert.True(t, mem.IsEmpty())
}

func TestPromptContextReturnsMostRecent(t *testing.T) {
	mem := NewConversationMemory(10)
	for i := 0; i < 6; i++ {
		mem.Append(NewTurn(core.LLMMessageRoleUser, fmt.Sprintf("u%d", i)))
		mem.Append(NewTurn(core.LLMMessageRoleAssistant, fmt.Sprintf("a%d", i)))
	}

	msgs := mem.PromptContext(4)
	require.Len(t, msgs, 4)
	assert.Equal(t, "u4", msgs[0].Message)
	assert.Equal(t, core.LLMMessageRoleUser, msgs[0].Role)
	assert.Equal(t, "a4", msgs[1].Message)
	assert.Equal(t, "u5", msgs[2].Message)
	assert.Equal(t, "a5", msgs[3].Message)

	all := mem.PromptContext(0)
	assert.Len(t, all, 10) // capped by window size
}

func TestClear(t *testing.T) {
	mem := NewConversationMemory(10)
	mem.Append(NewTurn(core.LLMMessageRoleUser, "hello"))
	require.Equal(t, 1, mem.Count())
	mem.Clear()
	assert.True(t, mem.IsEmpty())
}

func TestExportImportRoundTrip(t *testing.T) {
	mem := NewConversationMemory(10)
	mem.Append(NewTurn(core.LLMMessageRoleUser, "hello"))
	mem.Append(NewTurn(core.LLMMessageRoleAssistant, "hi there"))
	mem.Append(NewTurn(core.LLMMessageRoleUser, "how are you?"))

	data, err := mem.Export()
	require.NoError(t, err)

	restored := NewConversationMemory(3)
	require.NoError(t, restored.Import(data))

	assert.Equal(t, 10, restored.MaxTurns())
	assert.Equal(t, mem.Turns(), restored.Turns())
	assert.Equal(t, mem.CreatedAt().Unix(), restored.CreatedAt().Unix())
}

func TestImportMalformedLeavesMemoryUntouched(t *testing.T) {
	mem := NewConversationMemory(10)
	mem.Append(NewTurn(core.LLMMessageRoleUser, "keep me"))

	cases := map[string][]byte{
		"not json":     []byte("{nope"),
		"unknown role": []byte(`{"max_turns":5,"turns":[{"role":"narrator","text":"hi"}]}`),
		"empty text":   []byte(`{"max_turns":5,"turns":[{"role":"user","text":"  "}]}`),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			err := mem.Import(data)
			require.Error(t, err)
			var formatErr *FormatError
			assert.ErrorAs(t, err, &formatErr)

			turns := mem.Turns()
			require.Len(t, turns, 1)
			assert.Equal(t, "keep me", turns[0].Text)
		})
	}
}

func TestImportTruncatesOversizedSnapshot(t *testing.T) {
	source := NewConversationMemory(20)
	for i := 0; i < 8; i++ {
		source.Append(NewTurn(core.LLMMessageRoleUser, fmt.Sprintf("m%d", i)))
	}
	data, err := source.Export()
	require.NoError(t, err)

	// Corrupt max_turns down so the snapshot holds more turns than the window.
	mem := NewConversationMemory(4)
	small := []byte(`{"max_turns":3,` + string(data[len(`{"max_turns":20,`):]))
	require.NoError(t, mem.Import(small))
	turns := mem.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "m5", turns[0].Text)
}
