package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	data, err := Marshal(MsgTextInput, TextInputPayload{Text: "hello", Speak: true})
	require.NoError(t, err)

	msgType, raw, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, MsgTextInput, msgType)

	payload, err := UnmarshalPayload[TextInputPayload](raw)
	require.NoError(t, err)
	assert.Equal(t, "hello", payload.Text)
	assert.True(t, payload.Speak)
}

func TestMarshalNilPayload(t *testing.T) {
	data, err := Marshal(MsgStatus, nil)
	require.NoError(t, err)

	msgType, raw, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, MsgStatus, msgType)
	assert.Empty(t, raw)
}

func TestUnmarshalRejectsMissingType(t *testing.T) {
	_, _, err := Unmarshal([]byte(`{"payload":{}}`))
	assert.Error(t, err)

	_, _, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}
