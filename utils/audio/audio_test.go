package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcmRamp(samples int) []byte {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(i*100-samples*50)))
	}
	return pcm
}

func TestWavWrapStripRoundTrip(t *testing.T) {
	pcm := pcmRamp(160)
	wav, err := PCMBytesToWavBytes(pcm, 1, 16000)
	require.NoError(t, err)
	require.True(t, IsWAV(wav))
	assert.Equal(t, 16000, WAVSampleRate(wav))

	stripped, err := StripWAVHeaderIfPresent(wav)
	require.NoError(t, err)
	assert.Equal(t, pcm, stripped)
}

func TestStripPassesThroughRawPCM(t *testing.T) {
	pcm := pcmRamp(8)
	out, err := StripWAVHeaderIfPresent(pcm)
	require.NoError(t, err)
	assert.Equal(t, pcm, out)
}

func TestPCMBytesToWavBytesRejectsBadInput(t *testing.T) {
	_, err := PCMBytesToWavBytes([]byte{1, 2, 3}, 1, 16000)
	assert.Error(t, err)

	_, err = PCMBytesToWavBytes(pcmRamp(4), 1, 0)
	assert.Error(t, err)
}

func TestULawRoundTripPreservesShape(t *testing.T) {
	pcm := pcmRamp(64)
	ulaw, err := PCMBytesToULaw(pcm)
	require.NoError(t, err)
	assert.Len(t, ulaw, 64)

	back := ULawBytesToPCM(ulaw)
	require.Len(t, back, len(pcm))

	// G.711 is lossy; check samples stay within quantization error.
	for i := 0; i < 64; i++ {
		orig := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		got := int16(binary.LittleEndian.Uint16(back[i*2:]))
		diff := int(orig) - int(got)
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 256, "sample %d drifted too far", i)
	}
}

func TestULawRejectsOddLength(t *testing.T) {
	_, err := PCMBytesToULaw([]byte{1, 2, 3})
	assert.Error(t, err)
}
