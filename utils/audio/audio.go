// Package audio provides PCM helpers: G.711 transcoding and RIFF/WAVE
// container handling for buffers moving between adapters and clients.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/zaf/g711"
)

// PCMBytesToULaw converts 16-bit little-endian PCM bytes to µ-law
func PCMBytesToULaw(pcm []byte) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, errors.New("PCM byte slice length must be even (16-bit samples)")
	}
	return g711.EncodeUlaw(pcm), nil
}

// ULawBytesToPCM converts µ-law bytes to 16-bit PCM bytes
func ULawBytesToPCM(uBytes []byte) []byte {
	return g711.DecodeUlaw(uBytes)
}

// PCMBytesToALaw converts 16-bit little-endian PCM bytes to A-law
func PCMBytesToALaw(pcm []byte) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, errors.New("PCM byte slice length must be even (16-bit samples)")
	}
	return g711.EncodeAlaw(pcm), nil
}

// ALawBytesToPCM converts A-law bytes to 16-bit PCM bytes
func ALawBytesToPCM(aBytes []byte) []byte {
	return g711.DecodeAlaw(aBytes)
}

// PCMBytesToWavBytes wraps PCM []byte into WAV []byte (16-bit little endian)
func PCMBytesToWavBytes(pcm []byte, numChannels, sampleRate int) ([]byte, error) {
	if numChannels <= 0 {
		numChannels = 1
	}
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	if len(pcm)%(2*numChannels) != 0 {
		return nil, errors.New("PCM length does not align with 16-bit frames")
	}

	const bitsPerSample = 16
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(pcm)

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16)) // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// IsWAV reports whether the buffer starts with a RIFF/WAVE header.
func IsWAV(chunk []byte) bool {
	return len(chunk) >= 12 &&
		bytes.HasPrefix(chunk, []byte("RIFF")) &&
		bytes.Equal(chunk[8:12], []byte("WAVE"))
}

// StripWAVHeaderIfPresent returns raw PCM bytes if the input starts with a
// RIFF/WAVE header. If the input is not a WAV file, it returns the input
// unchanged.
func StripWAVHeaderIfPresent(chunk []byte) ([]byte, error) {
	if !IsWAV(chunk) {
		return chunk, nil
	}

	// Walk the chunk list looking for "data".
	offset := 12
	for offset+8 <= len(chunk) {
		chunkID := chunk[offset : offset+4]
		chunkSize := int(binary.LittleEndian.Uint32(chunk[offset+4 : offset+8]))
		if bytes.Equal(chunkID, []byte("data")) {
			start := offset + 8
			if start+chunkSize > len(chunk) {
				return nil, errors.New("invalid WAV: data chunk exceeds buffer length")
			}
			return chunk[start : start+chunkSize], nil
		}
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++ // chunks are word-aligned
		}
	}
	return nil, errors.New("invalid WAV: data chunk not found")
}

// WAVSampleRate reads the sample rate from a RIFF/WAVE header, or 0 when the
// buffer is not a WAV file.
func WAVSampleRate(chunk []byte) int {
	if !IsWAV(chunk) || len(chunk) < 28 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(chunk[24:28]))
}
