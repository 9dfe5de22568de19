package core

type AudioEncodingFormat int

const (
	PCM  AudioEncodingFormat = iota // Pulse-code modulation, 16-bit little endian.
	ULAW                            // µ-law encoding format.
	ALAW                            // A-law encoding format.
	WAV                             // PCM wrapped in a RIFF/WAVE container.
	MP3                             // MPEG-1 Audio Layer III format.
)

// AudioChunk is a self-describing buffer of audio samples.
type AudioChunk struct {
	Data       []byte              // Raw audio data.
	SampleRate int                 // Sample rate of the audio data.
	Channels   int                 // Number of audio channels.
	Format     AudioEncodingFormat // Encoding format of the audio data.
}

func (ac *AudioChunk) GetDurationInSeconds() float64 {
	if ac.SampleRate == 0 || ac.Channels == 0 || ac.Format != PCM {
		return 0.0
	}
	bytesPerSample := 2 // 16-bit audio
	totalSamples := len(ac.Data) / (bytesPerSample * ac.Channels)
	return float64(totalSamples) / float64(ac.SampleRate)
}
