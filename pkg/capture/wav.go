package capture

import "encoding/binary"

// Default PCM capture format: 16 kHz, 16-bit, mono.
const (
	DefaultSampleRate    = 16000
	DefaultBitsPerSample = 16
	DefaultChannels      = 1
)

// PCMToWAV wraps little-endian PCM samples in a 44-byte WAV header.
func PCMToWAV(pcm []byte, sampleRate, bitsPerSample, channels int) []byte {
	dataLen := len(pcm)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	header := make([]byte, 44, 44+dataLen)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	return append(header, pcm...)
}

// WAVEncoding describes 16-bit PCM chunks finalized into a WAV file.
func WAVEncoding(sampleRate, channels int) Encoding {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	return Encoding{
		MIMEType:   "audio/wav",
		FileName:   "recording.wav",
		SampleRate: sampleRate,
		Channels:   channels,
		Wrap: func(data []byte) []byte {
			return PCMToWAV(data, sampleRate, DefaultBitsPerSample, channels)
		},
	}
}

// WebMEncoding describes a stream that already produces a WebM/Opus file.
func WebMEncoding(sampleRate int) Encoding {
	return Encoding{
		MIMEType:   "audio/webm",
		FileName:   "recording.webm",
		SampleRate: sampleRate,
		Channels:   DefaultChannels,
	}
}
