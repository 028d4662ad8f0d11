// Package audio converts raw PCM buffers into WAV files for host playback
// and storage.
package audio

import (
	"encoding/binary"

	"mlbridge/pkg/status"
)

// HeaderSize is the fixed RIFF/fmt/data header length in bytes.
const HeaderSize = 44

const (
	formatPCM       = 1
	formatIEEEFloat = 3
)

// Float32ToWAV wraps little-endian float32 PCM bytes in a mono WAV
// container. len(pcm) must be a multiple of 4.
func Float32ToWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 || len(pcm)%4 != 0 {
		return nil, status.InvalidArgument
	}
	return wrap(pcm, sampleRate, 32, formatIEEEFloat), nil
}

// Int16ToWAV wraps little-endian int16 PCM bytes in a mono WAV container.
// len(pcm) must be a multiple of 2.
func Int16ToWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 || len(pcm)%2 != 0 {
		return nil, status.InvalidArgument
	}
	return wrap(pcm, sampleRate, 16, formatPCM), nil
}

func wrap(pcm []byte, sampleRate, bitDepth, format int) []byte {
	const channels = 1
	bytesPerSample := bitDepth / 8
	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	out := make([]byte, HeaderSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], uint16(format))
	binary.LittleEndian.PutUint16(out[22:24], channels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bitDepth))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[HeaderSize:], pcm)
	return out
}
