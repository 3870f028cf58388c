package audiobuf

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavPCMFormat is the WAV audio-format tag for uncompressed PCM.
const wavPCMFormat = 1

// WriteWAV persists raw little-endian signed 16-bit PCM to path as a WAV
// file, preserving cfg's sample rate and channel count. pcm must be a whole
// multiple of one frame (SampleWidth * Channels bytes).
func WriteWAV(path string, pcm []byte, cfg Config) error {
	frame := cfg.SampleWidth * cfg.Channels
	if frame <= 0 {
		return fmt.Errorf("audiobuf: invalid frame size %d", frame)
	}
	if len(pcm)%frame != 0 {
		return fmt.Errorf("audiobuf: PCM byte length %d is not a multiple of the %d-byte frame", len(pcm), frame)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audiobuf: create %q: %w", path, err)
	}

	enc := wav.NewEncoder(f, cfg.SampleRate, 8*cfg.SampleWidth, cfg.Channels, wavPCMFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: cfg.Channels, SampleRate: cfg.SampleRate},
		Data:           make([]int, len(pcm)/2),
		SourceBitDepth: 16,
	}
	for i := range buf.Data {
		buf.Data[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("audiobuf: write WAV %q: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("audiobuf: finalize WAV %q: %w", path, err)
	}
	return f.Close()
}
