package audiobuf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWriteWAV_RoundTrip(t *testing.T) {
	cfg := Config{ChunkDuration: 1, SampleRate: 16000, SampleWidth: 2, Channels: 1, OverlapDuration: 0}
	samples := []int16{0, 1000, -1000, 32767, -32768}
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := WriteWAV(path, int16sToPCM(samples), cfg); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := buf.Format.SampleRate; got != cfg.SampleRate {
		t.Fatalf("SampleRate = %d, want %d", got, cfg.SampleRate)
	}
	if got := buf.Format.NumChannels; got != cfg.Channels {
		t.Fatalf("NumChannels = %d, want %d", got, cfg.Channels)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("len(Data) = %d, want %d", len(buf.Data), len(samples))
	}
	for i, want := range samples {
		if int16(buf.Data[i]) != want {
			t.Fatalf("Data[%d] = %d, want %d", i, buf.Data[i], want)
		}
	}
}

func TestWriteWAV_RejectsPartialFrame(t *testing.T) {
	cfg := Config{SampleRate: 16000, SampleWidth: 2, Channels: 2}
	path := filepath.Join(t.TempDir(), "bad.wav")

	if err := WriteWAV(path, make([]byte, 6), cfg); err == nil {
		t.Fatal("expected error for PCM not aligned to a stereo frame")
	}
}
