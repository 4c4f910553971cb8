package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// Clip is decoded PCM audio with interleaved float32 samples in [-1, 1].
type Clip struct {
	Samples    []float32
	SampleRate int
	Channels   int
	BitDepth   int
}

// Frames is the number of sample frames (samples per channel).
func (c Clip) Frames() int {
	if c.Channels < 1 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration is the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate < 1 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// DecodeWAV decodes a PCM WAV stream of any rate and channel count.
func DecodeWAV(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, errors.New("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return clipFromBuffer(buf, int(dec.BitDepth))
}

// DecodeWAVFile opens and decodes the WAV file at path.
func DecodeWAVFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	clip, err := DecodeWAV(f)
	if err != nil {
		return Clip{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return clip, nil
}

func clipFromBuffer(buf *goaudio.Float32Buffer, bitDepth int) (Clip, error) {
	if buf == nil || buf.Format == nil {
		return Clip{}, errors.New("decoder returned no format")
	}
	if buf.Format.NumChannels < 1 {
		return Clip{}, fmt.Errorf("invalid channel count %d", buf.Format.NumChannels)
	}
	if buf.Format.SampleRate < 1 {
		return Clip{}, fmt.Errorf("invalid sample rate %d", buf.Format.SampleRate)
	}
	return Clip{
		Samples:    buf.Data,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   bitDepth,
	}, nil
}
