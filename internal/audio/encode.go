package audio

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

const pcm16 = 16

// EncodeWAV encodes a clip as 16-bit PCM WAV.
func EncodeWAV(c Clip) ([]byte, error) {
	if c.SampleRate < 1 {
		return nil, fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", c.Channels)
	}

	var buf bytes.Buffer
	// wav.NewEncoder requires an io.WriteSeeker; bytes.Buffer is not one.
	sw := &seekBuffer{buf: &buf}

	enc := wav.NewEncoder(sw, c.SampleRate, pcm16, c.Channels, 1) // 1 = PCM

	pcmBuf := &goaudio.Float32Buffer{
		Data:           c.Samples,
		Format:         &goaudio.Format{SampleRate: c.SampleRate, NumChannels: c.Channels},
		SourceBitDepth: pcm16,
	}

	if err := enc.Write(pcmBuf); err != nil {
		return nil, fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteWAVFile encodes c and writes it to path.
func WriteWAVFile(path string, c Clip) error {
	data, err := EncodeWAV(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Tone returns a mono sine clip, used to check the playback surface.
func Tone(freqHz float64, seconds float64, sampleRate int) Clip {
	n := int(seconds * float64(sampleRate))
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate)))
	}
	return Clip{Samples: samples, SampleRate: sampleRate, Channels: 1, BitDepth: pcm16}
}

// seekBuffer wraps a bytes.Buffer to satisfy io.WriteSeeker.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if s.pos == s.buf.Len() {
		n, err := s.buf.Write(p)
		s.pos += n
		return n, err
	}
	data := s.buf.Bytes()
	n := copy(data[s.pos:], p)
	if n < len(p) {
		data = append(data, p[n:]...)
		s.buf.Reset()
		s.buf.Write(data)
		n = len(p)
	}
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case 0:
		abs = offset
	case 1:
		abs = int64(s.pos) + offset
	case 2:
		abs = int64(s.buf.Len()) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative seek position %d", abs)
	}
	if int(abs) > s.buf.Len() {
		s.buf.Write(make([]byte, int(abs)-s.buf.Len()))
	}
	s.pos = int(abs)
	return abs, nil
}
