package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// PortAudioPlayer decodes WAV files and writes them to the default output
// device.
type PortAudioPlayer struct {
	mu sync.Mutex
}

func NewPortAudioPlayer() *PortAudioPlayer { return &PortAudioPlayer{} }

// Play decodes path and blocks until it has been written to the device or
// ctx is done.
func (p *PortAudioPlayer) Play(ctx context.Context, path string) error {
	clip, err := DecodeWAVFile(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	buffer := make([]float32, framesPerBuffer*clip.Channels)

	stream, err := portaudio.OpenDefaultStream(0, clip.Channels, float64(clip.SampleRate), framesPerBuffer, &buffer)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for pos := 0; pos < len(clip.Samples); pos += len(buffer) {
		if err := ctx.Err(); err != nil {
			return err
		}
		fillBuffer(buffer, clip.Samples, pos)
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write to stream: %w", err)
		}
	}
	return nil
}

// fillBuffer copies samples[pos:] into buf and zero-pads the tail.
func fillBuffer(buf, samples []float32, pos int) {
	n := 0
	if pos < len(samples) {
		n = copy(buf, samples[pos:])
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}
