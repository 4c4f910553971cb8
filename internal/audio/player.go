// Package audio hands persisted audio files to a playback surface and
// decodes WAV clips for direct device output.
package audio

import (
	"context"
	"fmt"
	"strings"
)

// Playback backends.
const (
	BackendAuto      = "auto"
	BackendCommand   = "command"
	BackendPortAudio = "portaudio"
	BackendNone      = "none"
)

// Player plays an audio file to completion. Implementations retain no state
// between calls.
type Player interface {
	Play(ctx context.Context, path string) error
}

// NopPlayer is used when playback is disabled.
type NopPlayer struct{}

func (NopPlayer) Play(context.Context, string) error { return nil }

// NormalizeBackend validates a backend name. Empty means auto.
func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendAuto
	}
	switch backend {
	case BackendAuto, BackendCommand, BackendPortAudio, BackendNone:
		return backend, nil
	case "off", "disabled":
		return BackendNone, nil
	default:
		return "", fmt.Errorf(
			"invalid playback backend %q (expected %s|%s|%s|%s)",
			raw, BackendAuto, BackendCommand, BackendPortAudio, BackendNone,
		)
	}
}

// PlayerOptions selects and configures a Player.
type PlayerOptions struct {
	Backend string
	// Command overrides the external player command line; the file path is
	// appended as the last argument.
	Command string
	// WAV reports whether the files to play are WAV, which lets auto pick
	// direct device output.
	WAV bool
	// LookPath resolves executables; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// NewPlayer builds the player for opts.
func NewPlayer(opts PlayerOptions) (Player, error) {
	backend, err := NormalizeBackend(opts.Backend)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendNone:
		return NopPlayer{}, nil
	case BackendPortAudio:
		return NewPortAudioPlayer(), nil
	case BackendAuto:
		if opts.WAV && strings.TrimSpace(opts.Command) == "" {
			return NewPortAudioPlayer(), nil
		}
	}

	return NewCommandPlayer(opts.Command, opts.LookPath)
}
