// Package tts builds synthesis requests, talks to the hosted speech service
// and persists the generated audio to the local output file.
package tts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/smartvoice/internal/catalog"
	"github.com/example/smartvoice/internal/selection"
)

// Format is the audio container requested from the service.
type Format string

const (
	FormatMP3 Format = "MP3"
	FormatWAV Format = "WAV"
)

// Fixed output parameters of the synthesis contract.
const (
	SampleRate    = 48000.0
	ChannelStereo = "STEREO"
)

// ParseFormat normalizes a user supplied format name. Empty means MP3.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", string(FormatMP3):
		return FormatMP3, nil
	case string(FormatWAV):
		return FormatWAV, nil
	default:
		return "", fmt.Errorf("invalid output format %q (expected MP3|WAV)", raw)
	}
}

// Extension is the file extension matching the format, including the dot.
func (f Format) Extension() string {
	if f == FormatWAV {
		return ".wav"
	}
	return ".mp3"
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatWAV {
		return "audio/wav"
	}
	return "audio/mpeg"
}

// Request is a validated synthesis request.
type Request struct {
	Text        string
	VoiceID     string
	Mood        string
	Pitch       int
	Format      Format
	SampleRate  float64
	ChannelType string
}

// Build turns a selection snapshot into a Request. It performs no I/O.
func Build(state selection.State, cat *catalog.Catalog, format Format) (Request, error) {
	text := strings.TrimSpace(state.Text)
	if text == "" {
		return Request{}, newError(KindValidation, "empty text", nil)
	}

	if cat == nil {
		return Request{}, newError(KindValidation, "unknown voice", errors.New("no catalog"))
	}
	profile, err := cat.Lookup(state.Voice)
	if err != nil {
		return Request{}, newError(KindValidation, "unknown voice", err)
	}

	if !selection.PitchInRange(state.Pitch) {
		return Request{}, newError(KindValidation, "pitch out of range",
			fmt.Errorf("%w: %d", selection.ErrPitchOutOfRange, state.Pitch))
	}

	if format == "" {
		format = FormatMP3
	}

	return Request{
		Text:        text,
		VoiceID:     profile.VoiceID,
		Mood:        state.Mood,
		Pitch:       state.Pitch,
		Format:      format,
		SampleRate:  SampleRate,
		ChannelType: ChannelStereo,
	}, nil
}
