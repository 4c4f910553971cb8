package tts

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure so callers can branch on the category
// rather than on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindService
	KindMissingAudio
	KindDownload
	KindFileSystem
	KindPlayback
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindService:
		return "service"
	case KindMissingAudio:
		return "missing_audio"
	case KindDownload:
		return "download"
	case KindFileSystem:
		return "filesystem"
	case KindPlayback:
		return "playback"
	default:
		return "unknown"
	}
}

// Remote reports whether the kind is a failure of a network call.
func (k Kind) Remote() bool {
	return k == KindService || k == KindMissingAudio || k == KindDownload
}

// Sentinels for errors.Is matching against a kind.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrService      = &Error{Kind: KindService}
	ErrMissingAudio = &Error{Kind: KindMissingAudio}
	ErrDownload     = &Error{Kind: KindDownload}
	ErrFileSystem   = &Error{Kind: KindFileSystem}
	ErrPlayback     = &Error{Kind: KindPlayback}
)

// Error is the typed failure returned by every pipeline stage.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrDownload)
// works regardless of Op and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
