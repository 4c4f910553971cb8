// Package selection tracks the user's current voice, mood, pitch and text and
// keeps the mood consistent with the selected voice.
package selection

import (
	"errors"
	"fmt"
	"sync"

	"github.com/example/smartvoice/internal/catalog"
)

// Pitch bounds, inclusive.
const (
	MinPitch = -30
	MaxPitch = 30
)

var (
	ErrUnknownVoice    = errors.New("unknown voice")
	ErrInvalidMood     = errors.New("mood not supported by voice")
	ErrPitchOutOfRange = fmt.Errorf("pitch out of range [%d, %d]", MinPitch, MaxPitch)
)

// State is a point-in-time copy of the selection.
type State struct {
	Voice string `json:"voice"`
	Mood  string `json:"mood"`
	Pitch int    `json:"pitch"`
	Text  string `json:"text"`
}

// MoodsChangedFunc is called after every successful voice change.
type MoodsChangedFunc func(voice string, moods []string)

// Option configures a Manager.
type Option func(*Manager)

// WithMoodsChanged registers fn to observe voice changes.
func WithMoodsChanged(fn MoodsChangedFunc) Option {
	return func(m *Manager) { m.onMoods = append(m.onMoods, fn) }
}

// Manager guards the selection state. It is safe for concurrent use.
type Manager struct {
	cat     *catalog.Catalog
	mu      sync.RWMutex
	state   State
	moods   []string
	onMoods []MoodsChangedFunc
}

// NewManager selects initialVoice and its first mood.
func NewManager(cat *catalog.Catalog, initialVoice string, opts ...Option) (*Manager, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}

	m := &Manager{cat: cat}
	for _, opt := range opts {
		opt(m)
	}

	p, err := cat.Lookup(initialVoice)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVoice, initialVoice)
	}
	m.applyVoice(p)

	return m, nil
}

// OnMoodsChanged adds an observer after construction.
func (m *Manager) OnMoodsChanged(fn MoodsChangedFunc) {
	m.mu.Lock()
	m.onMoods = append(m.onMoods, fn)
	m.mu.Unlock()
}

func (m *Manager) applyVoice(p catalog.VoiceProfile) {
	m.state.Voice = p.Name
	m.moods = p.Moods
	m.state.Mood = ""
	if len(p.Moods) > 0 {
		m.state.Mood = p.Moods[0]
	}
}

// SetVoice selects name and resets the mood to that voice's first mood.
// An unknown name leaves the state untouched.
func (m *Manager) SetVoice(name string) error {
	p, err := m.cat.Lookup(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}

	m.mu.Lock()
	m.applyVoice(p)
	moods := append([]string(nil), m.moods...)
	observers := append([]MoodsChangedFunc(nil), m.onMoods...)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(p.Name, moods)
	}
	return nil
}

// SetMood selects mood when the current voice supports it.
func (m *Manager) SetMood(mood string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, candidate := range m.moods {
		if candidate == mood {
			m.state.Mood = mood
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not available for %s", ErrInvalidMood, mood, m.state.Voice)
}

// SetPitch stores v when it lies within [MinPitch, MaxPitch].
func (m *Manager) SetPitch(v int) error {
	if !PitchInRange(v) {
		return fmt.Errorf("%w: %d", ErrPitchOutOfRange, v)
	}

	m.mu.Lock()
	m.state.Pitch = v
	m.mu.Unlock()
	return nil
}

// SetText stores the raw input text.
func (m *Manager) SetText(s string) {
	m.mu.Lock()
	m.state.Text = s
	m.mu.Unlock()
}

// State returns a snapshot of the current selection.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Moods lists the moods of the currently selected voice.
func (m *Manager) Moods() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.moods...)
}

// Catalog exposes the catalog the manager validates against.
func (m *Manager) Catalog() *catalog.Catalog { return m.cat }

// PitchInRange reports whether v is an accepted pitch value.
func PitchInRange(v int) bool {
	return v >= MinPitch && v <= MaxPitch
}
