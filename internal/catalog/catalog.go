// Package catalog holds the fixed table of synthesis voices and the moods
// (speaking styles) each of them supports.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultVoice is the voice selected when nothing else is configured.
const DefaultVoice = "Natalie"

// ErrVoiceNotFound is returned by Lookup for names absent from the catalog.
var ErrVoiceNotFound = errors.New("voice not found")

// VoiceProfile describes one selectable voice.
type VoiceProfile struct {
	Name    string   `json:"name" yaml:"name"`
	VoiceID string   `json:"voice_id" yaml:"voice_id"`
	Moods   []string `json:"moods" yaml:"moods"`
}

func (p VoiceProfile) clone() VoiceProfile {
	p.Moods = append([]string(nil), p.Moods...)
	return p
}

// HasMood reports whether mood is one of the profile's supported moods.
func (p VoiceProfile) HasMood(mood string) bool {
	for _, m := range p.Moods {
		if m == mood {
			return true
		}
	}
	return false
}

// Catalog is a read-only, validated set of voice profiles.
type Catalog struct {
	profiles []VoiceProfile
	byName   map[string]int
}

// New validates profiles and builds a catalog preserving their order.
func New(profiles []VoiceProfile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, errors.New("catalog contains no voices")
	}

	c := &Catalog{
		profiles: make([]VoiceProfile, 0, len(profiles)),
		byName:   make(map[string]int, len(profiles)),
	}

	for _, p := range profiles {
		if strings.TrimSpace(p.Name) == "" {
			return nil, errors.New("catalog contains voice with empty name")
		}

		if strings.TrimSpace(p.VoiceID) == "" {
			return nil, fmt.Errorf("voice %q has empty voice_id", p.Name)
		}

		if len(p.Moods) == 0 {
			return nil, fmt.Errorf("voice %q has no moods", p.Name)
		}

		seen := make(map[string]struct{}, len(p.Moods))
		for _, m := range p.Moods {
			if strings.TrimSpace(m) == "" {
				return nil, fmt.Errorf("voice %q has empty mood", p.Name)
			}
			if _, dup := seen[m]; dup {
				return nil, fmt.Errorf("voice %q lists mood %q twice", p.Name, m)
			}
			seen[m] = struct{}{}
		}

		if _, exists := c.byName[p.Name]; exists {
			return nil, fmt.Errorf("duplicate voice name %q", p.Name)
		}

		c.byName[p.Name] = len(c.profiles)
		c.profiles = append(c.profiles, p.clone())
	}

	return c, nil
}

// Lookup returns the profile registered under name.
func (c *Catalog) Lookup(name string) (VoiceProfile, error) {
	idx, ok := c.byName[name]
	if !ok {
		return VoiceProfile{}, fmt.Errorf("%w: %q", ErrVoiceNotFound, name)
	}
	return c.profiles[idx].clone(), nil
}

// MoodsFor returns the moods of name, or nil when the voice is unknown.
func (c *Catalog) MoodsFor(name string) []string {
	p, err := c.Lookup(name)
	if err != nil {
		return nil
	}
	return p.Moods
}

// Names lists voice names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, p.Name)
	}
	return out
}

// Profiles returns a copy of every profile in catalog order.
func (c *Catalog) Profiles() []VoiceProfile {
	out := make([]VoiceProfile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, p.clone())
	}
	return out
}

// Len is the number of voices.
func (c *Catalog) Len() int { return len(c.profiles) }
