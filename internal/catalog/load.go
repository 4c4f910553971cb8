package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Voices []VoiceProfile `yaml:"voices"`
}

// Load reads a YAML catalog file of the form
//
//	voices:
//	  - name: Natalie
//	    voice_id: en-US-natalie
//	    moods: [Promo, Narration]
func Load(path string) (*Catalog, error) {
	if path == "" {
		return nil, errors.New("catalog path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voice catalog: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode voice catalog: %w", err)
	}

	cat, err := New(f.Voices)
	if err != nil {
		return nil, fmt.Errorf("validate voice catalog %s: %w", path, err)
	}
	return cat, nil
}

// LoadOrDefault loads path when set and falls back to the built-in table.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
