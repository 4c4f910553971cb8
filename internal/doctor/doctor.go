// Package doctor provides environment preflight checks for smartvoice.
package doctor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/smartvoice/internal/catalog"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// PlayerFunc resolves the configured playback backend and describes it.
type PlayerFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// APIKey is the configured speech service credential.
	APIKey string
	// OutputPath is the file every generation overwrites.
	OutputPath string
	// CatalogPath is an optional YAML catalog. Empty means built-in voices.
	CatalogPath string
	// DefaultVoice must exist in the catalog.
	DefaultVoice string
	// Player describes the resolved playback backend.
	Player PlayerFunc
	// SkipPlayer skips the player check (playback backend "none").
	SkipPlayer bool
	// ServiceProbe optionally checks that the speech service answers.
	ServiceProbe func() error
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- API key ----------------------------------------------------------
	if strings.TrimSpace(cfg.APIKey) == "" {
		res.fail("api key: not set")
		fmt.Fprintf(w, "%s api key: not set (SMARTVOICE_API_KEY or API_KEY)\n", FailMark)
	} else {
		fmt.Fprintf(w, "%s api key: %s\n", PassMark, maskKey(cfg.APIKey))
	}

	// ---- output directory -------------------------------------------------
	if err := checkWritable(cfg.OutputPath); err != nil {
		res.fail(fmt.Sprintf("output directory: %v", err))
		fmt.Fprintf(w, "%s output directory: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s output file: %s\n", PassMark, cfg.OutputPath)
	}

	// ---- voice catalog ----------------------------------------------------
	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	switch {
	case err != nil:
		res.fail(fmt.Sprintf("voice catalog: %v", err))
		fmt.Fprintf(w, "%s voice catalog: %v\n", FailMark, err)
	default:
		src := "built-in"
		if cfg.CatalogPath != "" {
			src = cfg.CatalogPath
		}
		fmt.Fprintf(w, "%s voice catalog: %d voices (%s)\n", PassMark, cat.Len(), src)

		if cfg.DefaultVoice != "" {
			if _, err := cat.Lookup(cfg.DefaultVoice); err != nil {
				res.fail(fmt.Sprintf("default voice: %v", err))
				fmt.Fprintf(w, "%s default voice %q: not in catalog\n", FailMark, cfg.DefaultVoice)
			} else {
				fmt.Fprintf(w, "%s default voice: %s\n", PassMark, cfg.DefaultVoice)
			}
		}
	}

	// ---- player -----------------------------------------------------------
	switch {
	case cfg.SkipPlayer:
		fmt.Fprintf(w, "%s audio player: skipped\n", PassMark)
	case cfg.Player == nil:
		res.fail("audio player: no resolver configured")
		fmt.Fprintf(w, "%s audio player: no resolver configured\n", FailMark)
	default:
		desc, err := cfg.Player()
		if err != nil {
			res.fail(fmt.Sprintf("audio player: %v", err))
			fmt.Fprintf(w, "%s audio player: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s audio player: %s\n", PassMark, desc)
		}
	}

	// ---- speech service ---------------------------------------------------
	if cfg.ServiceProbe != nil {
		if err := cfg.ServiceProbe(); err != nil {
			res.fail(fmt.Sprintf("speech service: %v", err))
			fmt.Fprintf(w, "%s speech service: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s speech service: reachable\n", PassMark)
		}
	}

	return res
}

// maskKey keeps only the last four characters of a credential.
func maskKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 4 {
		return "set"
	}
	return "set (…" + key[len(key)-4:] + ")"
}

// checkWritable verifies that a file can be created at path. Missing
// parent directories are created on first generation, so the probe runs in
// the nearest directory that exists.
func checkWritable(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is empty")
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	dir, err := existingParent(filepath.Dir(path))
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".smartvoice-doctor-*")
	if err != nil {
		return fmt.Errorf("%s not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// existingParent walks up from dir to the first path that exists and checks
// it is a directory.
func existingParent(dir string) (string, error) {
	for {
		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
			return dir, nil
		case err == nil:
			return "", fmt.Errorf("%s is not a directory", dir)
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("%s: %w", dir, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s: %w", dir, err)
		}
		dir = parent
	}
}
