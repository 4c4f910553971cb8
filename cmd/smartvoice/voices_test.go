package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/example/smartvoice/internal/catalog"
)

func TestVoicesCmd_Table(t *testing.T) {
	out, err := runRoot(t, "", "voices")
	if err != nil {
		t.Fatalf("voices: %v", err)
	}

	for _, name := range catalog.Default().Names() {
		if !strings.Contains(out, name) {
			t.Errorf("output missing voice %q", name)
		}
	}
	if !strings.Contains(out, "en-US-natalie") {
		t.Error("output missing voice id")
	}
}

func TestVoicesCmd_JSON(t *testing.T) {
	out, err := runRoot(t, "", "voices", "--json")
	if err != nil {
		t.Fatalf("voices --json: %v", err)
	}

	var profiles []catalog.VoiceProfile
	if err := json.Unmarshal([]byte(out), &profiles); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(profiles) != catalog.Default().Len() {
		t.Errorf("profiles = %d; want %d", len(profiles), catalog.Default().Len())
	}
}

func TestDoctorCmd_PassesWithKeyAndNoPlayback(t *testing.T) {
	t.Setenv("SMARTVOICE_API_KEY", "test-key-1234")

	out, err := runRoot(t, "",
		"doctor",
		"--playback-backend", "none",
		"--output-path", t.TempDir()+"/audio.mp3",
	)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	if !strings.Contains(out, "doctor checks passed") {
		t.Errorf("output = %q", out)
	}
}

func TestDoctorCmd_FailsWithoutKey(t *testing.T) {
	t.Setenv("SMARTVOICE_API_KEY", "")
	t.Setenv("API_KEY", "")

	out, err := runRoot(t, "",
		"doctor",
		"--playback-backend", "none",
		"--output-path", t.TempDir()+"/audio.mp3",
	)
	if err == nil {
		t.Fatalf("doctor passed without API key:\n%s", out)
	}
	if !strings.Contains(out, "FAIL: api key") {
		t.Errorf("output = %q", out)
	}
}
