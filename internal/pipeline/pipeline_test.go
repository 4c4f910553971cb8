package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/smartvoice/internal/catalog"
	"github.com/example/smartvoice/internal/observe"
	"github.com/example/smartvoice/internal/selection"
	"github.com/example/smartvoice/internal/tts"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type stubSynth struct {
	url     string
	err     error
	block   chan struct{}
	started chan struct{}
	mu      sync.Mutex
	reqs    []tts.Request
}

func (s *stubSynth) Generate(ctx context.Context, req tts.Request) (tts.Result, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if s.started != nil {
		close(s.started)
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return tts.Result{}, ctx.Err()
		}
	}
	if s.err != nil {
		return tts.Result{}, s.err
	}
	return tts.Result{AudioURL: s.url, AudioLengthSeconds: 2}, nil
}

type stubPlayer struct {
	err    error
	played []string
}

func (p *stubPlayer) Play(_ context.Context, path string) error {
	p.played = append(p.played, path)
	return p.err
}

type fixture struct {
	pl     *Pipeline
	synth  *stubSynth
	player *stubPlayer
	events []Outcome
}

func newFixture(t *testing.T, synth *stubSynth, extra ...Option) *fixture {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	t.Cleanup(srv.Close)
	if synth.url == "" {
		synth.url = srv.URL + "/audio.mp3"
	}

	sel, err := selection.NewManager(catalog.Default(), catalog.DefaultVoice)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	store, err := tts.NewStore(filepath.Join(t.TempDir(), "audio.mp3"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	met, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	f := &fixture{synth: synth, player: &stubPlayer{}}
	opts := []Option{
		WithPlayer(f.player),
		WithMetrics(met),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithGenerationFinished(func(o Outcome) { f.events = append(f.events, o) }),
	}
	f.pl, err = New(sel, synth, store, append(opts, extra...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestGenerate_Success(t *testing.T) {
	f := newFixture(t, &stubSynth{})
	f.pl.SetText("  Hello there  ")
	if err := f.pl.SetPitch(12); err != nil {
		t.Fatalf("SetPitch: %v", err)
	}

	out := f.pl.Generate(context.Background())
	if !out.OK() {
		t.Fatalf("Generate failed: %v", out.Err)
	}
	if out.ID == "" {
		t.Error("expected generation id")
	}
	if out.Path != f.pl.OutputPath() {
		t.Errorf("Path = %q; want %q", out.Path, f.pl.OutputPath())
	}

	data, err := os.ReadFile(out.Path)
	if err != nil || string(data) != "ID3-audio" {
		t.Fatalf("output = %q, %v", data, err)
	}

	if len(f.synth.reqs) != 1 {
		t.Fatalf("synth calls = %d", len(f.synth.reqs))
	}
	req := f.synth.reqs[0]
	if req.Text != "Hello there" || req.VoiceID != "en-US-natalie" || req.Mood != "Promo" || req.Pitch != 12 {
		t.Errorf("unexpected request: %+v", req)
	}

	if len(f.player.played) != 1 || f.player.played[0] != out.Path {
		t.Errorf("played = %v", f.player.played)
	}
	if len(f.events) != 1 || !f.events[0].OK() {
		t.Errorf("finished events = %+v", f.events)
	}
}

func TestGenerate_ValidationErrorSkipsNetwork(t *testing.T) {
	f := newFixture(t, &stubSynth{})
	f.pl.SetText("   ")

	out := f.pl.Generate(context.Background())
	if out.Kind != tts.KindValidation {
		t.Fatalf("Kind = %s; want validation (err=%v)", out.Kind, out.Err)
	}
	if len(f.synth.reqs) != 0 {
		t.Error("synthesizer must not be called on validation failure")
	}
	if len(f.player.played) != 0 {
		t.Error("player must not be called on failure")
	}
	if len(f.events) != 1 || f.events[0].OK() {
		t.Errorf("finished events = %+v", f.events)
	}
}

func TestGenerate_FailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, &stubSynth{err: &tts.Error{Kind: tts.KindService, Op: "boom"}})
	if err := f.pl.SetVoice("Theo"); err != nil {
		t.Fatalf("SetVoice: %v", err)
	}
	if err := f.pl.SetMood("Character"); err != nil {
		t.Fatalf("SetMood: %v", err)
	}
	f.pl.SetText("hi")
	before := f.pl.State()

	out := f.pl.Generate(context.Background())
	if out.Kind != tts.KindService {
		t.Fatalf("Kind = %s; want service", out.Kind)
	}
	if f.pl.State() != before {
		t.Fatalf("state changed: %+v -> %+v", before, f.pl.State())
	}
	if _, err := os.Stat(f.pl.OutputPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no file expected after service failure, stat err = %v", err)
	}
}

func TestGenerate_PlaybackFailureKeepsFile(t *testing.T) {
	f := newFixture(t, &stubSynth{})
	f.player.err = errors.New("no device")
	f.pl.SetText("hi")

	out := f.pl.Generate(context.Background())
	if out.Kind != tts.KindPlayback {
		t.Fatalf("Kind = %s; want playback", out.Kind)
	}
	if _, err := os.Stat(out.Path); err != nil {
		t.Fatalf("persisted file missing: %v", err)
	}
}

func TestGenerate_BusyWhileInFlight(t *testing.T) {
	synth := &stubSynth{block: make(chan struct{}), started: make(chan struct{})}
	f := newFixture(t, synth)
	f.pl.SetText("hi")

	done := make(chan Outcome, 1)
	go func() { done <- f.pl.Generate(context.Background()) }()

	select {
	case <-synth.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first generate did not start")
	}

	if !f.pl.InFlight() {
		t.Error("InFlight() = false while generating")
	}
	second := f.pl.Generate(context.Background())
	if !errors.Is(second.Err, ErrBusy) {
		t.Fatalf("second Generate err = %v; want ErrBusy", second.Err)
	}

	close(synth.block)
	first := <-done
	if !first.OK() {
		t.Fatalf("first Generate failed: %v", first.Err)
	}
	if f.pl.InFlight() {
		t.Error("InFlight() = true after completion")
	}
}

func TestWithMoodsChanged(t *testing.T) {
	var got []string
	f := newFixture(t, &stubSynth{}, WithMoodsChanged(func(_ string, moods []string) { got = moods }))

	if err := f.pl.SetVoice("Alicia"); err != nil {
		t.Fatalf("SetVoice: %v", err)
	}
	if len(got) != 3 || got[0] != "Conversational" {
		t.Fatalf("moods event = %v", got)
	}
	if f.pl.State().Mood != "Conversational" {
		t.Fatalf("mood = %q", f.pl.State().Mood)
	}
}

func TestReplay(t *testing.T) {
	f := newFixture(t, &stubSynth{})
	if err := f.pl.Replay(context.Background()); err == nil {
		t.Fatal("expected error before any generation")
	}

	f.pl.SetText("hi")
	if out := f.pl.Generate(context.Background()); !out.OK() {
		t.Fatalf("Generate: %v", out.Err)
	}
	if err := f.pl.Replay(context.Background()); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(f.player.played) != 2 {
		t.Fatalf("played = %v", f.player.played)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	sel, _ := selection.NewManager(catalog.Default(), catalog.DefaultVoice)
	store, _ := tts.NewStore(filepath.Join(t.TempDir(), "a.mp3"))

	if _, err := New(nil, &stubSynth{}, store); err == nil {
		t.Error("expected error without selection")
	}
	if _, err := New(sel, nil, store); err == nil {
		t.Error("expected error without synthesizer")
	}
	if _, err := New(sel, &stubSynth{}, nil); err == nil {
		t.Error("expected error without store")
	}
}
