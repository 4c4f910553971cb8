// Package pipeline runs a generate action end to end: it snapshots the
// selection, builds the synthesis request, stores the generated audio and
// hands it to the player. It is the single object the presentation adapters
// (terminal UI, CLI, HTTP) talk to.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/example/smartvoice/internal/audio"
	"github.com/example/smartvoice/internal/catalog"
	"github.com/example/smartvoice/internal/observe"
	"github.com/example/smartvoice/internal/selection"
	"github.com/example/smartvoice/internal/tts"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when a generate action is already in flight.
var ErrBusy = errors.New("a generation is already in progress")

// Outcome reports how a generate action finished.
type Outcome struct {
	ID       string
	Path     string
	Bytes    int64
	Err      error
	Kind     tts.Kind
	Duration time.Duration
	// AudioSeconds is the length reported by the service, when known.
	AudioSeconds float64
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// FinishedFunc observes every completed generate action.
type FinishedFunc func(Outcome)

// Pipeline is safe for concurrent use, but runs at most one generate action
// at a time.
type Pipeline struct {
	sel      *selection.Manager
	synth    tts.Synthesizer
	store    *tts.Store
	player   audio.Player
	format   tts.Format
	metrics  *observe.Metrics
	log      *slog.Logger
	sem      *semaphore.Weighted
	inFlight atomic.Bool
	finished []FinishedFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPlayer sets the playback surface. Defaults to a no-op player.
func WithPlayer(p audio.Player) Option {
	return func(pl *Pipeline) { pl.player = p }
}

// WithFormat sets the output format requested from the service.
func WithFormat(f tts.Format) Option {
	return func(pl *Pipeline) { pl.format = f }
}

// WithMetrics sets the metrics sink. Defaults to observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(pl *Pipeline) { pl.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(pl *Pipeline) { pl.log = l }
}

// WithGenerationFinished registers fn for every completed generate action.
func WithGenerationFinished(fn FinishedFunc) Option {
	return func(pl *Pipeline) { pl.finished = append(pl.finished, fn) }
}

// WithMoodsChanged registers fn for every voice change.
func WithMoodsChanged(fn selection.MoodsChangedFunc) Option {
	return func(pl *Pipeline) { pl.sel.OnMoodsChanged(fn) }
}

// New wires a pipeline. sel, synth and store are required.
func New(sel *selection.Manager, synth tts.Synthesizer, store *tts.Store, opts ...Option) (*Pipeline, error) {
	if sel == nil {
		return nil, errors.New("selection manager is required")
	}
	if synth == nil {
		return nil, errors.New("synthesizer is required")
	}
	if store == nil {
		return nil, errors.New("audio store is required")
	}

	p := &Pipeline{
		sel:    sel,
		synth:  synth,
		store:  store,
		player: audio.NopPlayer{},
		format: tts.FormatMP3,
		log:    slog.Default(),
		sem:    semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p, nil
}

// SetVoice selects a voice and resets the mood.
func (p *Pipeline) SetVoice(name string) error { return p.sel.SetVoice(name) }

// SetMood selects a mood of the current voice.
func (p *Pipeline) SetMood(mood string) error { return p.sel.SetMood(mood) }

// SetPitch sets the pitch, rejecting values outside the accepted range.
func (p *Pipeline) SetPitch(v int) error { return p.sel.SetPitch(v) }

// SetText stores the input text.
func (p *Pipeline) SetText(s string) { p.sel.SetText(s) }

// State returns the current selection.
func (p *Pipeline) State() selection.State { return p.sel.State() }

// Moods lists the moods of the current voice.
func (p *Pipeline) Moods() []string { return p.sel.Moods() }

// Catalog is the voice catalog the selection validates against.
func (p *Pipeline) Catalog() *catalog.Catalog { return p.sel.Catalog() }

// OutputPath is the fixed file every generation writes to.
func (p *Pipeline) OutputPath() string { return p.store.Path() }

// Format is the configured output format.
func (p *Pipeline) Format() tts.Format { return p.format }

// InFlight reports whether a generate action is running.
func (p *Pipeline) InFlight() bool { return p.inFlight.Load() }

// Generate runs build, synthesize, download and playback for the current
// selection. It returns ErrBusy without side effects when another action is
// running. The selection state is never modified.
func (p *Pipeline) Generate(ctx context.Context) Outcome {
	if !p.sem.TryAcquire(1) {
		return Outcome{Err: ErrBusy}
	}
	p.inFlight.Store(true)
	defer func() {
		p.inFlight.Store(false)
		p.sem.Release(1)
	}()

	out := Outcome{ID: uuid.NewString()}
	start := time.Now()
	state := p.sel.State()

	out.Err = p.run(ctx, state, &out)
	out.Duration = time.Since(start)
	if out.Err != nil {
		out.Kind = tts.KindOf(out.Err)
	}

	p.report(ctx, state, out)
	return out
}

func (p *Pipeline) run(ctx context.Context, state selection.State, out *Outcome) error {
	req, err := tts.Build(state, p.sel.Catalog(), p.format)
	if err != nil {
		return err
	}

	art, err := p.store.SynthesizeAndStore(ctx, p.synth, req)
	if err != nil {
		return err
	}
	out.Path = art.Path
	out.Bytes = art.Bytes
	out.AudioSeconds = art.Result.AudioLengthSeconds
	p.metrics.RecordDownload(ctx, art.Bytes)

	if err := p.player.Play(ctx, art.Path); err != nil {
		return &tts.Error{Kind: tts.KindPlayback, Op: "play", Err: err}
	}
	return nil
}

func (p *Pipeline) report(ctx context.Context, state selection.State, out Outcome) {
	attrs := []any{
		slog.String("id", out.ID),
		slog.String("voice", state.Voice),
		slog.String("mood", state.Mood),
		slog.Int("pitch", state.Pitch),
		slog.Int("text_len", len(state.Text)),
		slog.Int64("duration_ms", out.Duration.Milliseconds()),
	}

	kind := ""
	if out.Err != nil {
		kind = out.Kind.String()
		attrs = append(attrs, slog.String("kind", kind), slog.String("error", out.Err.Error()))
		if out.Kind == tts.KindValidation {
			p.log.WarnContext(ctx, "generation rejected", attrs...)
		} else {
			p.log.ErrorContext(ctx, "generation failed", attrs...)
		}
	} else {
		attrs = append(attrs, slog.String("path", out.Path), slog.Int64("bytes", out.Bytes))
		p.log.InfoContext(ctx, "generation complete", attrs...)
	}
	p.metrics.RecordGenerate(ctx, out.Duration, kind)

	for _, fn := range p.finished {
		fn(out)
	}
}

// Replay plays the last persisted file again without contacting the service.
func (p *Pipeline) Replay(ctx context.Context) error {
	if _, err := os.Stat(p.store.Path()); err != nil {
		return fmt.Errorf("nothing to replay: %w", err)
	}
	if err := p.player.Play(ctx, p.store.Path()); err != nil {
		return &tts.Error{Kind: tts.KindPlayback, Op: "replay", Err: err}
	}
	return nil
}
