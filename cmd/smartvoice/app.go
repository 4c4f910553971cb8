package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/smartvoice/internal/audio"
	"github.com/example/smartvoice/internal/catalog"
	"github.com/example/smartvoice/internal/config"
	"github.com/example/smartvoice/internal/pipeline"
	"github.com/example/smartvoice/internal/selection"
	"github.com/example/smartvoice/internal/tts"
)

// appOptions adjusts how buildPipeline wires the shared components.
type appOptions struct {
	// playback overrides cfg.Playback.Backend when set.
	playback string
	logger   *slog.Logger
	extra    []pipeline.Option
}

// buildPipeline wires catalog, selection, client, store and player from cfg.
func buildPipeline(cfg config.Config, opts appOptions) (*pipeline.Pipeline, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	log := opts.logger
	if log == nil {
		log = slog.Default()
	}

	format, err := tts.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.LoadOrDefault(cfg.Voice.CatalogPath)
	if err != nil {
		return nil, err
	}

	sel, err := selection.NewManager(cat, cfg.Voice.Default)
	if err != nil {
		return nil, fmt.Errorf("initial voice: %w", err)
	}

	client, err := tts.NewClient(cfg.API.Key,
		tts.WithBaseURL(cfg.API.BaseURL),
		tts.WithTimeout(time.Duration(cfg.API.Timeout)*time.Second),
		tts.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	store, err := tts.NewStore(cfg.OutputPath())
	if err != nil {
		return nil, err
	}

	backend := cfg.Playback.Backend
	if opts.playback != "" {
		backend = opts.playback
	}
	player, err := audio.NewPlayer(audio.PlayerOptions{
		Backend: backend,
		Command: cfg.Playback.Command,
		WAV:     format == tts.FormatWAV,
	})
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithPlayer(player),
		pipeline.WithFormat(format),
		pipeline.WithLogger(log),
	}
	return pipeline.New(sel, client, store, append(pipeOpts, opts.extra...)...)
}

// describePlayer names a resolved player for diagnostics.
func describePlayer(p audio.Player) string {
	switch v := p.(type) {
	case *audio.CommandPlayer:
		return "command (" + strings.Join(v.Argv(), " ") + ")"
	case *audio.PortAudioPlayer:
		return "portaudio"
	case audio.NopPlayer:
		return "none"
	default:
		return fmt.Sprintf("%T", p)
	}
}
