package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/example/smartvoice/internal/audio"
	"github.com/example/smartvoice/internal/config"
	"github.com/example/smartvoice/internal/doctor"
	"github.com/example/smartvoice/internal/tts"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var beep bool
	var probe bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local configuration and playback checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			backend, err := audio.NormalizeBackend(cfg.Playback.Backend)
			if err != nil {
				return err
			}
			format, err := tts.ParseFormat(cfg.Output.Format)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "playback: %s, format: %s\n", backend, format)

			playerOpts := audio.PlayerOptions{
				Backend: backend,
				Command: cfg.Playback.Command,
				WAV:     format == tts.FormatWAV,
			}

			dcfg := doctor.Config{
				APIKey:       cfg.API.Key,
				OutputPath:   cfg.OutputPath(),
				CatalogPath:  cfg.Voice.CatalogPath,
				DefaultVoice: cfg.Voice.Default,
				SkipPlayer:   backend == audio.BackendNone,
				Player: func() (string, error) {
					p, err := audio.NewPlayer(playerOpts)
					if err != nil {
						return "", err
					}
					return describePlayer(p), nil
				},
			}
			if probe {
				dcfg.ServiceProbe = func() error {
					return probeService(cmd.Context(), cfg)
				}
			}

			result := doctor.Run(dcfg, out)

			if beep && !dcfg.SkipPlayer {
				if err := playBeep(cmd.Context(), playerOpts); err != nil {
					result.AddFailure(fmt.Sprintf("test tone: %v", err))
					_, _ = fmt.Fprintf(out, "%s test tone: %v\n", doctor.FailMark, err)
				} else {
					_, _ = fmt.Fprintf(out, "%s test tone: played\n", doctor.PassMark)
				}
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&beep, "beep", false, "Play a short test tone through the configured player")
	cmd.Flags().BoolVar(&probe, "probe", false, "Check that the speech service base URL answers")

	return cmd
}

// playBeep writes a short sine tone to a temporary WAV file and plays it.
func playBeep(ctx context.Context, opts audio.PlayerOptions) error {
	opts.WAV = true
	player, err := audio.NewPlayer(opts)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "smartvoice-beep-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "beep.wav")
	if err := audio.WriteWAVFile(path, audio.Tone(440, 0.4, 48000)); err != nil {
		return err
	}
	return player.Play(ctx, path)
}

// probeService reports whether the speech service base URL answers at all.
// Any HTTP response counts; only transport failures are errors.
func probeService(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.API.BaseURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
