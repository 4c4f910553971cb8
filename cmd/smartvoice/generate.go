package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/example/smartvoice/internal/audio"
	"github.com/example/smartvoice/internal/pipeline"
	"github.com/spf13/cobra"
)

type selectionFlags struct {
	voice string
	mood  string
	pitch int
}

func newGenerateCmd() *cobra.Command {
	var text string
	var sel selectionFlags
	var noPlay bool

	cmd := &cobra.Command{
		Use:   "generate [text]",
		Short: "Synthesize text, save it to the output file and play it",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if text == "" && len(args) > 0 {
				text = strings.Join(args, " ")
			}
			inputText, err := readText(text, cmd.InOrStdin())
			if err != nil {
				return err
			}

			opts := appOptions{}
			if noPlay {
				opts.playback = audio.BackendNone
			}
			pl, err := buildPipeline(cfg, opts)
			if err != nil {
				return err
			}

			if err := applySelection(pl, sel, cmd.Flags().Changed("pitch")); err != nil {
				return err
			}
			pl.SetText(inputText)

			out := pl.Generate(cmd.Context())
			if out.Err != nil {
				return fmt.Errorf("generate (%s): %w", out.Kind, out.Err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Audio saved as: %s\n", out.Path)
			return err
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize (defaults to args, then stdin)")
	cmd.Flags().StringVar(&sel.voice, "voice", "", "Voice name (defaults to voice.default)")
	cmd.Flags().StringVar(&sel.mood, "mood", "", "Mood of the selected voice (defaults to its first mood)")
	cmd.Flags().IntVar(&sel.pitch, "pitch", 0, "Pitch adjustment in [-30, 30]")
	cmd.Flags().BoolVar(&noPlay, "no-play", false, "Save the audio without playing it")

	return cmd
}

// applySelection applies the voice before the mood, since a voice change
// resets the mood.
func applySelection(pl *pipeline.Pipeline, sel selectionFlags, pitchSet bool) error {
	if sel.voice != "" {
		if err := pl.SetVoice(sel.voice); err != nil {
			return err
		}
	}
	if sel.mood != "" {
		if err := pl.SetMood(sel.mood); err != nil {
			return err
		}
	}
	if pitchSet {
		if err := pl.SetPitch(sel.pitch); err != nil {
			return err
		}
	}
	return nil
}

func readText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide text or pipe it on stdin")
	}
	return input, nil
}

