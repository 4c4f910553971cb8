package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/example/smartvoice/internal/tui"
	"github.com/spf13/cobra"
)

func newUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the interactive terminal UI",
		Long: `Start the terminal UI of the Smart Voice Synthesizer.

Navigation:
  Tab / Shift+Tab  Move between text, voice, mood and pitch
  Up / Down        Select voice or mood
  Left / Right     Adjust pitch in steps of 6
  Enter            Generate and play
  Ctrl+R           Replay the last audio
  Esc / Ctrl+C     Quit

Logs are written to log_file while the UI owns the terminal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			// The alternate screen must not receive log lines.
			logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer func() { _ = logFile.Close() }()
			setupLogger(cfg.LogLevel, logFile)

			pl, err := buildPipeline(cfg, appOptions{})
			if err != nil {
				return err
			}

			p := tea.NewProgram(
				tui.NewModel(cmd.Context(), pl),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("terminal UI: %w", err)
			}
			return nil
		},
	}

	return cmd
}
