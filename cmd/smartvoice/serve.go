package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/smartvoice/internal/audio"
	"github.com/example/smartvoice/internal/observe"
	"github.com/example/smartvoice/internal/pipeline"
	"github.com/example/smartvoice/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var play bool
	var requestTimeout int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP adapter",
		Long: `Run the HTTP adapter over the generate pipeline.

Clients select voice, mood, pitch and text, trigger POST /generate and fetch
the result from GET /audio. Audio is not played on the server host unless
--play is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
				ServiceName:    "smartvoice",
				ServiceVersion: version(),
			})
			if err != nil {
				return err
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownMetrics(sctx); err != nil {
					slog.Warn("metrics shutdown", slog.String("error", err.Error()))
				}
			}()

			metrics := observe.DefaultMetrics()

			last := &server.LastGeneration{}
			opts := appOptions{extra: []pipeline.Option{
				pipeline.WithMetrics(metrics),
				pipeline.WithGenerationFinished(last.Record),
			}}
			if !play {
				opts.playback = audio.BackendNone
			}
			pl, err := buildPipeline(cfg, opts)
			if err != nil {
				return err
			}

			h := server.NewHandler(pl,
				server.WithLogger(slog.Default()),
				server.WithMetrics(metrics),
				server.WithMetricsHandler(observe.Handler()),
				server.WithLastGeneration(last),
				server.WithRequestTimeout(time.Duration(requestTimeout)*time.Second),
			)

			slog.Info("http adapter listening", slog.String("addr", cfg.Server.ListenAddr))
			return server.New(cfg, h).Start(ctx)
		},
	}

	cmd.Flags().BoolVar(&play, "play", false, "Also play generated audio on the server host")
	cmd.Flags().IntVar(&requestTimeout, "request-timeout", 0, "Deadline for POST /generate in seconds (0 = none)")

	return cmd
}
