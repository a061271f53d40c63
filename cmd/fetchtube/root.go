package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fetchtube/fetchtube/internal/catalog"
	"github.com/fetchtube/fetchtube/internal/config"
	"github.com/fetchtube/fetchtube/internal/fetch"
	"github.com/fetchtube/fetchtube/internal/model"
	"github.com/fetchtube/fetchtube/internal/orchestrator"
	"github.com/fetchtube/fetchtube/internal/output"
	"github.com/fetchtube/fetchtube/internal/platform"
	"github.com/fetchtube/fetchtube/internal/progress"
	"github.com/fetchtube/fetchtube/internal/transcode"
)

func newRootCommand() *cobra.Command {
	var (
		audioFlag    bool
		qualityFlag  string
		outputFlag   string
		cookiesFlag  string
		parallelFlag int
		configFlag   string
		quietFlag    bool
		jsonFlag     bool
	)

	cmd := &cobra.Command{
		Use:           "fetchtube <url>",
		Short:         "Fetch videos and playlists into local media files",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			if outputFlag != "" {
				cfg.OutputDir = outputFlag
			}
			if cookiesFlag != "" {
				cfg.CookieFile = cookiesFlag
			}
			if parallelFlag > 0 {
				cfg.MaxParallel = parallelFlag
			}
			if qualityFlag != "" {
				cfg.Quality = qualityFlag
			}
			if audioFlag {
				cfg.Quality = "audio"
			}
			return run(cmd.Context(), cfg, args[0], quietFlag, jsonFlag)
		},
	}

	cmd.Flags().BoolVar(&audioFlag, "audio", false, "Extract audio only (mp3)")
	cmd.Flags().StringVarP(&qualityFlag, "quality", "q", "", "Quality preset: best, audio, or a height like 720p")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination directory")
	cmd.Flags().StringVar(&cookiesFlag, "cookies", "", "Path to a cookies file for age or region restricted items")
	cmd.Flags().IntVarP(&parallelFlag, "parallel", "p", 0, "Concurrent downloads (1-4)")
	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVar(&quietFlag, "quiet", false, "Suppress progress output")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the final report as JSON on stdout")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, rawURL string, quiet, jsonOut bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := zerolog.InfoLevel
	if quiet || jsonOut {
		level = zerolog.ErrorLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	loc, err := model.ParseLocator(rawURL)
	if err != nil {
		return err
	}
	req, err := cfg.QualityRequest()
	if err != nil {
		return err
	}
	if err := platform.ProbeCookieFile(cfg.CookieFile); err != nil {
		return err
	}

	staging, err := os.MkdirTemp("", "fetchtube-staging-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	placer, err := output.NewResolver(cfg.Environment(), cfg.OutputDir, "")
	if err != nil {
		return err
	}

	sink := progress.NewSink()
	engine := orchestrator.New(orchestrator.Deps{
		Catalog:    catalog.NewResolver(cfg.CookieFile, log),
		Fetcher:    fetch.NewService(staging, cfg.CookieFile, log),
		Transcoder: transcode.New(log),
		Placer:     placer,
		Playlists:  platform.NewEnumerator(),
		Sink:       sink,
		Log:        log,
	}, orchestrator.Config{
		Workers:      cfg.MaxParallel,
		Retries:      cfg.Retries,
		RetryBackoff: cfg.RetryBackoff(),
	})

	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		consumeEvents(sink.Events(), quiet || jsonOut)
	}()

	report, err := engine.Run(ctx, loc, req)
	<-renderDone
	if err != nil {
		return err
	}

	if jsonOut {
		if err := writeReportJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		fmt.Println(renderReport(report))
	}

	if !report.AllPlaced() {
		return fmt.Errorf("%d of %d items did not complete", report.Total-report.Placed, report.Total)
	}
	return nil
}
