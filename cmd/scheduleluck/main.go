package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"scheduleluck/internal/analyzer"
	"scheduleluck/internal/config"
	"scheduleluck/internal/league"
	"scheduleluck/internal/report"
	"scheduleluck/internal/sampler"
	"scheduleluck/internal/standings"
	"scheduleluck/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"data_file":   cfg.DataFile,
		"mode":        cfg.ScheduleMode,
	}).Info("Starting schedule luck analysis")

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	lg, err := league.LoadFile(cfg.DataFile)
	if err != nil {
		log.Fatalf("Failed to load league dataset: %v", err)
	}
	if cfg.FocalTeam != "" {
		lg.FocalTeam = cfg.FocalTeam
	}
	logger.WithLeague(lg.Name, lg.Season).WithFields(logrus.Fields{
		"teams": len(lg.Teams),
		"weeks": lg.Weeks,
	}).Info("League dataset loaded")

	mode, _ := cfg.Mode()
	byeResult, byeConfigured, _ := cfg.ByeResult()
	boundary, _ := cfg.BoundaryPolicy()

	opts := analyzer.Options{
		Sampler: sampler.Options{
			Mode:                 mode,
			SampleCount:          cfg.SampleCount,
			Seed:                 cfg.RandomSeed,
			FeasibilityThreshold: cfg.FeasibilityThreshold,
			MaxPermutations:      cfg.MaxPermutations,
		},
		Standings: standings.Options{
			Bye:      byeResult,
			Boundary: boundary,
		},
		ByeConfigured:   byeConfigured,
		Workers:         cfg.Workers,
		WallClockBudget: cfg.WallClockBudget,
	}

	a, err := analyzer.New(lg, opts, log)
	if err != nil {
		log.Fatalf("Analysis setup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := a.Run(ctx)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	runLog := logger.WithRunContext(summary.RunID, lg.Name)

	report.Render(os.Stdout, summary)

	if cfg.OutputFile != "" {
		if err := summary.WriteJSON(cfg.OutputFile); err != nil {
			runLog.Fatalf("Failed to write summary: %v", err)
		}
		runLog.WithField("path", cfg.OutputFile).Info("Summary written")
	}
}
