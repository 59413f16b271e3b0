// Package main provides the battle simulator binary: it loads content, a
// scenario and an AI domain, plays the configured number of AI-controlled
// battles and optionally stores their snapshots.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = defaults and TACTICS_* environment")
	runs := flag.Int("runs", 0, "number of battles to play; 0 = battle.runs from config")
	seed := flag.Int64("seed", 0, "base seed; 0 = battle.seed from config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *runs > 0 {
		cfg.Battle.Runs = *runs
	}
	if *seed != 0 {
		cfg.Battle.Seed = *seed
	}

	logger, err := observability.NewLogger(cfg.Logging, "battlesim")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim, err := newSimulation(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("preparing simulation", zap.Error(err))
	}
	defer sim.Close()

	logger.Info("simulation ready",
		zap.String("scenario", sim.scenario.Name),
		zap.String("domain", sim.planner.Domain().ID),
		zap.Int("runs", cfg.Battle.Runs),
		zap.Int("parallel", cfg.Battle.Parallel),
		zap.String("storage", cfg.Storage.Driver),
		zap.Duration("elapsed", time.Since(start)),
	)

	outcomes, err := sim.Run(ctx, cfg.Battle.Runs)
	if err != nil {
		logger.Error("simulation stopped", zap.Error(err))
	}
	wins := tally(outcomes)
	for _, faction := range sortedFactions(wins) {
		logger.Info("faction wins", zap.String("faction", faction), zap.Int("battles", wins[faction]))
	}
	logger.Info("simulation complete",
		zap.Int("played", len(outcomes)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		os.Exit(1)
	}
}
