package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/fellwalk/fellwalk/internal/sim"
	"github.com/fellwalk/fellwalk/internal/sim/config"
	"github.com/fellwalk/fellwalk/internal/sim/control"
)

// walker is a scripted intent source for headless runs: it strides east,
// sprinting, and hops every few seconds.
type walker struct {
	tickRate int
}

func (w walker) Next(tick uint64) control.MotionIntent {
	in := control.MotionIntent{Move: mgl64.Vec2{1, 0}, Sprint: true}
	if tick%uint64(4*w.tickRate) == 0 {
		in.Jump = true
	}
	return in
}

// reporter wraps an intent source and logs the character's pose once a
// second.
type reporter struct {
	src    sim.IntentSource
	runner *sim.Runner
	log    *slog.Logger
	every  uint64
}

func (r reporter) Next(tick uint64) control.MotionIntent {
	if tick > 0 && tick%r.every == 0 {
		pos := r.runner.Position()
		ch := r.runner.Character()
		r.log.Info("character",
			"x", pos.X(), "y", pos.Y(), "z", pos.Z(),
			"state", ch.State.String(),
			"chunks", r.runner.LoadedChunks(),
		)
	}
	return r.src.Next(tick)
}

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Int64Var(&cfg.Noise.Seed, "seed", cfg.Noise.Seed, "terrain seed")
	flag.IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "simulation ticks per second")
	flag.Float64Var(&cfg.Chunks.ChunkSize, "chunk-size", cfg.Chunks.ChunkSize, "chunk edge length in world units")
	flag.IntVar(&cfg.Chunks.Resolution, "resolution", cfg.Chunks.Resolution, "cells per chunk edge")
	flag.IntVar(&cfg.Streaming.LoadRadius, "load-radius", cfg.Streaming.LoadRadius, "streaming radius in chunks")
	flag.IntVar(&cfg.Streaming.Workers, "workers", cfg.Streaming.Workers, "chunk generation workers")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *configPath != "" {
		fromFile := config.DefaultConfig()
		if err := config.Load(*configPath, fromFile); err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
		log.Info("loaded config from file", "path", *configPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner, err := sim.New(cfg, log)
	if err != nil {
		log.Error("create simulation", "error", err)
		os.Exit(1)
	}

	intents := reporter{
		src:    walker{tickRate: cfg.TickRate},
		runner: runner,
		log:    log,
		every:  uint64(cfg.TickRate),
	}
	if err := runner.Run(ctx, intents); err != nil {
		log.Error("simulation error", "error", err)
		os.Exit(1)
	}
}
