// Package main runs the interactive pistol range in the terminal.
// It wires together configuration, prop content, Lua hooks, audio, and the
// tcell front end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/audio"
	"github.com/cory-johannsen/sidearm/internal/audio/device"
	"github.com/cory-johannsen/sidearm/internal/config"
	"github.com/cory-johannsen/sidearm/internal/frontend/tui"
	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/prop"
	"github.com/cory-johannsen/sidearm/internal/game/rng"
	"github.com/cory-johannsen/sidearm/internal/observability"
	"github.com/cory-johannsen/sidearm/internal/scripting"
	"github.com/cory-johannsen/sidearm/internal/server"
	"github.com/cory-johannsen/sidearm/internal/sim"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	pistolID := flag.String("pistol", "p226", "pistol prop id")
	seed := flag.Uint64("seed", 0, "seed for cartridge ejection; 0 uses crypto/rand")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	reg, err := prop.LoadRegistry(cfg.Content.PropsDir)
	if err != nil {
		logger.Fatal("loading props", zap.Error(err))
	}
	def := reg.Pistol(*pistolID)
	if def == nil {
		fmt.Fprintf(os.Stderr, "unknown pistol %q; available: %v\n", *pistolID, reg.PistolIDs())
		os.Exit(2)
	}

	scripts := scripting.NewManager(logger)
	defer scripts.Close()
	n, err := sim.LoadScripts(scripts, reg, cfg.Scripting.ScriptDir, cfg.Scripting.InstructionLimit)
	if err != nil {
		logger.Fatal("loading scripts", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Strings("pistols", reg.PistolIDs()),
		zap.Int("scripts", n),
	)

	var src rng.Source = rng.NewCryptoSource()
	if *seed != 0 {
		src = rng.NewSeededSource(*seed)
	}

	sink := audio.NewSink(audio.Config{
		Enabled:    cfg.Audio.Enabled,
		SampleRate: cfg.Audio.SampleRate,
		Volume:     cfg.Audio.Volume,
	}, logger)
	spk := device.New(sink, logger)
	var sound host.Audio = sink
	if err := spk.Start(); err != nil {
		logger.Warn("audio unavailable, continuing silent", zap.Error(err))
		sound = nil
	}

	simCfg, pistolCfg := sim.Settings(cfg)
	rg, err := sim.NewRange(simCfg, pistolCfg, def, reg.Magazine(def.Magazine),
		sound, sim.ScriptNotifiers(scripts)(def), src, logger)
	if err != nil {
		logger.Fatal("building range", zap.Error(err))
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Fatal("creating screen", zap.Error(err))
	}
	if err := screen.Init(); err != nil {
		logger.Fatal("initializing screen", zap.Error(err))
	}
	defer screen.Fini()
	ui := tui.New(screen, rg, cfg.Sim.TickInterval, logger)

	lifecycle := server.NewLifecycle(logger)

	audioDone := make(chan struct{})
	lifecycle.Add("audio", &server.FuncService{
		StartFn: func() error {
			<-audioDone
			return nil
		},
		StopFn: func() {
			spk.Close()
			close(audioDone)
		},
	})
	lifecycle.Add("tui", &server.FuncService{
		StartFn: ui.Run,
		StopFn:  ui.Stop,
	})

	logger.Info("range initialized",
		zap.String("pistol", def.ID),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		screen.Fini()
		logger.Fatal("range error", zap.Error(err))
	}
}
