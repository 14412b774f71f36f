// Package main runs the scripted range scenarios headless and reports the
// result of each. It exits non-zero when any scenario fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/config"
	"github.com/cory-johannsen/sidearm/internal/game/prop"
	"github.com/cory-johannsen/sidearm/internal/observability"
	"github.com/cory-johannsen/sidearm/internal/scripting"
	"github.com/cory-johannsen/sidearm/internal/sim"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("scenarios", "", "scenario directory; overrides content.scenarios_dir")
	seed := flag.Uint64("seed", 1, "seed for cartridge ejection; 0 uses crypto/rand")
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

	if *dir == "" {
		*dir = cfg.Content.ScenariosDir
	}
	reg, err := prop.LoadRegistry(cfg.Content.PropsDir)
	if err != nil {
		logger.Fatal("loading props", zap.Error(err))
	}
	scenarios, err := sim.LoadScenarios(*dir)
	if err != nil {
		logger.Fatal("loading scenarios", zap.Error(err))
	}

	scripts := scripting.NewManager(logger)
	defer scripts.Close()
	if _, err := sim.LoadScripts(scripts, reg, cfg.Scripting.ScriptDir, cfg.Scripting.InstructionLimit); err != nil {
		logger.Fatal("loading scripts", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	simCfg, pistolCfg := sim.Settings(cfg)
	runner := &sim.Runner{
		Registry:  reg,
		Sim:       simCfg,
		Pistol:    pistolCfg,
		Notifiers: sim.ScriptNotifiers(scripts),
		Seed:      *seed,
		Logger:    logger,
	}

	failed := 0
	for _, sc := range scenarios {
		rep, err := runner.Run(ctx, sc)
		if err != nil {
			logger.Error("scenario aborted", zap.String("scenario", sc.Name), zap.Error(err))
			fmt.Printf("ERROR %s: %v\n", sc.Name, err)
			failed++
			continue
		}
		fmt.Println(sim.FormatReport(rep))
		if !rep.Passed() {
			failed++
		}
	}
	fmt.Printf("%d/%d scenarios passed\n", len(scenarios)-failed, len(scenarios))
	if failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}
