package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
	"github.com/pthm-cable/gloam/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mapPath := flag.String("map", "", "ASCII layout file (empty = empty board of the configured size)")
	mode := flag.String("mode", "", "Lighting mode override: full | prebaked")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxTicks := flag.Int("max-ticks", 600, "Stop after N ticks")
	toggleEvery := flag.Int("toggle-every", 0, "Toggle every door each N ticks (0 = never)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *mode != "" {
		cfg.Lighting.Mode = *mode
		if err := cfg.Refresh(); err != nil {
			slog.Error("invalid mode", "error", err)
			os.Exit(1)
		}
	}

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var layout *game.Layout
	if *mapPath != "" {
		lampColor, err := components.ColorFromHex(cfg.Board.LampColor)
		if err != nil {
			slog.Error("invalid lamp color", "error", err)
			os.Exit(1)
		}
		lamp := game.LampSpec{Lumens: float32(cfg.Board.LampLumens), Color: lampColor}
		layout, err = game.LoadLayout(*mapPath, lamp)
		if err != nil {
			slog.Error("failed to load layout", "error", err)
			os.Exit(1)
		}
	}

	board, err := game.NewBoard(cfg, layout, game.Options{
		LogStats:    *logStats,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
	})
	if err != nil {
		slog.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	slog.Info("starting headless run",
		"map", *mapPath,
		"mode", cfg.Lighting.Mode,
		"max_ticks", *maxTicks,
		"toggle_every", *toggleEvery,
	)

	for int(board.Tick()) < *maxTicks {
		if *toggleEvery > 0 && board.Tick() > 0 && int(board.Tick())%*toggleEvery == 0 {
			for pos := range board.Doors() {
				if _, err := board.ToggleDoor(pos); err != nil {
					slog.Warn("toggle failed", "pos", pos, "error", err)
				}
			}
		}
		board.Step()
	}

	stats := board.LightingStats()
	slog.Info("run finished",
		"tick", board.Tick(),
		"exposure", board.Exposure(),
		"lighting", stats,
	)

	if *snapshotDir != "" {
		path, err := board.SaveSnapshot(*snapshotDir)
		if err != nil {
			slog.Error("failed to save final snapshot", "error", err)
		} else {
			slog.Info("final snapshot saved", "path", path)
		}
	}

	if err := board.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
		os.Exit(1)
	}
}
