package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/cpview/pkg/config"
)

//go:embed all:frontend/dist
var assets embed.FS

// configEnv names a TOML config file to load instead of the defaults.
const configEnv = "CPVIEW_CONFIG"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if path := os.Getenv(configEnv); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			logger.Error("config", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	app := NewApp(cfg, logger)

	err := wails.Run(&options.App{
		Title:  "cpview",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logger.Error("wails", "error", err)
		os.Exit(1)
	}
}
