package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/cardengine/cardengine/internal/app"
	"github.com/cardengine/cardengine/internal/cardops"
	"github.com/cardengine/cardengine/internal/cardtools"
	"github.com/cardengine/cardengine/internal/keylock"
	"github.com/cardengine/cardengine/internal/retry"
	"github.com/cardengine/cardengine/internal/store"
	pkgconfig "github.com/cardengine/cardengine/pkg/config"
)

var configFlag = &cli.StringFlag{
	Name:        "config",
	Aliases:     []string{"c"},
	Usage:       "Path to config file",
	DefaultText: "config/config.yaml",
	Value:       "config/config.yaml",
	Sources:     cli.EnvVars("APP_CONFIG_FILE"),
}

func loadConfig(cmd *cli.Command) (*app.Config, error) {
	cfg := app.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := app.Run(ctx, app.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// runMCP serves the card tool surface over stdio for LLM client
// integration, sharing the same cards directory and store the HTTP
// server uses but without the HTTP/SSE/watcher layers.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	eng := cardops.New(cardops.Config{
		Store:                st,
		CardsDir:             cfg.Cards.Path,
		AllowedRelationTypes: cfg.Cards.RelationTypes,
		Locks:                keylock.New(),
		Retry:                retry.Options{MaxRetries: 5},
	})

	srv := cardtools.New(eng)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "cardengine",
		Usage: "Dual-source design card consistency engine: Markdown files mirrored into a relational index, served over HTTP and MCP",
		Action: runServe,
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SSE broker, and optional live-reindex watcher",
				Action: runServe,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the card tool surface over stdio for LLM client integration",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
