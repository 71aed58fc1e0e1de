package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/pipeline"
	"github.com/starford/raido/internal/report"
	"github.com/starford/raido/internal/search"
	"github.com/starford/raido/internal/storage"
	pkgconfig "github.com/starford/raido/pkg/config"
)

// env is everything a command action needs once the workspace is open.
type env struct {
	cfg    *internal.Config
	store  storage.Provider
	pipe   *pipeline.Pipeline
	logger *slog.Logger
}

// setup loads configuration and opens the workspace. When create is true
// the workspace root is created first (the init command bootstraps from
// nothing).
func setup(cmd *cli.Command, create bool) (*env, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	paths := cfg.Workspace.Paths()
	if create {
		if err := os.MkdirAll(paths.Root, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace root: %w", err)
		}
	}
	store, err := storage.NewFS(paths.Root)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		store:  store,
		pipe:   pipeline.New(store, paths, logger, nil),
		logger: logger,
	}, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Manifest-driven knowledge-archive migration toolkit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("RAIDO_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Bootstrap the workspace: directories, taxonomy stubs, first manifest",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, true)
					if err != nil {
						return err
					}
					return e.pipe.Init()
				},
			},
			{
				Name:  "scan",
				Usage: "Rebuild the classification manifest from the staging tree",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, false)
					if err != nil {
						return err
					}
					return e.pipe.Scan()
				},
			},
			{
				Name:  "validate",
				Usage: "Check the manifest against the taxonomy (and optionally index links)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "links", Usage: "Also check index link integrity and orphans"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, false)
					if err != nil {
						return err
					}
					if _, err := e.pipe.ValidateTaxonomy(); err != nil {
						return err
					}
					if cmd.Bool("links") {
						if _, err := e.pipe.ValidateLinks(); err != nil {
							return err
						}
					}
					return nil
				},
			},
			{
				Name:    "organize",
				Aliases: []string{"run"},
				Usage:   "Relocate classified records into the archive and inject metadata headers",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "index", Usage: "Regenerate index views afterwards"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, false)
					if err != nil {
						return err
					}
					_, err = e.pipe.Organize(cmd.Bool("index"))
					return err
				},
			},
			{
				Name:  "index",
				Usage: "Regenerate the derived markdown index views",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, false)
					if err != nil {
						return err
					}
					return e.pipe.Index()
				},
			},
			{
				Name:  "report",
				Usage: "Print archive statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "tags", Usage: "Include per-tag tallies"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, false)
					if err != nil {
						return err
					}
					stats, err := e.pipe.Report(cmd.Bool("tags"))
					if err != nil {
						return err
					}
					fmt.Print(report.Render(stats))
					return nil
				},
			},
			{
				Name:  "ingest",
				Usage: "Capture text from stdin into the staging area",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, false)
					if err != nil {
						return err
					}
					content, err := io.ReadAll(os.Stdin)
					if err != nil {
						return fmt.Errorf("read stdin: %w", err)
					}
					_, err = e.pipe.Ingest(string(content))
					return err
				},
			},
			{
				Name:  "export",
				Usage: "Bundle the archive and indices into a JSON or ZIP container",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Export the JSON bundle"},
					&cli.BoolFlag{Name: "zip", Usage: "Export the ZIP container"},
					&cli.BoolFlag{Name: "verify", Usage: "Verify the JSON bundle"},
					&cli.BoolFlag{Name: "all", Usage: "Export both and verify"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, false)
					if err != nil {
						return err
					}
					all := cmd.Bool("all")
					ran := false
					if cmd.Bool("json") || all {
						if err := e.pipe.ExportJSON(); err != nil {
							return err
						}
						ran = true
					}
					if cmd.Bool("zip") || all {
						if err := e.pipe.ExportZip(); err != nil {
							return err
						}
						ran = true
					}
					if cmd.Bool("verify") || all {
						if _, err := e.pipe.VerifyBundle(); err != nil {
							return err
						}
						ran = true
					}
					if !ran {
						return e.pipe.ExportJSON()
					}
					return nil
				},
			},
			{
				Name:  "cleanup",
				Usage: "Remove the staging area",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Delete leftover staged files without confirmation"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, false)
					if err != nil {
						return err
					}
					return e.pipe.Cleanup(cmd.Bool("force"))
				},
			},
			{
				Name:  "serve",
				Usage: "Start the dashboard HTTP server with an SSE log stream",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := internal.NewDefaultConfig()
					if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
						return fmt.Errorf("failed to parse config: %w", err)
					}
					return internal.Run(ctx, internal.WithConfig(cfg))
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve archive tools over the Model Context Protocol (stdio)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := setup(cmd, false)
					if err != nil {
						return err
					}
					db, err := search.Open(e.cfg.Search.Path)
					if err != nil {
						return err
					}
					defer db.Close()
					paths := e.cfg.Workspace.Paths()
					if err := search.Sync(db, e.store, paths, e.logger); err != nil {
						e.logger.Warn("search sync failed", slog.String("error", err.Error()))
					}
					return mcpserver.New(e.store, paths, db, e.pipe).ServeStdio()
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
