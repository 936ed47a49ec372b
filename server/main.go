package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/config"
	"github.com/meikuraledutech/flowcanvas/editor"
	"github.com/meikuraledutech/flowcanvas/gemini"
	"github.com/meikuraledutech/flowcanvas/postgres"
	"github.com/meikuraledutech/flowcanvas/resolve"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "flowcanvas-server",
		Short:        "HTTP surface for flowcanvas design canvases",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd(), initConfigCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	var (
		cfgPath string
		addr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "flowcanvas.toml", "Path to the TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func initConfigCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "flowcanvas.toml", "Where to write the config file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	history, closeHistory, err := openHistory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeHistory()

	var svc resolve.Service
	if c, err := gemini.New(cfg.Gemini.Client()); err != nil {
		logger.Warn("generation disabled", "error", err)
	} else {
		svc = c
	}

	m := editor.NewManager(editor.Options{
		Limits:       cfg.Canvas.Limits(),
		Fallback:     cfg.Canvas.FallbackSize(),
		SettleDelay:  cfg.Canvas.SettleDelay(),
		CursorZoom:   cfg.Canvas.CursorZoom,
		DefaultModel: cfg.Canvas.DefaultModel,
		Service:      svc,
		History:      history,
		Logger:       logger,
	})
	defer m.CloseAll()

	app := newApp(m, history, logger)
	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	logger.Info("listening", "addr", cfg.Server.Addr)
	return app.Listen(cfg.Server.Addr)
}

// openHistory connects the configured history store. Without a database URL
// history lives in memory for the life of the process.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (flowcanvas.HistoryStore, func(), error) {
	if cfg.Database.URL == "" {
		logger.Info("history kept in memory")
		return flowcanvas.NewMemoryHistory(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	store := postgres.New(pool)
	if err := store.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("schema: %w", err)
	}
	logger.Info("history kept in postgres")
	return store, pool.Close, nil
}
