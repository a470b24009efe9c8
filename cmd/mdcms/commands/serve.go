package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/mdcms/internal/config"
	"git.home.luguber.info/inful/mdcms/internal/daemon"
	"git.home.luguber.info/inful/mdcms/internal/version"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string `help:"Override server.addr from the configuration"`
	NoWatch bool   `name:"no-watch" help:"Disable configuration hot reload"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	level := g.Level
	if level == nil {
		level = root.Level()
	}
	if !root.Verbose {
		level.Set(cfg.Monitoring.Logging.Level.SlogLevel())
	}
	logger := newLogger(os.Stderr, cfg.Monitoring.Logging.Format, level)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := daemon.Options{Level: level, Version: version.Version, Logger: logger}
	if !s.NoWatch {
		opts.ConfigPath = root.Config
	}
	d, err := daemon.New(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	logger.Info("Daemon stopped successfully")
	return nil
}
