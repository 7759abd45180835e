package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lox/liarsdice/internal/client"
	"github.com/lox/liarsdice/internal/tui"
)

// PlayCmd opens the terminal client
type PlayCmd struct {
	Config   string `short:"c" default:"liarsdice-client.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" help:"Server URL to connect to (overrides config)"`
	Name     string `short:"n" help:"Player name (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path (overrides config)"`
	NoColor  bool   `help:"Disable colours"`
}

func (c *PlayCmd) Run() error {
	cfg, err := client.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Server != "" {
		cfg.Server.URL = c.Server
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if c.LogLevel != "" {
		cfg.UI.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.UI.LogFile = c.LogFile
	}
	if c.NoColor {
		cfg.UI.NoColor = true
	}

	if cfg.Player.Name == "" {
		fmt.Print("Enter your player name: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		cfg.Player.Name = strings.TrimSpace(line)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// the terminal belongs to the UI, so logs go to a file
	logger, logFile, err := openLogFile(cfg.UI.LogFile, cfg.UI.LogLevel)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	if cfg.UI.NoColor {
		tui.DisableColor()
	}

	logger.Info("Starting client", "server", cfg.Server.URL, "player", cfg.Player.Name, "config", c.Config)

	ctx, cancel := signalContext(logger)
	defer cancel()

	conn := client.New(cfg.Server.URL, logger)
	if err := connect(ctx, conn, cfg, cfg.Player.Name); err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return tui.Run(ctx, conn, logger, cfg.RequestTimeout())
}

// connect dials the server and says hello as player.
func connect(ctx context.Context, conn *client.Client, cfg *client.Config, player string) error {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout())
	defer cancel()
	if err := conn.Connect(dialCtx); err != nil {
		return err
	}

	helloCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
	defer cancel()
	if err := conn.Hello(helloCtx, player); err != nil {
		_ = conn.Close()
		return fmt.Errorf("hello as %s: %w", player, err)
	}
	return nil
}
