package main

import (
	"fmt"
	"os"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/history"
	"github.com/lox/liarsdice/internal/lobby"
	"github.com/lox/liarsdice/internal/server"
)

// ServerCmd runs the websocket game server
type ServerCmd struct {
	Config   string `short:"c" default:"liarsdice.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Address to bind to, host:port (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	History  string `help:"History driver: none, file or sqlite (overrides config)"`
	Path     string `help:"History file or directory (overrides config)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.History != "" {
		cfg.History.Driver = c.History
	}
	if c.Path != "" {
		cfg.History.Path = c.Path
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	addr := cfg.Addr()
	if c.Addr != "" {
		addr = c.Addr
	}

	logger := newLogger(os.Stderr, cfg.Server.LogLevel)
	ctx, cancel := signalContext(logger)
	defer cancel()

	store, err := history.Open(cfg.HistoryConfig(), logger.WithPrefix("history"))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close history store", "error", err)
		}
	}()

	rules := cfg.GameRules()
	hub := server.NewHub(logger)

	// the lobby reports new games to the service, which is built from the lobby
	var svc *server.Service
	rooms := lobby.NewManager(
		lobby.WithLogger(logger),
		lobby.WithMaxPlayers(rules.MaxPlayers),
		lobby.WithGameOptions(
			game.WithRules(rules),
			game.WithPublisher(hub.Publisher()),
			game.WithRecorder(store),
			game.WithLogger(logger),
		),
		lobby.WithGameCreated(func(roomID string, g *game.Game, roster game.Roster) {
			svc.GameCreated(roomID, g, roster)
		}),
	)
	svc = server.NewService(rooms, hub, store, logger)
	srv := server.NewServer(addr, svc, logger)

	logger.Info("Starting Liar's Dice server",
		"addr", addr,
		"starting_dice", rules.StartingDice,
		"wild_face", rules.WildFace,
		"max_players", rules.MaxPlayers,
		"history", cfg.HistoryConfig().Driver)

	return srv.Start(ctx)
}
