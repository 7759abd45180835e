package main

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/liarsdice/internal/bot"
	"github.com/lox/liarsdice/internal/client"
	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/randutil"
)

// BotCmd connects one or more bots and plays until interrupted
type BotCmd struct {
	Server     string        `short:"s" default:"http://localhost:8080" help:"Server URL"`
	Name       string        `short:"n" default:"bot" help:"Name prefix; bots are called <name>-1, <name>-2, ..."`
	Count      int           `default:"1" help:"Number of bots to connect"`
	Room       string        `help:"Join this room id instead of creating one"`
	Create     string        `default:"bots" help:"Name of the room the first bot creates"`
	Password   string        `help:"Room password"`
	Players    int           `default:"0" help:"Start a game once this many players are in the created room (defaults to --count, at least 2)"`
	Games      int           `default:"0" help:"Stop after this many games (0 plays forever)"`
	Think      time.Duration `default:"500ms" help:"Pause before each move"`
	Confidence float64       `default:"0.5" help:"Probability a raise must reach before bidding higher"`
	Bluff      float64       `default:"0.1" help:"Chance of a random minimal raise"`
	Seed       *int64        `help:"Deterministic RNG seed for bluffing (optional)"`
	LogLevel   string        `short:"l" default:"info" help:"Log level"`
}

func (c *BotCmd) Run() error {
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", c.Count)
	}
	if c.Confidence <= 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence must be in (0, 1], got %g", c.Confidence)
	}
	if c.Bluff < 0 || c.Bluff > 1 {
		return fmt.Errorf("bluff must be in [0, 1], got %g", c.Bluff)
	}
	players := c.Players
	if players == 0 {
		players = max(c.Count, game.MinPlayers)
	}
	if players < game.MinPlayers {
		return fmt.Errorf("players must be at least %d, got %d", game.MinPlayers, players)
	}

	logger := newLogger(os.Stderr, c.LogLevel)
	ctx, cancel := signalContext(logger)
	defer cancel()

	cfg := client.DefaultConfig()
	cfg.Server.URL = c.Server
	if _, err := client.WebSocketURL(cfg.Server.URL); err != nil {
		return err
	}

	conns := make([]*client.Client, 0, c.Count)
	defer func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}()
	for i := range c.Count {
		name := fmt.Sprintf("%s-%d", c.Name, i+1)
		conn := client.New(cfg.Server.URL, logger.With("player", name))
		if err := connect(ctx, conn, cfg, name); err != nil {
			return err
		}
		conns = append(conns, conn)
	}

	roomID, err := c.seat(ctx, cfg, conns)
	if err != nil {
		return err
	}
	logger.Info("Bots seated", "room", roomID, "bots", c.Count, "start_at", players)

	g, ctx := errgroup.WithContext(ctx)
	for i, conn := range conns {
		opts := []bot.RunnerOption{
			bot.WithLogger(logger),
			bot.WithThinkDelay(c.Think),
			bot.WithGames(c.Games),
		}
		if i == 0 && c.Room == "" {
			opts = append(opts, bot.WithAutoStart(roomID, players))
		}
		strategy := bot.NewEstimator(c.rng(uint64(i)), bot.WithConfidence(c.Confidence), bot.WithBluff(c.Bluff))
		runner := bot.NewRunner(conn, strategy, opts...)
		g.Go(func() error {
			err := runner.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// seat puts every bot in the same room. The first bot creates it unless an
// existing room was given.
func (c *BotCmd) seat(ctx context.Context, cfg *client.Config, conns []*client.Client) (string, error) {
	roomID := c.Room
	rest := conns
	if roomID == "" {
		reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
		room, err := conns[0].CreateRoom(reqCtx, c.Create, c.Password, 0)
		cancel()
		if err != nil {
			return "", fmt.Errorf("create room: %w", err)
		}
		roomID = room.ID
		rest = conns[1:]
	}

	for _, conn := range rest {
		reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
		_, err := conn.JoinRoom(reqCtx, roomID, c.Password)
		cancel()
		if err != nil {
			return "", fmt.Errorf("%s join room %s: %w", conn.Player(), roomID, err)
		}
	}
	return roomID, nil
}

func (c *BotCmd) rng(index uint64) *rand.Rand {
	if c.Seed == nil {
		return randutil.NewSecure()
	}
	return randutil.New(randutil.SeedFrom(*c.Seed, index))
}
