package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/protocol"
)

// ErrDisconnected is returned by Run when the server closes the connection.
var ErrDisconnected = errors.New("disconnected from server")

// Conn is the part of a server connection a bot uses. *client.Client
// satisfies it.
type Conn interface {
	Player() string
	Events() <-chan *protocol.Envelope
	StartGame(roomID string) error
	Bid(gameID string, quantity, face int) error
	Challenge(gameID string) error
}

// Runner plays every game the connection is seated in.
type Runner struct {
	conn     Conn
	strategy Strategy
	logger   *log.Logger
	clock    quartz.Clock
	delay    time.Duration

	// room the bot owns and starts games in once startAt members are present
	roomID  string
	startAt int
	members int
	games   int

	played  int
	last    game.View
	lastKey string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithClock sets the clock used for the think delay.
func WithClock(clock quartz.Clock) RunnerOption {
	return func(r *Runner) { r.clock = clock }
}

// WithThinkDelay pauses before every move.
func WithThinkDelay(d time.Duration) RunnerOption {
	return func(r *Runner) { r.delay = d }
}

// WithAutoStart starts a game in roomID, which the bot must own, whenever no
// game is running and at least players members are present.
func WithAutoStart(roomID string, players int) RunnerOption {
	return func(r *Runner) {
		r.roomID = roomID
		r.startAt = players
	}
}

// WithGames makes Run return after n games have ended. Zero plays forever.
func WithGames(n int) RunnerOption {
	return func(r *Runner) { r.games = n }
}

// NewRunner creates a runner for conn.
func NewRunner(conn Conn, strategy Strategy, opts ...RunnerOption) *Runner {
	r := &Runner{
		conn:     conn,
		strategy: strategy,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		clock:    quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithPrefix("bot").With("player", conn.Player())
	return r
}

// Played returns how many games have ended while the runner was watching.
func (r *Runner) Played() int {
	return r.played
}

// Run handles events until ctx ends, the connection closes or the requested
// number of games has been played.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-r.conn.Events():
			if !ok {
				return ErrDisconnected
			}
			done, err := r.handle(ctx, env)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func (r *Runner) handle(ctx context.Context, env *protocol.Envelope) (bool, error) {
	switch env.Type {
	case protocol.TypeRoomUpdate:
		var data protocol.RoomUpdateData
		if err := env.Decode(&data); err != nil {
			return false, err
		}
		r.maybeStart(data)

	case protocol.TypeGameStarted:
		var data protocol.GameStartedData
		if err := env.Decode(&data); err == nil {
			r.logger.Info("Game started", "game", data.GameID, "room", data.RoomID)
		}

	case protocol.TypeGameState:
		var v game.View
		if err := env.Decode(&v); err != nil {
			return false, err
		}
		return r.onState(ctx, v)

	case protocol.TypeError:
		var data protocol.ErrorData
		if err := env.Decode(&data); err != nil {
			return false, err
		}
		r.logger.Warn("Server rejected a move", "code", data.Code, "message", data.Message)
		if data.Code == protocol.CodeInvalidAction && r.myTurn(r.last) {
			return false, r.fallback(r.last)
		}
	}
	return false, nil
}

func (r *Runner) maybeStart(data protocol.RoomUpdateData) {
	room := data.Room
	if r.startAt == 0 || room.ID != r.roomID || room.Owner != r.conn.Player() {
		return
	}
	r.members = len(room.Members)
	if room.GameStatus == game.InProgress.String() {
		return
	}
	r.start()
}

func (r *Runner) start() {
	if r.members < r.startAt {
		return
	}
	r.logger.Info("Starting game", "room", r.roomID, "players", r.members)
	if err := r.conn.StartGame(r.roomID); err != nil {
		r.logger.Warn("Failed to start game", "error", err)
	}
}

func (r *Runner) myTurn(v game.View) bool {
	return v.Status == game.InProgress && v.CurrentPlayerID == r.conn.Player()
}

func (r *Runner) onState(ctx context.Context, v game.View) (bool, error) {
	r.last = v

	if v.Status.Terminal() {
		r.played++
		r.logger.Info("Game over", "game", v.GameID, "status", v.Status, "winner", v.WinnerID, "played", r.played)
		if r.games > 0 && r.played >= r.games {
			return true, nil
		}
		if r.startAt > 0 {
			r.start()
		}
		return false, nil
	}
	if !r.myTurn(v) {
		return false, nil
	}

	// one decision per position; repeated views of it are ignored
	key := fmt.Sprintf("%s/%d", v.GameID, len(v.History))
	if key == r.lastKey {
		return false, nil
	}
	r.lastKey = key

	if r.delay > 0 {
		t := r.clock.NewTimer(r.delay, "bot", "think")
		select {
		case <-ctx.Done():
			t.Stop()
			return false, ctx.Err()
		case <-t.C:
		}
	}

	d := r.strategy.Decide(v, r.conn.Player())
	r.logger.Debug("Decided", "game", v.GameID, "round", v.RoundNumber, "move", d.Action.Type, "reason", d.Reason)
	return false, r.act(v.GameID, d.Action)
}

// fallback makes the safest legal move after a rejected one.
func (r *Runner) fallback(v game.View) error {
	if v.CurrentBid != nil {
		return r.act(v.GameID, game.ChallengeAction())
	}
	next := game.Bid{}.Next()
	return r.act(v.GameID, game.BidAction(next.Quantity, next.Face))
}

func (r *Runner) act(gameID string, a game.Action) error {
	switch a.Type {
	case game.MoveChallenge:
		return r.conn.Challenge(gameID)
	default:
		return r.conn.Bid(gameID, a.Quantity, a.Face)
	}
}
