package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/liarsdice/internal/dice"
)

// Roster is supplied by the room service when a game starts: the room owner and
// the participants in join order.
type Roster struct {
	Owner   string
	Players []string
}

// Game is the authoritative state of one match. All methods are safe for
// concurrent use; writes are applied one at a time.
type Game struct {
	id        string
	rules     Rules
	source    dice.Source
	clock     quartz.Clock
	logger    *log.Logger
	publisher Publisher
	recorder  Recorder

	mu        sync.RWMutex
	status    Status
	owner     string
	seats     []*seat
	index     map[string]int
	current   int
	round     int
	ledger    *Ledger
	history   []Move
	seq       int
	version   uint64
	winner    string
	reason    string
	createdAt time.Time
	startedAt time.Time
	updatedAt time.Time
}

// New creates a game in the WAITING state.
func New(id string, opts ...Option) *Game {
	if id == "" {
		panic("game: id is required")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.rules.Validate(); err != nil {
		panic("game: " + err.Error())
	}
	cfg.finish()

	now := cfg.clock.Now()
	return &Game{
		id:        id,
		rules:     cfg.rules,
		source:    cfg.source,
		clock:     cfg.clock,
		logger:    cfg.logger.WithPrefix("game").With("game", id),
		publisher: cfg.publisher,
		recorder:  cfg.recorder,
		status:    Waiting,
		index:     make(map[string]int),
		current:   -1,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the game id.
func (g *Game) ID() string {
	return g.id
}

// Rules returns the rules the game was created with.
func (g *Game) Rules() Rules {
	return g.rules
}

// Status returns the current lifecycle state.
func (g *Game) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// CurrentPlayer returns whose turn it is, if anyone's.
func (g *Game) CurrentPlayer() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current < 0 {
		return "", false
	}
	return g.seats[g.current].id, true
}

// Winner returns the winner once the game is FINISHED.
func (g *Game) Winner() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.winner, g.winner != ""
}

// Round returns the current round number; zero before the game starts.
func (g *Game) Round() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.round
}

// History returns every move recorded so far, across all rounds.
func (g *Game) History() []Move {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Move(nil), g.history...)
}

// Players returns snapshots of every participant in seat order, including their
// concealed dice.
func (g *Game) Players() []PlayerSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]PlayerSnapshot, len(g.seats))
	for i, s := range g.seats {
		out[i] = s.snapshot()
	}
	return out
}

// ViewFor returns the projection player may see. Before the game starts there
// are no participants, so any caller gets the (empty) table.
func (g *Game) ViewFor(player string) (View, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.status != Waiting {
		if _, ok := g.index[player]; !ok {
			return View{}, fmt.Errorf("%w: player %q is not in game %s", ErrNotFound, player, g.id)
		}
	}
	return g.buildView(player), nil
}

// PublicView returns the projection with no dice, for spectators.
func (g *Game) PublicView() View {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.buildView("")
}

// Start seats the roster, rolls everyone's dice and opens round one. Only the
// room owner may start a game.
func (g *Game) Start(initiator string, roster Roster) error {
	g.mu.Lock()
	if err := g.start(initiator, roster); err != nil {
		g.mu.Unlock()
		g.logger.Debug("Start rejected", "initiator", initiator, "error", err)
		return err
	}
	upd := g.updateLocked()
	g.mu.Unlock()

	g.logger.Info("Game started", "players", len(roster.Players), "first", roster.Players[0])
	g.emit(upd, nil, nil)
	return nil
}

func (g *Game) start(initiator string, roster Roster) error {
	if g.status != Waiting {
		return fmt.Errorf("%w: game %s is %s", ErrInvalidAction, g.id, g.status)
	}
	if initiator == "" || initiator != roster.Owner {
		return fmt.Errorf("%w: only the room owner can start the game", ErrPermission)
	}
	if len(roster.Players) < MinPlayers {
		return fmt.Errorf("%w: need at least %d players, have %d", ErrNotEnoughPlayers, MinPlayers, len(roster.Players))
	}
	if len(roster.Players) > g.rules.MaxPlayers {
		return fmt.Errorf("%w: at most %d players, have %d", ErrInvalidAction, g.rules.MaxPlayers, len(roster.Players))
	}

	seen := make(map[string]bool, len(roster.Players))
	for _, id := range roster.Players {
		if id == "" {
			return fmt.Errorf("%w: empty player id", ErrInvalidAction)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate player %q", ErrInvalidAction, id)
		}
		seen[id] = true
	}

	g.owner = roster.Owner
	g.seats = make([]*seat, len(roster.Players))
	for i, id := range roster.Players {
		g.seats[i] = &seat{id: id, order: i, dieCount: g.rules.StartingDice}
		g.index[id] = i
	}
	g.status = InProgress
	g.startedAt = g.clock.Now()
	g.openRound(1, 0)
	return nil
}

// openRound re-rolls every active player and clears the ledger.
func (g *Game) openRound(round, opener int) {
	g.round = round
	for _, s := range g.seats {
		if s.active() {
			s.pool = dice.Roll(g.source, s.dieCount)
		}
	}
	if g.ledger == nil {
		g.ledger = NewLedger(round, g.stamp)
	} else {
		g.ledger.Reset(round)
	}
	g.current = opener
}

func (g *Game) stamp(m *Move) {
	g.seq++
	m.Seq = g.seq
	m.CreatedAt = g.clock.Now()
}

// Apply performs a bid or challenge for player. The state is unchanged if an
// error is returned.
func (g *Game) Apply(player string, action Action) error {
	g.mu.Lock()
	move, result, err := g.apply(player, action)
	if err != nil {
		g.mu.Unlock()
		g.logger.Debug("Action rejected", "player", player, "type", action.Type, "error", err)
		return err
	}
	upd := g.updateLocked()
	g.mu.Unlock()

	g.logger.Debug("Move applied", "seq", move.Seq, "text", move.DisplayText())
	g.emit(upd, []Move{move}, result)
	return nil
}

func (g *Game) apply(player string, action Action) (Move, *Result, error) {
	if g.status != InProgress {
		return Move{}, nil, fmt.Errorf("%w: game %s is %s", ErrWrongTurn, g.id, g.status)
	}
	idx, ok := g.index[player]
	if !ok {
		return Move{}, nil, fmt.Errorf("%w: player %q is not in game %s", ErrNotFound, player, g.id)
	}
	if idx != g.current {
		return Move{}, nil, fmt.Errorf("%w: it is %s's turn", ErrWrongTurn, g.seats[g.current].id)
	}

	switch action.Type {
	case MoveBid:
		move, err := g.ledger.RecordBid(player, action.Quantity, action.Face)
		if err != nil {
			return Move{}, nil, err
		}
		g.history = append(g.history, move)
		g.current = nextActive(g.seats, idx)
		return move, nil, nil

	case MoveChallenge:
		move, err := g.ledger.RecordChallenge(player)
		if err != nil {
			return Move{}, nil, err
		}
		return g.settle(move)

	default:
		return Move{}, nil, fmt.Errorf("%w: unknown move type %d", ErrInvalidAction, int(action.Type))
	}
}

// settle resolves the closing challenge, takes a die from the loser and either
// ends the game or deals the next round.
func (g *Game) settle(challenge Move) (Move, *Result, error) {
	pools := make(map[string]dice.Pool, activeCount(g.seats))
	for _, s := range g.seats {
		if s.active() {
			pools[s.id] = s.pool
		}
	}

	res := Resolve(g.rules, pools, challenge.Bid, challenge.Player)
	loser := g.index[res.Loser]
	g.seats[loser].loseDie()
	res.Eliminated = !g.seats[loser].active()

	move := g.ledger.settle(res)
	g.history = append(g.history, move)

	g.logger.Info("Challenge resolved",
		"round", g.round,
		"bid", res.Bid.String(),
		"bidder", res.Bid.Player,
		"challenger", res.Challenger,
		"found", res.TrueCount,
		"loser", res.Loser,
		"eliminated", res.Eliminated,
		"remaining", activeCount(g.seats))

	if winner := soleSurvivor(g.seats); winner >= 0 {
		g.status = Finished
		g.winner = g.seats[winner].id
		g.current = -1
		g.logger.Info("Game finished", "winner", g.winner, "rounds", g.round)
		result := g.resultLocked()
		return move, &result, nil
	}

	g.openRound(g.round+1, openingPlayer(g.seats, loser))
	return move, nil, nil
}

// Cancel aborts the game from any non-terminal state.
func (g *Game) Cancel(reason string) error {
	g.mu.Lock()
	if g.status.Terminal() {
		status := g.status
		g.mu.Unlock()
		return fmt.Errorf("%w: game %s is already %s", ErrInvalidAction, g.id, status)
	}
	g.status = Cancelled
	g.reason = reason
	g.current = -1
	result := g.resultLocked()
	upd := g.updateLocked()
	g.mu.Unlock()

	g.logger.Info("Game cancelled", "reason", reason)
	g.emit(upd, nil, &result)
	return nil
}

// updateLocked bumps the version and builds every participant's view. The write
// lock must be held.
func (g *Game) updateLocked() Update {
	g.version++
	g.updatedAt = g.clock.Now()
	upd := Update{
		GameID:  g.id,
		Version: g.version,
		Status:  g.status,
		Views:   make(map[string]View, len(g.seats)),
		Public:  g.buildView(""),
	}
	for _, s := range g.seats {
		upd.Views[s.id] = g.buildView(s.id)
	}
	return upd
}

func (g *Game) resultLocked() Result {
	players := make([]PlayerSnapshot, len(g.seats))
	for i, s := range g.seats {
		snap := s.snapshot()
		snap.Dice = nil
		players[i] = snap
	}
	return Result{
		GameID:     g.id,
		Status:     g.status,
		Winner:     g.winner,
		Rounds:     g.round,
		Moves:      len(g.history),
		Reason:     g.reason,
		Players:    players,
		StartedAt:  g.startedAt,
		FinishedAt: g.clock.Now(),
	}
}

// emit hands the update to the publisher and persists moves. It runs without
// the lock held.
func (g *Game) emit(upd Update, moves []Move, result *Result) {
	if g.publisher != nil {
		g.publisher.Publish(upd)
	}
	if g.recorder == nil {
		return
	}
	ctx := context.Background()
	for _, m := range moves {
		if err := g.recorder.RecordMove(ctx, g.id, m); err != nil {
			g.logger.Warn("Failed to record move", "seq", m.Seq, "error", err)
		}
	}
	if result != nil {
		if err := g.recorder.RecordResult(ctx, *result); err != nil {
			g.logger.Warn("Failed to record result", "error", err)
		}
	}
}
