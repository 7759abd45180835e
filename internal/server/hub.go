package server

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/protocol"
)

// Subscriber is anything that can be sent envelopes; in production a Connection.
type Subscriber interface {
	Send(*protocol.Envelope) error
}

type gameSubs struct {
	players    map[string]struct{}
	spectators map[Subscriber]struct{}
	version    uint64
}

// Hub routes game updates to connections. It tracks which players take part in
// which game and which connections belong to which player, and delivers each
// player only their own view. Spectators get the public view.
type Hub struct {
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]map[Subscriber]struct{}
	games    map[string]*gameSubs
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:   logger.WithPrefix("hub"),
		sessions: make(map[string]map[Subscriber]struct{}),
		games:    make(map[string]*gameSubs),
	}
}

// Register associates a connection with a player. A player may have several.
func (h *Hub) Register(player string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.sessions[player]
	if !ok {
		conns = make(map[Subscriber]struct{})
		h.sessions[player] = conns
	}
	conns[sub] = struct{}{}
}

// Claim registers sub for player unless another connection already holds the
// name. It reports whether sub now holds it.
func (h *Hub) Claim(player string, sub Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for other := range h.sessions[player] {
		if other != sub {
			return false
		}
	}
	conns, ok := h.sessions[player]
	if !ok {
		conns = make(map[Subscriber]struct{})
		h.sessions[player] = conns
	}
	conns[sub] = struct{}{}
	return true
}

// Unregister forgets a connection everywhere.
func (h *Hub) Unregister(player string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.sessions[player]; ok {
		delete(conns, sub)
		if len(conns) == 0 {
			delete(h.sessions, player)
		}
	}
	for _, g := range h.games {
		delete(g.spectators, sub)
	}
}

// Track records the participants of a game. Updates for untracked games are
// dropped, so Track must be called before the game starts.
func (h *Hub) Track(gameID string, players []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g := h.gameLocked(gameID)
	for _, p := range players {
		g.players[p] = struct{}{}
	}
}

// Watch subscribes a non-participant to a game's public view.
func (h *Hub) Watch(gameID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if g, ok := h.games[gameID]; ok {
		g.spectators[sub] = struct{}{}
	}
}

func (h *Hub) gameLocked(gameID string) *gameSubs {
	g, ok := h.games[gameID]
	if !ok {
		g = &gameSubs{
			players:    make(map[string]struct{}),
			spectators: make(map[Subscriber]struct{}),
		}
		h.games[gameID] = g
	}
	return g
}

// Publisher returns the callback games publish their updates through.
func (h *Hub) Publisher() game.Publisher {
	return game.PublisherFunc(h.deliver)
}

// deliver sends each tracked player their own view. Updates with a version no
// newer than the last one delivered for the game are dropped. The lock is held
// while queueing so that deliveries for a game cannot interleave.
func (h *Hub) deliver(upd game.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.games[upd.GameID]
	if !ok {
		h.logger.Debug("Dropping update for untracked game", "game", upd.GameID, "version", upd.Version)
		return
	}
	if upd.Version <= g.version {
		h.logger.Debug("Dropping stale update", "game", upd.GameID, "version", upd.Version, "delivered", g.version)
		return
	}
	g.version = upd.Version

	sent := 0
	for player := range g.players {
		view, ok := upd.Views[player]
		if !ok {
			continue
		}
		env, err := protocol.NewEnvelope(protocol.TypeGameState, view)
		if err != nil {
			h.logger.Error("Failed to encode view", "game", upd.GameID, "player", player, "error", err)
			continue
		}
		for sub := range h.sessions[player] {
			if err := sub.Send(env); err == nil {
				sent++
			}
		}
	}
	if len(g.spectators) > 0 {
		env, err := protocol.NewEnvelope(protocol.TypeGameState, upd.Public)
		if err == nil {
			for sub := range g.spectators {
				if err := sub.Send(env); err == nil {
					sent++
				}
			}
		}
	}

	if upd.Status.Terminal() {
		delete(h.games, upd.GameID)
	}
	h.logger.Debug("Delivered update", "game", upd.GameID, "version", upd.Version, "status", upd.Status, "recipients", sent)
}

// SendToPlayers sends one envelope to every connection of each player.
func (h *Hub) SendToPlayers(players []string, env *protocol.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range players {
		for sub := range h.sessions[p] {
			_ = sub.Send(env)
		}
	}
}

// Connected reports whether a player has at least one live connection.
func (h *Hub) Connected(player string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[player]) > 0
}
