// Package lobby manages rooms: who is in them, who owns them and which game is
// currently being played in each. A room has at most one active game at a time.
package lobby

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/crypto/bcrypt"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/gameid"
)

// MaxNameLength bounds room names.
const MaxNameLength = 100

// Room is a snapshot of a room's public state.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Owner       string    `json:"owner"`
	HasPassword bool      `json:"hasPassword"`
	MaxPlayers  int       `json:"maxPlayers"`
	Members     []string  `json:"members"`
	GameID      string    `json:"gameId,omitempty"`
	GameStatus  string    `json:"gameStatus,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Full reports whether no more players can join.
func (r Room) Full() bool {
	return len(r.Members) >= r.MaxPlayers
}

type room struct {
	id           string
	name         string
	owner        string
	passwordHash []byte
	maxPlayers   int
	members      []string
	game         *game.Game
	createdAt    time.Time
}

func (r *room) member(user string) bool {
	return slices.Contains(r.members, user)
}

// activeGame returns the room's game unless it has ended.
func (r *room) activeGame() *game.Game {
	if r.game == nil || r.game.Status().Terminal() {
		return nil
	}
	return r.game
}

func (r *room) snapshot() Room {
	s := Room{
		ID:          r.id,
		Name:        r.name,
		Owner:       r.owner,
		HasPassword: len(r.passwordHash) > 0,
		MaxPlayers:  r.maxPlayers,
		Members:     slices.Clone(r.members),
		CreatedAt:   r.createdAt,
	}
	if r.game != nil {
		s.GameID = r.game.ID()
		s.GameStatus = r.game.Status().String()
	}
	return s
}

// Manager owns every room and the games started in them.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*room
	games map[string]*game.Game

	clock      quartz.Clock
	logger     *log.Logger
	newID      func() string
	bcryptCost int
	maxPlayers int
	gameOpts   []game.Option
	onCreate   func(roomID string, g *game.Game, roster game.Roster)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for room timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithIDGenerator replaces gameid.Generate for room and game ids.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// WithBcryptCost sets the cost of room password hashes.
func WithBcryptCost(cost int) Option {
	return func(m *Manager) { m.bcryptCost = cost }
}

// WithMaxPlayers caps every room; it should match the rules games are created
// with. Defaults to game.DefaultMaxPlayers.
func WithMaxPlayers(n int) Option {
	return func(m *Manager) { m.maxPlayers = n }
}

// WithGameOptions are applied to every game the manager creates.
func WithGameOptions(opts ...game.Option) Option {
	return func(m *Manager) { m.gameOpts = append(m.gameOpts, opts...) }
}

// WithGameCreated registers a hook that runs after a game is created and before
// it starts, so that subscribers exist before the first update is published. It
// is called without the manager's lock held.
func WithGameCreated(fn func(roomID string, g *game.Game, roster game.Roster)) Option {
	return func(m *Manager) { m.onCreate = fn }
}

// NewManager creates an empty lobby.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rooms:      make(map[string]*room),
		games:      make(map[string]*game.Game),
		clock:      quartz.NewReal(),
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
		newID:      gameid.Generate,
		bcryptCost: bcrypt.DefaultCost,
		maxPlayers: game.DefaultMaxPlayers,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithPrefix("lobby")
	return m
}

// CreateRoom opens a room owned by owner, who becomes its first member. An empty
// password leaves the room open; maxPlayers of zero means the manager's cap.
func (m *Manager) CreateRoom(owner, name, password string, maxPlayers int) (Room, error) {
	if owner == "" {
		return Room{}, fmt.Errorf("%w: owner is required", ErrInvalidRoom)
	}
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return Room{}, fmt.Errorf("%w: name must be 1 to %d characters", ErrInvalidRoom, MaxNameLength)
	}
	if maxPlayers == 0 {
		maxPlayers = m.maxPlayers
	}
	if maxPlayers < game.MinPlayers || maxPlayers > m.maxPlayers {
		return Room{}, fmt.Errorf("%w: max players must be between %d and %d", ErrInvalidRoom, game.MinPlayers, m.maxPlayers)
	}

	r := &room{
		id:         m.newID(),
		name:       name,
		owner:      owner,
		maxPlayers: maxPlayers,
		members:    []string{owner},
		createdAt:  m.clock.Now(),
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
		if err != nil {
			return Room{}, fmt.Errorf("hash room password: %w", err)
		}
		r.passwordHash = hash
	}

	m.mu.Lock()
	m.rooms[r.id] = r
	snap := r.snapshot()
	m.mu.Unlock()

	m.logger.Info("Room created", "room", r.id, "name", name, "owner", owner, "max_players", maxPlayers)
	return snap, nil
}

// Join adds user to a room. Joining a room you are already in is a no-op.
func (m *Manager) Join(roomID, user, password string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return Room{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if r.member(user) {
		return r.snapshot(), nil
	}
	if user == "" {
		return Room{}, fmt.Errorf("%w: user is required", ErrInvalidRoom)
	}
	if len(r.members) >= r.maxPlayers {
		return Room{}, fmt.Errorf("%w: %s has %d of %d players", ErrRoomFull, roomID, len(r.members), r.maxPlayers)
	}
	if r.activeGame() != nil {
		return Room{}, fmt.Errorf("%w: cannot join %s mid-game", ErrGameActive, roomID)
	}
	if len(r.passwordHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(r.passwordHash, []byte(password)); err != nil {
			return Room{}, ErrBadPassword
		}
	}

	r.members = append(r.members, user)
	m.logger.Info("Player joined room", "room", roomID, "player", user, "members", len(r.members))
	return r.snapshot(), nil
}

// Leave removes user from a room. A game in which they still hold dice is
// cancelled, ownership passes to the next member in join order, and the room
// closes once it is empty.
func (m *Manager) Leave(roomID, user string) error {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	idx := slices.Index(r.members, user)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s is not in %s", ErrNotMember, user, roomID)
	}

	r.members = slices.Delete(r.members, idx, idx+1)
	active := r.activeGame()
	if len(r.members) == 0 {
		delete(m.rooms, roomID)
	} else if r.owner == user {
		r.owner = r.members[0]
	}
	owner := r.owner
	m.mu.Unlock()

	m.logger.Info("Player left room", "room", roomID, "player", user, "owner", owner)
	if active != nil && stillPlaying(active, user) {
		if err := active.Cancel(user + " left the room"); err != nil {
			m.logger.Debug("Game already over", "game", active.ID(), "error", err)
		}
	}
	return nil
}

// stillPlaying reports whether user has dice left in g. Eliminated players and
// members who joined after the deal can leave without ending it.
func stillPlaying(g *game.Game, user string) bool {
	for _, p := range g.Players() {
		if p.ID == user {
			return p.Active
		}
	}
	return false
}

// Delete closes a room and cancels its active game. Only the owner may delete.
func (m *Manager) Delete(roomID, user string) error {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if r.owner != user {
		m.mu.Unlock()
		return ErrNotOwner
	}
	delete(m.rooms, roomID)
	active := r.activeGame()
	m.mu.Unlock()

	m.logger.Info("Room deleted", "room", roomID, "owner", user)
	if active != nil {
		if err := active.Cancel("room deleted"); err != nil {
			m.logger.Debug("Game already over", "game", active.ID(), "error", err)
		}
	}
	return nil
}

// List returns every open room, oldest first.
func (m *Manager) List() []Room {
	m.mu.RLock()
	out := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.snapshot())
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Room) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Get returns one room.
func (m *Manager) Get(roomID string) (Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return Room{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return r.snapshot(), nil
}

// StartGame creates a game for the room's current members and starts it on
// behalf of initiator. The game is registered before it starts, so a concurrent
// StartGame on the same room fails with ErrGameActive.
func (m *Manager) StartGame(roomID, initiator string) (*game.Game, error) {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if g := r.activeGame(); g != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrGameActive, g.ID())
	}
	// Checked here as well as by the engine so no game is announced for a
	// start that cannot succeed
	if initiator != r.owner {
		m.mu.Unlock()
		return nil, ErrNotOwner
	}
	if len(r.members) < game.MinPlayers {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: need at least %d players, have %d", game.ErrNotEnoughPlayers, game.MinPlayers, len(r.members))
	}
	if limit := min(r.maxPlayers, m.maxPlayers); len(r.members) > limit {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: at most %d players, have %d", ErrRoomFull, limit, len(r.members))
	}
	prev := r.game
	g := game.New(m.newID(), m.gameOpts...)
	roster := game.Roster{Owner: r.owner, Players: slices.Clone(r.members)}
	r.game = g
	m.games[g.ID()] = g
	m.mu.Unlock()

	if m.onCreate != nil {
		m.onCreate(roomID, g, roster)
	}
	if err := g.Start(initiator, roster); err != nil {
		m.mu.Lock()
		if r.game == g {
			r.game = prev
		}
		delete(m.games, g.ID())
		m.mu.Unlock()
		return nil, err
	}

	m.logger.Info("Game started", "room", roomID, "game", g.ID(), "players", len(roster.Players))
	return g, nil
}

// ActiveGame returns the room's game if one is waiting or in progress.
func (m *Manager) ActiveGame(roomID string) (*game.Game, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}
	g := r.activeGame()
	return g, g != nil
}

// Game looks up any game started by this manager, finished ones included.
func (m *Manager) Game(gameID string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	return g, nil
}

// RoomOf returns the id of the room a game was started in.
func (m *Manager) RoomOf(gameID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, r := range m.rooms {
		if r.game != nil && r.game.ID() == gameID {
			return id, true
		}
	}
	return "", false
}
