package lobby

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/lox/liarsdice/internal/dice"
	"github.com/lox/liarsdice/internal/game"
)

func newTestManager(opts ...Option) *Manager {
	var n atomic.Int64
	base := []Option{
		WithBcryptCost(bcrypt.MinCost),
		WithIDGenerator(func() string { return fmt.Sprintf("id-%d", n.Add(1)) }),
		WithGameOptions(game.WithSource(dice.Scripted(2, 3, 4, 5, 6))),
	}
	return NewManager(append(base, opts...)...)
}

func TestCreateRoom(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	r, err := m.CreateRoom("alice", "high rollers", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", r.Owner)
	assert.Equal(t, []string{"alice"}, r.Members)
	assert.Equal(t, game.DefaultMaxPlayers, r.MaxPlayers)
	assert.False(t, r.HasPassword)

	for _, tc := range []struct {
		name, owner, room string
		max               int
	}{
		{"no owner", "", "room", 4},
		{"no name", "alice", "", 4},
		{"too few seats", "alice", "room", 1},
		{"too many seats", "alice", "room", 7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.CreateRoom(tc.owner, tc.room, "", tc.max)
			assert.ErrorIs(t, err, ErrInvalidRoom)
			assert.ErrorIs(t, err, game.ErrInvalidAction)
		})
	}

	assert.Len(t, m.List(), 1)
}

func TestJoin(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	r, err := m.CreateRoom("alice", "pair", "", 2)
	require.NoError(t, err)

	_, err = m.Join("missing", "bob", "")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, err, game.ErrNotFound)

	r, err = m.Join(r.ID, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, r.Members)
	assert.True(t, r.Full())

	r, err = m.Join(r.ID, "bob", "")
	require.NoError(t, err, "joining twice is a no-op")
	assert.Len(t, r.Members, 2)

	_, err = m.Join(r.ID, "carol", "")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinWithPassword(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	r, err := m.CreateRoom("alice", "private", "hunter2", 4)
	require.NoError(t, err)
	assert.True(t, r.HasPassword)

	_, err = m.Join(r.ID, "bob", "wrong")
	assert.ErrorIs(t, err, ErrBadPassword)
	assert.ErrorIs(t, err, game.ErrPermission)

	_, err = m.Join(r.ID, "bob", "")
	assert.ErrorIs(t, err, ErrBadPassword)

	r, err = m.Join(r.ID, "bob", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, r.Members)
}

func TestLeave(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	r, err := m.CreateRoom("alice", "room", "", 4)
	require.NoError(t, err)
	_, err = m.Join(r.ID, "bob", "")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Leave(r.ID, "carol"), ErrNotMember)

	require.NoError(t, m.Leave(r.ID, "alice"))
	r, err = m.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", r.Owner, "ownership passes to the next member")
	assert.Equal(t, []string{"bob"}, r.Members)

	require.NoError(t, m.Leave(r.ID, "bob"))
	_, err = m.Get(r.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound, "empty rooms close")
}

func TestDelete(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	r, err := m.CreateRoom("alice", "room", "", 4)
	require.NoError(t, err)
	_, err = m.Join(r.ID, "bob", "")
	require.NoError(t, err)

	g, err := m.StartGame(r.ID, "alice")
	require.NoError(t, err)

	err = m.Delete(r.ID, "bob")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, err, game.ErrPermission)

	require.NoError(t, m.Delete(r.ID, "alice"))
	assert.Equal(t, game.Cancelled, g.Status())
	assert.Empty(t, m.List())

	found, err := m.Game(g.ID())
	require.NoError(t, err, "games stay reachable for history")
	assert.Same(t, g, found)
}

func TestStartGame(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	r, err := m.CreateRoom("alice", "room", "", 4)
	require.NoError(t, err)

	_, err = m.StartGame(r.ID, "alice")
	assert.ErrorIs(t, err, game.ErrNotEnoughPlayers)
	_, ok := m.ActiveGame(r.ID)
	assert.False(t, ok, "a failed start leaves no game behind")

	_, err = m.Join(r.ID, "bob", "")
	require.NoError(t, err)
	_, err = m.Join(r.ID, "carol", "")
	require.NoError(t, err)

	_, err = m.StartGame(r.ID, "bob")
	assert.ErrorIs(t, err, game.ErrPermission)

	g, err := m.StartGame(r.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, game.InProgress, g.Status())

	ids := make([]string, 0, 3)
	for _, p := range g.Players() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, ids, "seats follow join order")

	active, ok := m.ActiveGame(r.ID)
	require.True(t, ok)
	assert.Same(t, g, active)

	_, err = m.StartGame(r.ID, "alice")
	assert.ErrorIs(t, err, ErrGameActive)

	_, err = m.Join(r.ID, "dave", "")
	assert.ErrorIs(t, err, ErrGameActive)

	roomID, ok := m.RoomOf(g.ID())
	require.True(t, ok)
	assert.Equal(t, r.ID, roomID)

	snap, err := m.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID(), snap.GameID)
	assert.Equal(t, "IN_PROGRESS", snap.GameStatus)
}

func TestNewGameAfterCancel(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	r, err := m.CreateRoom("alice", "room", "", 4)
	require.NoError(t, err)
	_, err = m.Join(r.ID, "bob", "")
	require.NoError(t, err)
	_, err = m.Join(r.ID, "carol", "")
	require.NoError(t, err)

	first, err := m.StartGame(r.ID, "alice")
	require.NoError(t, err)

	require.NoError(t, m.Leave(r.ID, "carol"))
	assert.Equal(t, game.Cancelled, first.Status(), "leaving mid-game cancels it")

	second, err := m.StartGame(r.ID, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Len(t, second.Players(), 2)
}

func TestConcurrentStartGame(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	r, err := m.CreateRoom("alice", "room", "", 4)
	require.NoError(t, err)
	_, err = m.Join(r.ID, "bob", "")
	require.NoError(t, err)

	var started atomic.Int32
	var eg errgroup.Group
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			if _, err := m.StartGame(r.ID, "alice"); err == nil {
				started.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	assert.Equal(t, int32(1), started.Load(), "exactly one active game per room")
}

func TestGameCreatedHookRunsBeforeStart(t *testing.T) {
	t.Parallel()

	var seen []game.Status
	var roster game.Roster
	m := newTestManager(WithGameCreated(func(roomID string, g *game.Game, r game.Roster) {
		seen = append(seen, g.Status())
		roster = r
	}))
	r, err := m.CreateRoom("alice", "room", "", 4)
	require.NoError(t, err)
	_, err = m.Join(r.ID, "bob", "")
	require.NoError(t, err)

	_, err = m.StartGame(r.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []game.Status{game.Waiting}, seen)
	assert.Equal(t, game.Roster{Owner: "alice", Players: []string{"alice", "bob"}}, roster)
}

func TestRoomCapFollowsRules(t *testing.T) {
	t.Parallel()

	rules := game.DefaultRules()
	rules.MaxPlayers = 2
	var announced atomic.Int32
	m := newTestManager(
		WithMaxPlayers(rules.MaxPlayers),
		WithGameOptions(game.WithRules(rules)),
		WithGameCreated(func(string, *game.Game, game.Roster) { announced.Add(1) }),
	)

	_, err := m.CreateRoom("alice", "room", "", 4)
	assert.ErrorIs(t, err, ErrInvalidRoom)

	r, err := m.CreateRoom("alice", "room", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, r.MaxPlayers)

	_, err = m.Join(r.ID, "bob", "")
	require.NoError(t, err)
	_, err = m.Join(r.ID, "carol", "")
	assert.ErrorIs(t, err, ErrRoomFull)

	g, err := m.StartGame(r.ID, "alice")
	require.NoError(t, err)
	assert.Len(t, g.Players(), 2)
	assert.Equal(t, int32(1), announced.Load())
}

func TestEliminatedPlayerCanLeave(t *testing.T) {
	t.Parallel()

	rules := game.Rules{StartingDice: 1, WildFace: game.NoWildFace, MaxPlayers: 6}
	m := newTestManager(WithGameOptions(game.WithRules(rules)))
	r, err := m.CreateRoom("alice", "room", "", 0)
	require.NoError(t, err)
	for _, p := range []string{"bob", "carol"} {
		_, err = m.Join(r.ID, p, "")
		require.NoError(t, err)
	}
	g, err := m.StartGame(r.ID, "alice")
	require.NoError(t, err)

	// three dice on the table, so alice's bid is false and costs her last die
	require.NoError(t, g.Apply("alice", game.BidAction(5, 6)))
	require.NoError(t, g.Apply("bob", game.ChallengeAction()))

	require.NoError(t, m.Leave(r.ID, "alice"))
	assert.Equal(t, game.InProgress, g.Status(), "an eliminated player leaving does not end the game")

	snap, err := m.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", snap.Owner)

	require.NoError(t, m.Leave(r.ID, "carol"))
	assert.Equal(t, game.Cancelled, g.Status(), "a player with dice leaving cancels it")
}
