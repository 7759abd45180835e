package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/protocol"
)

func testUpdate(version uint64, status game.Status, players ...string) game.Update {
	upd := game.Update{
		GameID:  "g1",
		Version: version,
		Status:  status,
		Views:   make(map[string]game.View),
		Public:  game.View{GameID: "g1", Status: status},
	}
	for _, p := range players {
		upd.Views[p] = game.View{
			GameID:  "g1",
			Status:  status,
			Viewer:  p,
			Players: []game.PlayerView{{ID: p, Dice: []int{6}}},
		}
	}
	return upd
}

func decodeView(t *testing.T, env *protocol.Envelope) game.View {
	t.Helper()
	require.Equal(t, protocol.TypeGameState, env.Type)
	var v game.View
	require.NoError(t, env.Decode(&v))
	return v
}

func TestHubDeliversOwnView(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	alice, bob := newTestSession(), newTestSession()
	hub.Register("alice", alice)
	hub.Register("bob", bob)
	hub.Track("g1", []string{"alice", "bob"})

	hub.Publisher().Publish(testUpdate(1, game.InProgress, "alice", "bob"))

	got := alice.messages()
	require.Len(t, got, 1)
	assert.Equal(t, "alice", decodeView(t, got[0]).Viewer)

	got = bob.messages()
	require.Len(t, got, 1)
	v := decodeView(t, got[0])
	assert.Equal(t, "bob", v.Viewer)
	assert.Equal(t, "bob", v.Players[0].ID)
}

func TestHubMultipleConnections(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	first, second := newTestSession(), newTestSession()
	hub.Register("alice", first)
	hub.Register("alice", second)
	hub.Track("g1", []string{"alice"})
	assert.True(t, hub.Connected("alice"))

	hub.Publisher().Publish(testUpdate(1, game.InProgress, "alice"))
	assert.Len(t, first.messages(), 1)
	assert.Len(t, second.messages(), 1)

	hub.Unregister("alice", first)
	assert.True(t, hub.Connected("alice"))
	hub.Publisher().Publish(testUpdate(2, game.InProgress, "alice"))
	assert.Empty(t, first.messages())
	assert.Len(t, second.messages(), 1)

	hub.Unregister("alice", second)
	assert.False(t, hub.Connected("alice"))
}

func TestHubDropsStaleUpdates(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	alice := newTestSession()
	hub.Register("alice", alice)
	hub.Track("g1", []string{"alice"})

	pub := hub.Publisher()
	pub.Publish(testUpdate(2, game.InProgress, "alice"))
	pub.Publish(testUpdate(1, game.InProgress, "alice"))
	pub.Publish(testUpdate(2, game.InProgress, "alice"))
	pub.Publish(testUpdate(3, game.InProgress, "alice"))

	assert.Len(t, alice.messages(), 2)
}

func TestHubIgnoresUntrackedGames(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	alice := newTestSession()
	hub.Register("alice", alice)

	hub.Publisher().Publish(testUpdate(1, game.InProgress, "alice"))
	assert.Empty(t, alice.messages())
}

func TestHubOnlyTrackedPlayers(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	alice, mallory := newTestSession(), newTestSession()
	hub.Register("alice", alice)
	hub.Register("mallory", mallory)
	hub.Track("g1", []string{"alice"})

	// A view for an untracked player is never delivered
	hub.Publisher().Publish(testUpdate(1, game.InProgress, "alice", "mallory"))
	assert.Len(t, alice.messages(), 1)
	assert.Empty(t, mallory.messages())
}

func TestHubSpectators(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	alice, watcher := newTestSession(), newTestSession()
	hub.Register("alice", alice)
	hub.Register("carol", watcher)
	hub.Track("g1", []string{"alice"})
	hub.Watch("g1", watcher)
	hub.Watch("unknown", watcher)

	hub.Publisher().Publish(testUpdate(1, game.InProgress, "alice"))

	got := watcher.messages()
	require.Len(t, got, 1)
	v := decodeView(t, got[0])
	assert.Empty(t, v.Viewer)
	assert.Empty(t, v.Players)

	hub.Unregister("carol", watcher)
	hub.Publisher().Publish(testUpdate(2, game.InProgress, "alice"))
	assert.Empty(t, watcher.messages())
}

func TestHubForgetsFinishedGames(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	alice := newTestSession()
	hub.Register("alice", alice)
	hub.Track("g1", []string{"alice"})

	pub := hub.Publisher()
	pub.Publish(testUpdate(1, game.InProgress, "alice"))
	pub.Publish(testUpdate(2, game.Finished, "alice"))
	pub.Publish(testUpdate(3, game.Finished, "alice"))

	got := alice.messages()
	require.Len(t, got, 2)
	assert.Equal(t, game.Finished, decodeView(t, got[1]).Status)
}

func TestHubFailedSendDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	broken, bob := newTestSession(), newTestSession()
	broken.fail = true
	hub.Register("alice", broken)
	hub.Register("bob", bob)
	hub.Track("g1", []string{"alice", "bob"})

	hub.Publisher().Publish(testUpdate(1, game.InProgress, "alice", "bob"))
	assert.Len(t, bob.messages(), 1)
}

func TestHubSendToPlayers(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	alice, bob := newTestSession(), newTestSession()
	hub.Register("alice", alice)
	hub.Register("bob", bob)

	env, err := protocol.NewEnvelope(protocol.TypeRoomLeft, protocol.RoomRefData{RoomID: "r1"})
	require.NoError(t, err)
	hub.SendToPlayers([]string{"bob", "nobody"}, env)

	assert.Empty(t, alice.messages())
	assert.Len(t, bob.messages(), 1)
}

func TestHubClaim(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	first, second := newTestSession(), newTestSession()

	assert.True(t, hub.Claim("alice", first))
	assert.True(t, hub.Claim("alice", first), "claiming again from the same connection is fine")
	assert.False(t, hub.Claim("alice", second))

	hub.Unregister("alice", first)
	assert.False(t, hub.Connected("alice"))
	assert.True(t, hub.Claim("alice", second))
	assert.True(t, hub.Connected("alice"))
}
