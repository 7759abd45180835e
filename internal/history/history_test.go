package history

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/liarsdice/internal/dice"
	"github.com/lox/liarsdice/internal/game"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleMoves() []game.Move {
	bid := game.Bid{Player: "alice", Quantity: 3, Face: 4}
	return []game.Move{
		{Seq: 1, Round: 1, Type: game.MoveBid, Player: "alice", Bid: bid, CreatedAt: epoch},
		{
			Seq: 2, Round: 1, Type: game.MoveChallenge, Player: "bob", Bid: bid,
			CreatedAt: epoch.Add(time.Second),
			Resolution: &game.Resolution{
				Bid: bid, Challenger: "bob", Loser: "bob", TrueCount: 3, BidStood: true,
			},
		},
	}
}

func sampleResult() game.Result {
	return game.Result{
		GameID: "g1",
		Status: game.Finished,
		Winner: "alice",
		Rounds: 1,
		Moves:  2,
		Players: []game.PlayerSnapshot{
			{ID: "alice", SeatOrder: 0, DieCount: 1, Active: true},
			{ID: "bob", SeatOrder: 1, DieCount: 0},
		},
		StartedAt:  epoch,
		FinishedAt: epoch.Add(time.Minute),
	}
}

// exerciseStore checks the behaviour every Store shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "g1")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, game.ErrNotFound)

	moves := sampleMoves()
	// out of order and duplicated writes still load in sequence order, once
	require.NoError(t, s.RecordMove(ctx, "g1", moves[1]))
	require.NoError(t, s.RecordMove(ctx, "g1", moves[0]))
	require.NoError(t, s.RecordMove(ctx, "g1", moves[0]))
	require.NoError(t, s.RecordMove(ctx, "other", moves[0]))

	rec, err := s.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", rec.GameID)
	require.Len(t, rec.Moves, 2)
	assert.Equal(t, 1, rec.Moves[0].Seq)
	assert.Equal(t, game.MoveChallenge, rec.Moves[1].Type)
	require.NotNil(t, rec.Moves[1].Resolution)
	assert.Equal(t, "bob", rec.Moves[1].Resolution.Loser)
	assert.True(t, rec.Moves[0].CreatedAt.Equal(epoch))
	assert.Nil(t, rec.Result)

	require.NoError(t, s.RecordResult(ctx, sampleResult()))
	rec, err = s.Load(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, rec.Result)
	assert.Equal(t, "alice", rec.Result.Winner)
	assert.Equal(t, game.Finished, rec.Result.Status)
	assert.Len(t, rec.Result.Players, 2)
	assert.Len(t, rec.Moves, 2)
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	assert.FileExists(t, filepath.Join(dir, "game-g1.json"))

	// a fresh store sees what the first one wrote
	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	rec, err := reopened.Load(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, rec.Moves, 2)
	require.NotNil(t, rec.Result)

	_, err = reopened.Load(context.Background(), "../game-g1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	rec, err := reopened.Load(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, rec.Moves, 2)
	require.NotNil(t, rec.Result)
	assert.Equal(t, 1, rec.Result.Rounds)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{Driver: DriverFile, Path: "/tmp/x"}.Validate())
	assert.Error(t, Config{Driver: DriverFile}.Validate())
	assert.Error(t, Config{Driver: DriverSQLite}.Validate())
	assert.Error(t, Config{Driver: "postgres", Path: "x"}.Validate())
	assert.Error(t, Config{Driver: DriverFile, Path: "x", QueueSize: -1}.Validate())
}

func TestOpen(t *testing.T) {
	t.Parallel()

	s, err := Open(DefaultConfig(), quietLogger())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, s)

	s, err = Open(Config{Driver: DriverFile, Path: t.TempDir()}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "h.db"), QueueSize: 8}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &Async{}, s)
	require.NoError(t, s.Close())

	_, err = Open(Config{Driver: "nope"}, quietLogger())
	assert.Error(t, err)
}

func TestGameRecordsToFileStore(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	// alice [4 4], bob [1 2]; then alice [3 3], bob [5]
	g := game.New("played",
		game.WithRules(game.Rules{StartingDice: 2, WildFace: game.DefaultWildFace, MaxPlayers: 6}),
		game.WithSource(dice.Scripted(4, 4, 1, 2, 3, 3, 5)),
		game.WithRecorder(store),
	)
	require.NoError(t, g.Start("alice", game.Roster{Owner: "alice", Players: []string{"alice", "bob"}}))
	require.NoError(t, g.Apply("alice", game.BidAction(3, 4)))
	require.NoError(t, g.Apply("bob", game.ChallengeAction()))
	require.NoError(t, g.Apply("bob", game.BidAction(1, 6)))
	require.NoError(t, g.Apply("alice", game.ChallengeAction()))

	rec, err := store.Load(context.Background(), "played")
	require.NoError(t, err)
	played := g.History()
	require.Len(t, rec.Moves, len(played))
	for i, m := range played {
		assert.Equal(t, m.Seq, rec.Moves[i].Seq)
		assert.Equal(t, m.DisplayText(), rec.Moves[i].DisplayText())
		assert.True(t, m.CreatedAt.Equal(rec.Moves[i].CreatedAt))
	}
	require.NotNil(t, rec.Result)
	assert.Equal(t, "alice", rec.Result.Winner)
}
