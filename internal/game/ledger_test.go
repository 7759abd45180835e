package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBidOutranks(t *testing.T) {
	t.Parallel()

	prev := Bid{Quantity: 3, Face: 4}
	tests := []struct {
		name string
		bid  Bid
		want bool
	}{
		{"higher face same quantity", Bid{Quantity: 3, Face: 5}, true},
		{"higher quantity any face", Bid{Quantity: 4, Face: 2}, true},
		{"same bid", Bid{Quantity: 3, Face: 4}, false},
		{"lower face", Bid{Quantity: 3, Face: 3}, false},
		{"lower quantity higher face", Bid{Quantity: 2, Face: 6}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bid.Outranks(prev))
		})
	}
}

func TestBidNext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Bid{Quantity: 1, Face: 1}, Bid{}.Next())
	assert.Equal(t, Bid{Quantity: 3, Face: 5}, Bid{Quantity: 3, Face: 4}.Next())
	assert.Equal(t, Bid{Quantity: 4, Face: 1}, Bid{Quantity: 3, Face: 6}.Next())

	for _, b := range []Bid{{Quantity: 1, Face: 1}, {Quantity: 2, Face: 6}, {Quantity: 7, Face: 3}} {
		assert.True(t, b.Next().Outranks(b), "%s", b)
	}
}

func TestLedgerRecordBid(t *testing.T) {
	t.Parallel()

	l := NewLedger(1, nil)
	_, ok := l.LastBid()
	assert.False(t, ok)
	assert.False(t, l.Open())

	m, err := l.RecordBid("alice", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, MoveBid, m.Type)
	assert.Equal(t, 1, m.Round)
	assert.True(t, l.Open())

	_, err = l.RecordBid("bob", 3, 4)
	assert.ErrorIs(t, err, ErrInvalidAction, "equal bid must be rejected")
	_, err = l.RecordBid("bob", 2, 6)
	assert.ErrorIs(t, err, ErrInvalidAction, "lower quantity must be rejected")

	_, err = l.RecordBid("bob", 3, 5)
	require.NoError(t, err)
	_, err = l.RecordBid("carol", 4, 2)
	require.NoError(t, err)

	top, ok := l.LastBid()
	require.True(t, ok)
	assert.Equal(t, Bid{Player: "carol", Quantity: 4, Face: 2}, top)
	assert.Len(t, l.Moves(), 3, "rejected bids are not recorded")
}

func TestLedgerRejectsMalformedBids(t *testing.T) {
	t.Parallel()

	l := NewLedger(1, nil)
	for _, b := range []struct{ q, f int }{{0, 3}, {-1, 3}, {2, 0}, {2, 7}} {
		_, err := l.RecordBid("alice", b.q, b.f)
		if !errors.Is(err, ErrInvalidAction) {
			t.Errorf("bid %d %ds: expected ErrInvalidAction, got %v", b.q, b.f, err)
		}
	}
	assert.Empty(t, l.Moves())
}

func TestLedgerChallenge(t *testing.T) {
	t.Parallel()

	t.Run("requires a bid", func(t *testing.T) {
		l := NewLedger(1, nil)
		_, err := l.RecordChallenge("alice")
		assert.ErrorIs(t, err, ErrInvalidAction)
		assert.False(t, l.Closed())
	})

	t.Run("closes the round", func(t *testing.T) {
		l := NewLedger(2, nil)
		_, err := l.RecordBid("alice", 2, 3)
		require.NoError(t, err)

		m, err := l.RecordChallenge("bob")
		require.NoError(t, err)
		assert.Equal(t, MoveChallenge, m.Type)
		assert.Equal(t, Bid{Player: "alice", Quantity: 2, Face: 3}, m.Bid)
		assert.True(t, l.Closed())
		assert.False(t, l.Open())

		_, err = l.RecordBid("bob", 5, 5)
		assert.ErrorIs(t, err, ErrInvalidAction)
		_, err = l.RecordChallenge("alice")
		assert.ErrorIs(t, err, ErrInvalidAction)
	})
}

func TestLedgerStamp(t *testing.T) {
	t.Parallel()

	seq := 10
	l := NewLedger(1, func(m *Move) {
		seq++
		m.Seq = seq
	})
	m1, err := l.RecordBid("alice", 1, 2)
	require.NoError(t, err)
	m2, err := l.RecordBid("bob", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 11, m1.Seq)
	assert.Equal(t, 12, m2.Seq)

	// rejected moves consume no sequence number
	_, err = l.RecordBid("alice", 1, 1)
	require.Error(t, err)
	assert.Equal(t, 12, seq)
}

func TestLedgerReset(t *testing.T) {
	t.Parallel()

	l := NewLedger(1, nil)
	_, err := l.RecordBid("alice", 6, 6)
	require.NoError(t, err)
	_, err = l.RecordChallenge("bob")
	require.NoError(t, err)

	l.Reset(2)
	assert.Equal(t, 2, l.Round())
	assert.False(t, l.Closed())
	assert.Empty(t, l.Moves())

	m, err := l.RecordBid("bob", 1, 2)
	require.NoError(t, err, "any opening bid is valid after a reset")
	assert.Equal(t, 2, m.Round)
}
