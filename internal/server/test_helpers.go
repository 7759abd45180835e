package server

import (
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/protocol"
)

// testLogger creates a logger that discards output for tests
func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// testSession is an in-memory Session that keeps everything sent to it.
type testSession struct {
	mu     sync.Mutex
	player string
	sent   []*protocol.Envelope
	fail   bool
}

func newTestSession() *testSession {
	return &testSession{}
}

func (s *testSession) Send(env *protocol.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("session closed")
	}
	s.sent = append(s.sent, env)
	return nil
}

func (s *testSession) Player() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

func (s *testSession) SetPlayer(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = p
}

// messages returns everything sent so far and clears the buffer.
func (s *testSession) messages() []*protocol.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sent
	s.sent = nil
	return out
}

// ofType returns the sent envelopes of type t, without clearing.
func (s *testSession) ofType(t protocol.MessageType) []*protocol.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*protocol.Envelope
	for _, env := range s.sent {
		if env.Type == t {
			out = append(out, env)
		}
	}
	return out
}
