package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/game"
)

var (
	// ErrQueueFull is returned when Async has no room for another write; the write is dropped.
	ErrQueueFull = errors.New("history queue full")
	// ErrClosed is returned for writes after Close.
	ErrClosed = errors.New("history store closed")
)

const writeTimeout = 5 * time.Second

type job struct {
	gameID string
	move   *game.Move
	result *game.Result
}

// Async puts a bounded queue and a single worker goroutine in front of a Store so
// that game writes never wait on disk. Writes are applied in the order they were
// queued.
type Async struct {
	store  Store
	logger *log.Logger
	queue  chan job
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts the worker.
func NewAsync(store Store, size int, logger *log.Logger) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	a := &Async{
		store:  store,
		logger: logger.WithPrefix("history"),
		queue:  make(chan job, size),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for j := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		var err error
		if j.move != nil {
			err = a.store.RecordMove(ctx, j.gameID, *j.move)
		} else {
			err = a.store.RecordResult(ctx, *j.result)
		}
		cancel()
		if err != nil {
			a.logger.Warn("History write failed", "game", j.gameID, "error", err)
		}
	}
}

func (a *Async) enqueue(j job) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- j:
		return nil
	default:
		a.logger.Warn("History queue full, dropping write", "game", j.gameID)
		return ErrQueueFull
	}
}

func (a *Async) RecordMove(_ context.Context, gameID string, m game.Move) error {
	return a.enqueue(job{gameID: gameID, move: &m})
}

func (a *Async) RecordResult(_ context.Context, res game.Result) error {
	return a.enqueue(job{gameID: res.GameID, result: &res})
}

// Load reads from the underlying store; writes still queued are not visible.
func (a *Async) Load(ctx context.Context, gameID string) (Record, error) {
	return a.store.Load(ctx, gameID)
}

// Close stops accepting writes, waits for the queue to drain and closes the
// underlying store.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.store.Close()
}
