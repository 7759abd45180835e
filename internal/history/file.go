package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lox/liarsdice/internal/fileutil"
	"github.com/lox/liarsdice/internal/game"
)

// FileStore keeps one JSON document per game, game-<id>.json, in a directory.
// Every write rewrites the whole document atomically.
type FileStore struct {
	dir string

	mu      sync.Mutex
	records map[string]*Record
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &FileStore{dir: dir, records: make(map[string]*Record)}, nil
}

// Path returns where a game's document lives.
func (s *FileStore) Path(gameID string) string {
	return filepath.Join(s.dir, "game-"+gameID+".json")
}

func (s *FileStore) RecordMove(ctx context.Context, gameID string, m game.Move) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.recordLocked(gameID)
	if err != nil {
		return err
	}
	rec.Moves = insertMove(rec.Moves, m)
	return s.flushLocked(rec)
}

func (s *FileStore) RecordResult(ctx context.Context, res game.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.recordLocked(res.GameID)
	if err != nil {
		return err
	}
	rec.Result = &res
	if err := s.flushLocked(rec); err != nil {
		return err
	}
	// finished games are read back from disk
	delete(s.records, res.GameID)
	return nil
}

func (s *FileStore) Load(ctx context.Context, gameID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	// ids come from clients; only plain names map onto the directory
	if gameID == "" || strings.ContainsAny(gameID, `/\`) || strings.Contains(gameID, "..") {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[gameID]; ok {
		return clone(*rec), nil
	}
	var rec Record
	if err := fileutil.ReadJSON(s.Path(gameID), &rec); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, gameID)
		}
		return Record{}, fmt.Errorf("load history for %s: %w", gameID, err)
	}
	return rec, nil
}

func (s *FileStore) Close() error {
	return nil
}

// recordLocked returns the cached document, reading it from disk the first time
// a game is seen after a restart.
func (s *FileStore) recordLocked(gameID string) (*Record, error) {
	if rec, ok := s.records[gameID]; ok {
		return rec, nil
	}
	rec := &Record{GameID: gameID}
	err := fileutil.ReadJSON(s.Path(gameID), rec)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load history for %s: %w", gameID, err)
	}
	s.records[gameID] = rec
	return rec, nil
}

func (s *FileStore) flushLocked(rec *Record) error {
	if err := fileutil.WriteJSONAtomic(s.Path(rec.GameID), rec, 0o644); err != nil {
		return fmt.Errorf("write history for %s: %w", rec.GameID, err)
	}
	return nil
}

func clone(r Record) Record {
	r.Moves = append([]game.Move(nil), r.Moves...)
	if r.Result != nil {
		res := *r.Result
		r.Result = &res
	}
	return r
}
