package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/lox/liarsdice/internal/game"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps history in a SQLite database, one row per move and one per
// finished game.
type SQLiteStore struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordMove inserts one move. Recording the same move twice is not an error.
func (s *SQLiteStore) RecordMove(ctx context.Context, gameID string, m game.Move) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode move: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO moves (game_id, seq, round, type, player_id, quantity, face_value, created_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gameID,
		m.Seq,
		m.Round,
		m.Type.String(),
		m.Player,
		m.Bid.Quantity,
		m.Bid.Face,
		toMillis(m.CreatedAt),
		string(payload),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert move %d of %s: %w", m.Seq, gameID, err)
	}
	return nil
}

// RecordResult stores a game's outcome, replacing any earlier one.
func (s *SQLiteStore) RecordResult(ctx context.Context, res game.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (game_id, status, winner_id, rounds, finished_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(game_id) DO UPDATE SET
		   status = excluded.status,
		   winner_id = excluded.winner_id,
		   rounds = excluded.rounds,
		   finished_at = excluded.finished_at,
		   payload = excluded.payload`,
		res.GameID,
		res.Status.String(),
		res.Winner,
		res.Rounds,
		toMillis(res.FinishedAt),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert result for %s: %w", res.GameID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, gameID string) (Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM moves WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return Record{}, fmt.Errorf("query moves for %s: %w", gameID, err)
	}
	defer rows.Close()

	rec := Record{GameID: gameID}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return Record{}, fmt.Errorf("scan move: %w", err)
		}
		var m game.Move
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return Record{}, fmt.Errorf("decode move: %w", err)
		}
		rec.Moves = append(rec.Moves, m)
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("read moves for %s: %w", gameID, err)
	}

	var payload string
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM results WHERE game_id = ?`, gameID).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if len(rec.Moves) == 0 {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, gameID)
		}
	case err != nil:
		return Record{}, fmt.Errorf("query result for %s: %w", gameID, err)
	default:
		var res game.Result
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return Record{}, fmt.Errorf("decode result: %w", err)
		}
		rec.Result = &res
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
