package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteSlot stores the value as one row of a key/value table.
type SQLiteSlot struct {
	db  *sql.DB
	key string
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteSlot opens (or creates) the database and runs migrations.
func NewSQLiteSlot(dbPath, key string, log zerolog.Logger) (*SQLiteSlot, error) {
	if key == "" {
		return nil, errors.New("slot key is required")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteSlot{db: db, key: key, log: log.With().Str("component", "sqlite_slot").Logger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.log.Info().Str("path", dbPath).Str("key", key).Msg("sqlite slot opened")
	return s, nil
}

func (s *SQLiteSlot) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLiteSlot) Load() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow(`SELECT value FROM slots WHERE key = ?`, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %q: %w", s.key, err)
	}
	return data, nil
}

func (s *SQLiteSlot) Save(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save slot %q: %w", s.key, err)
	}
	return nil
}

func (s *SQLiteSlot) Close() error {
	s.log.Info().Msg("closing sqlite slot")
	return s.db.Close()
}
