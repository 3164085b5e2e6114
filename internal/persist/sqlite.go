package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"TickerBoard/internal/model"
)

const (
	keyWidgets   = "widgets"
	keyProviders = "providers"
)

// SQLiteStore keeps state as JSON documents in a key-value table.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.SugaredLogger
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string, log *zap.SugaredLogger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the CLI read while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

func (s *SQLiteStore) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?,?,?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) get(key string, v any) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var raw string
	var updated int64
	err := s.db.QueryRow(`SELECT value, updated_at FROM kv WHERE key = ?`, key).Scan(&raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return time.Time{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return time.UnixMilli(updated), true, nil
}

func (s *SQLiteStore) SaveWidgets(widgets []model.Widget) error {
	return s.put(keyWidgets, Strip(widgets))
}

func (s *SQLiteStore) SaveProviders(providers []model.ProviderConfig) error {
	return s.put(keyProviders, providers)
}

func (s *SQLiteStore) Load() (*Snapshot, error) {
	snap := &Snapshot{}
	wAt, _, err := s.get(keyWidgets, &snap.Widgets)
	if err != nil {
		return nil, err
	}
	pAt, _, err := s.get(keyProviders, &snap.Providers)
	if err != nil {
		return nil, err
	}
	snap.SavedAt = wAt
	if pAt.After(wAt) {
		snap.SavedAt = pAt
	}
	return snap, nil
}

func (s *SQLiteStore) Close() error {
	s.log.Info("closing sqlite store")
	return s.db.Close()
}
