// Package database opens the local sqlite file that records sync runs.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type Config struct {
	Path string
}

// DefaultConfig uses GRIDSYNC_DB_PATH, falling back to ~/.gridsync/runs.db.
func DefaultConfig() Config {
	if p := os.Getenv("GRIDSYNC_DB_PATH"); p != "" {
		return Config{Path: p}
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{Path: filepath.Join(home, ".gridsync", "runs.db")}
}

func inMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

// Open opens the database and applies pragmas. Parent directories of a file
// path are created.
func Open(cfg Config) (*sql.DB, error) {
	if !inMemory(cfg.Path) {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if inMemory(cfg.Path) {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}
