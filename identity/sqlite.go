package identity

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "aerial"
	dbFileName = "aerial.db"
)

// SQLiteStore persists the client identifier in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates a store backed by the default database under the user data
// directory.
func Open() (*SQLiteStore, error) {
	path, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(path)
}

// OpenPath creates a store backed by the database at path, creating the file
// and schema as needed.
func OpenPath(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS client_identity (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			client_id TEXT NOT NULL
		);
	`)
	return err
}

func (s *SQLiteStore) Get() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT client_id FROM client_identity WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) Set(id string) error {
	_, err := s.db.Exec(`
		INSERT INTO client_identity (id, client_id) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET client_id = excluded.client_id
	`, id)
	return err
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM client_identity WHERE id = 1`)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
