package vault

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "modernc.org/sqlite" // SQLite driver
)

// openDB creates (if needed) and opens the SQLite database backing the
// vault. It returns a live connection that the caller must Close.
func openDB(path string) (*sql.DB, error) {
	if err := ensureDirectory(path); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open vault database: %w", err)
	}

	// One connection is enough for a single-session store and keeps
	// statements strictly ordered.
	db.SetMaxOpenConns(1)

	// Prime the connection so the database file exists before chmod.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping vault database: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := ensurePerm0600(path); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func ensureDirectory(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o750)
}

// ensurePerm0600 restricts the vault file to its owner on Unix systems.
func ensurePerm0600(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(path, 0o600); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("chmod vault database: %w", err)
	}
	return nil
}

const createVaultSchema = `
CREATE TABLE IF NOT EXISTS master_config (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	salt           BLOB    NOT NULL,
	verify_hash    BLOB    NOT NULL,
	kdf_iterations INTEGER NOT NULL,
	vault_id       TEXT    NOT NULL,
	created_at     TEXT    NOT NULL,
	updated_at     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	site_name       TEXT    NOT NULL,
	url             TEXT    NOT NULL DEFAULT '',
	username_cipher BLOB    NOT NULL,
	password_cipher BLOB    NOT NULL,
	notes_cipher    BLOB,
	category        TEXT    NOT NULL DEFAULT 'General',
	created_at      TEXT    NOT NULL,
	updated_at      TEXT    NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(createVaultSchema); err != nil {
		return fmt.Errorf("ensure vault schema: %w", err)
	}
	return nil
}
