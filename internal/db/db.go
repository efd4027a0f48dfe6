package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/remind/internal/config"
)

// DBFile is the database file name inside the base directory.
const DBFile = "remind.db"

// busy_timeout lets the CLI and a running MCP server share the file.
const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// migrations[i] moves the schema from user_version i to i+1.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS reminders (
	  seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	  id          TEXT NOT NULL UNIQUE,
	  audio_file  TEXT NOT NULL,
	  alarm_time  TEXT,
	  transcript  TEXT NOT NULL DEFAULT '',
	  status      TEXT NOT NULL CHECK (status IN ('pending', 'resolved', 'discarded')),
	  created_at  INTEGER NOT NULL,
	  resolved_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_reminders_status_seq ON reminders(status, seq);`,
}

// CurrentSchemaVersion is the user_version Init leaves the database at.
var CurrentSchemaVersion = len(migrations)

// Init opens baseDir/remind.db, creating baseDir and its audio/ and exports/
// subdirectories owner-only, and migrates the schema to CurrentSchemaVersion.
func Init(baseDir string) (*sql.DB, error) {
	if err := privateDirs(baseDir, "audio", "exports"); err != nil {
		return nil, err
	}

	path := filepath.Join(baseDir, DBFile)
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := requireWAL(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(path, 0600)
	return db, nil
}

func privateDirs(base string, subs ...string) error {
	dirs := []string{base}
	for _, sub := range subs {
		dirs = append(dirs, filepath.Join(base, sub))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		// MkdirAll keeps the mode of a directory that already exists.
		_ = os.Chmod(dir, 0700)
	}
	return nil
}

// ConfigurePool applies the db_max_open_conns and db_max_idle_conns limits.
// Zero leaves the database/sql default in place.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate runs each pending migration in its own transaction together with
// the user_version bump, so a failed step leaves the previous version intact.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("database schema v%d is newer than supported v%d", version, CurrentSchemaVersion)
	}

	for v := version; v < CurrentSchemaVersion; v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
	}
	return nil
}

func requireWAL(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("read journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("journal mode is %s, want wal", mode)
	}
	return nil
}

// GetUserVersion reads PRAGMA user_version.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion writes PRAGMA user_version.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
