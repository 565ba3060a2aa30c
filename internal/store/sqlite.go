package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/claude/amp/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps the session entries in a SQLite database at dir/state.db,
// so a session survives restarts of the client.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// Compile-time check: SQLiteStore satisfies Store.
var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (or creates) the state database and applies migrations.
func OpenSQLiteStore(dir string, log *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY between our own calls.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db, log: log}, nil
}

func runMigrations(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+dbPath)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Save writes both entries in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, sess models.Session) error {
	if !sess.Valid() {
		return ErrInvalidSession
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, kv := range [][2]string{{KeyUsername, sess.Username}, {KeyToken, sess.Token}} {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO session_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
			kv[0], kv[1],
		)
		if err != nil {
			return fmt.Errorf("saving %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load reads both entries. A store holding only one of them is reported as
// empty and logged, since it can only be the result of corruption.
func (s *SQLiteStore) Load(ctx context.Context) (models.Session, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM session_entries WHERE key IN (?, ?)`,
		KeyUsername, KeyToken,
	)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("loading session: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return models.Session{}, false, fmt.Errorf("scanning session entry: %w", err)
		}
		entries[k] = v
	}
	if err := rows.Err(); err != nil {
		return models.Session{}, false, fmt.Errorf("loading session: %w", err)
	}

	if partial(entries) {
		s.log.Warn("ignoring partial session in state db",
			"has_username", entries[KeyUsername] != "",
			"has_token", entries[KeyToken] != "",
		)
	}

	sess, ok := fromEntries(entries)
	return sess, ok, nil
}

// Clear deletes both entries in one statement.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_entries WHERE key IN (?, ?)`,
		KeyUsername, KeyToken,
	)
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Close closes the state database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
