// Package credstore persists the session credentials and the language preference across restarts.
package credstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
)

// Keys of the kv table.
const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyLanguage = "preferred-language"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore is the durable Store, backed by a single SQLite file.
type SQLiteStore struct {
	db     *sqlx.DB
	logger core.Logger
}

// Open opens (creating if needed) and migrates the store at path.
func Open(ctx context.Context, path string, logger core.Logger) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if path != ":memory:" {
		path = filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrap(err, "creating store directory")
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "opening store")
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging store")
	}
	if err = Migrate(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Migrate applies the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "loading migrations")
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return errors.Wrap(err, "creating migration provider")
	}
	if _, err = provider.Up(ctx); err != nil {
		return errors.Wrap(err, "migrating store")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadSession returns the stored token and user. A missing, unparsable or inconsistent entry is
// reported as absent rather than as an error.
func (s *SQLiteStore) LoadSession(ctx context.Context) (session.Record, bool, error) {
	var rows []kvRow
	err := s.db.SelectContext(ctx, &rows, `SELECT key, value FROM kv WHERE key IN (?, ?)`, KeyToken, KeyUser)
	if err != nil {
		return session.Record{}, false, errors.Wrap(err, "loading session")
	}

	vals := make(map[string]string, len(rows))
	for _, row := range rows {
		vals[row.Key] = row.Value
	}
	rec, ok := decodeRecord(vals[KeyToken], vals[KeyUser])
	if !ok && len(rows) > 0 {
		s.logger.Warn("discarding unreadable stored session")
	}
	return rec, ok, nil
}

// SaveSession writes the token and user in one transaction.
func (s *SQLiteStore) SaveSession(ctx context.Context, rec session.Record) error {
	blob, err := encodeUser(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "saving session")
	}
	if err = put(ctx, tx, KeyToken, rec.Token); err == nil {
		err = put(ctx, tx, KeyUser, blob)
	}
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "saving session")
	}
	return errors.Wrap(tx.Commit(), "saving session")
}

// ClearSession removes the token and user. The language preference is kept.
func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (?, ?)`, KeyToken, KeyUser)
	return errors.Wrap(err, "clearing session")
}

func (s *SQLiteStore) LoadLanguage(ctx context.Context) (string, bool, error) {
	var code string
	err := s.db.GetContext(ctx, &code, `SELECT value FROM kv WHERE key = ?`, KeyLanguage)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, errors.Wrap(err, "loading language")
	}
	return code, code != "", nil
}

func (s *SQLiteStore) SaveLanguage(ctx context.Context, code string) error {
	return errors.Wrap(put(ctx, s.db, KeyLanguage, code), "saving language")
}

// helpers

type kvRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func put(ctx context.Context, ex sqlx.ExecerContext, key, value string) error {
	_, err := ex.ExecContext(
		ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Unix(),
	)
	return err
}

func encodeUser(rec session.Record) (string, error) {
	if rec.Token == "" {
		return "", errors.New("empty token")
	}
	if !rec.User.Role.Valid() {
		return "", user.ErrUnknownRole
	}
	blob, err := json.Marshal(rec.User)
	if err != nil {
		return "", errors.Wrap(err, "encoding user")
	}
	return string(blob), nil
}

// decodeRecord requires both halves of a session; a lone token or user is treated as absent.
func decodeRecord(token, blob string) (session.Record, bool) {
	if token == "" || blob == "" {
		return session.Record{}, false
	}
	var usr user.Profile
	if err := json.Unmarshal([]byte(blob), &usr); err != nil || !usr.Role.Valid() {
		return session.Record{}, false
	}
	return session.Record{Token: token, User: usr}, true
}
