// Package store persists social links in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/codeGROOVE-dev/sociolink/pkg/link"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

var (
	// ErrNotFound is returned when no link has the requested ID.
	ErrNotFound = errors.New("link not found")
	// ErrDuplicate is returned when an update would collide with another link
	// for the same contact, platform and handle.
	ErrDuplicate = errors.New("duplicate link")
)

// Store is a SQLite-backed link store.
type Store struct {
	db          *sql.DB
	logger      *slog.Logger
	now         func() time.Time
	busyTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithBusyTimeout sets how long SQLite itself waits on a lock held by another
// connection before reporting busy. Default 5s. Writes retry busy errors on top.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *Store) { s.busyTimeout = d }
}

// Open opens (creating if needed) the database at path in WAL mode.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	s := &Store{logger: slog.Default(), now: time.Now, busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection avoids "database is locked" between our own writers.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close() //nolint:errcheck // already returning the schema error
		return nil, fmt.Errorf("init schema: %w", err)
	}
	s.db = db
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const columns = "id, contact_key, platform, handle, label, created_at"

// LinksForContact returns a contact's links, oldest first.
func (s *Store) LinksForContact(ctx context.Context, contactKey string) ([]link.Link, error) {
	return s.query(ctx, "SELECT "+columns+" FROM social_links WHERE contact_key = ? ORDER BY created_at, rowid", contactKey)
}

// LinksByPlatform returns every link on p, oldest first.
func (s *Store) LinksByPlatform(ctx context.Context, p platform.Platform) ([]link.Link, error) {
	return s.query(ctx, "SELECT "+columns+" FROM social_links WHERE platform = ? ORDER BY created_at, rowid", p.String())
}

// All returns every stored link grouped by contact.
func (s *Store) All(ctx context.Context) ([]link.Link, error) {
	return s.query(ctx, "SELECT "+columns+" FROM social_links ORDER BY contact_key, created_at, rowid")
}

// Link returns the link with the given ID.
func (s *Store) Link(ctx context.Context, id string) (link.Link, error) {
	links, err := s.query(ctx, "SELECT "+columns+" FROM social_links WHERE id = ?", id)
	if err != nil {
		return link.Link{}, err
	}
	if len(links) == 0 {
		return link.Link{}, ErrNotFound
	}
	return links[0], nil
}

// Existing returns the (platform, handle) pairs stored for a contact, for use
// as the already-linked set during detection.
func (s *Store) Existing(ctx context.Context, contactKey string) ([]link.Ref, error) {
	links, err := s.LinksForContact(ctx, contactKey)
	if err != nil {
		return nil, err
	}
	return link.Refs(links), nil
}

// CountForContact returns how many links a contact has.
func (s *Store) CountForContact(ctx context.Context, contactKey string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM social_links WHERE contact_key = ?", contactKey).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return n, nil
}

// Insert stores l and returns it with its ID and CreatedAt filled in.
// A link with the same contact, platform and handle (ignoring case) is
// replaced in place: its handle and label are overwritten and its ID kept.
func (s *Store) Insert(ctx context.Context, l link.Link) (link.Link, error) {
	out, err := s.InsertAll(ctx, []link.Link{l})
	if err != nil {
		return link.Link{}, err
	}
	return out[0], nil
}

// InsertAll stores links in one transaction. Either all are stored or none.
func (s *Store) InsertAll(ctx context.Context, links []link.Link) ([]link.Link, error) {
	for i, l := range links {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
	}
	if len(links) == 0 {
		return nil, nil
	}

	out := make([]link.Link, len(links))
	err := s.write(ctx, func(tx *sql.Tx) error {
		for i, l := range links {
			stored, err := upsert(ctx, tx, l, s.now())
			if err != nil {
				return err
			}
			out[i] = stored
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "links stored", "count", len(out))
	return out, nil
}

func upsert(ctx context.Context, tx *sql.Tx, l link.Link, now time.Time) (link.Link, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	handleKey := strings.ToLower(l.Handle)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO social_links (id, contact_key, platform, handle, handle_key, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (contact_key, platform, handle_key)
		DO UPDATE SET handle = excluded.handle, label = excluded.label
	`, l.ID, l.ContactKey, l.Platform.String(), l.Handle, handleKey, l.Label, l.CreatedAt.UnixMilli())
	if err != nil {
		return link.Link{}, fmt.Errorf("insert link: %w", err)
	}

	var ms int64
	err = tx.QueryRowContext(ctx,
		"SELECT id, created_at FROM social_links WHERE contact_key = ? AND platform = ? AND handle_key = ?",
		l.ContactKey, l.Platform.String(), handleKey,
	).Scan(&l.ID, &ms)
	if err != nil {
		return link.Link{}, fmt.Errorf("read back link: %w", err)
	}
	l.CreatedAt = time.UnixMilli(ms).UTC()
	return l, nil
}

// Update overwrites the platform, handle and label of the link with l.ID.
func (s *Store) Update(ctx context.Context, l link.Link) error {
	if err := l.Validate(); err != nil {
		return err
	}
	var n int64
	err := s.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE social_links SET platform = ?, handle = ?, handle_key = ?, label = ? WHERE id = ?",
			l.Platform.String(), l.Handle, strings.ToLower(l.Handle), l.Label, l.ID,
		)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if isConstraint(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update link: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the link with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.exec(ctx, "DELETE FROM social_links WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllForContact removes every link of a contact and reports how many went.
func (s *Store) DeleteAllForContact(ctx context.Context, contactKey string) (int64, error) {
	n, err := s.exec(ctx, "DELETE FROM social_links WHERE contact_key = ?", contactKey)
	if err != nil {
		return 0, fmt.Errorf("delete links: %w", err)
	}
	return n, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := s.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// write runs fn in a transaction, retrying when another process holds the
// lock. The error of the final attempt is returned unwrapped.
func (s *Store) write(ctx context.Context, fn func(*sql.Tx) error) error {
	var last error
	err := retry.Do(
		func() error {
			last = s.tx(ctx, fn)
			return last
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.MaxJitter(25*time.Millisecond),
		retry.RetryIf(isBusy),
		retry.OnRetry(func(n uint, err error) {
			s.logger.DebugContext(ctx, "retrying locked write", "attempt", n+1, "error", err)
		}),
	)
	if err == nil {
		return nil
	}
	if last != nil {
		return last
	}
	return err
}

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck // returning fn's error
		return err
	}
	return tx.Commit()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]link.Link, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only

	var out []link.Link
	for rows.Next() {
		var (
			l    link.Link
			name string
			ms   int64
		)
		if err := rows.Scan(&l.ID, &l.ContactKey, &name, &l.Handle, &l.Label, &ms); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		p, ok := platform.Parse(name)
		if !ok {
			return nil, fmt.Errorf("link %s: unknown platform %q", l.ID, name)
		}
		l.Platform = p
		l.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}
