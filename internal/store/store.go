// Package store keeps the privacy-conscious page-visit log behind the admin
// dashboard. Raw IP addresses never reach the database; only salted hashes do.
package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically, so range queries can compare strings.
const timeLayout = "2006-01-02 15:04:05"

type Store struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSalt fixes the IP hashing salt. By default a random salt is generated
// per process, so hashes cannot be correlated across restarts.
func WithSalt(salt string) Option {
	return func(s *Store) { s.salt = salt }
}

// Open opens (or creates) the SQLite database at path and migrates it.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.salt == "" {
		s.salt = RandomToken()
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("Privacy-conscious visitor tracking initialized")
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS visitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed_ip TEXT NOT NULL,
		user_agent TEXT,
		path TEXT,
		timestamp TEXT NOT NULL
	)`)
	if err != nil {
		return errors.Wrap(err, "failed to create visitors table")
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_visitors_timestamp ON visitors(timestamp)`)
	if err != nil {
		return errors.Wrap(err, "failed to index visitors table")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// HashIP hashes an address with the store's salt. The result is stable for
// the lifetime of the salt.
func (s *Store) HashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + s.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// RandomToken returns 32 random bytes hex encoded.
func RandomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal("Failed to generate token:", err)
	}
	return hex.EncodeToString(b)
}
