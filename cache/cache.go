// Package cache provides the SQLite-backed compile cache. Chunks are
// keyed by the SHA-256 of their expanded source text and stored as
// canonical CBOR blobs, so identical sources deserialize instead of
// recompiling.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chazu/catlang/vm"
)

// cborEncMode is the canonical CBOR encoder, so equal chunks always
// produce byte-identical blobs.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Store is an open compile cache.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		hash TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		blob BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// OpenDefault opens the cache at ~/.catlang/cache.db.
func OpenDefault() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home dir: %w", err)
	}
	return Open(filepath.Join(home, ".catlang", "cache.db"))
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// HashSource returns the cache key for a source text.
func HashSource(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached chunk for a source hash, or ok=false. A stored
// blob that no longer decodes is treated as a miss.
func (s *Store) Get(hash string) (*vm.Chunk, bool, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT blob FROM chunks WHERE hash = ?", hash).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying cache: %w", err)
	}

	var c vm.Chunk
	if err := cbor.Unmarshal(blob, &c); err != nil {
		return nil, false, nil
	}
	return &c, true, nil
}

// Put stores a chunk under a source hash, replacing any earlier entry.
func (s *Store) Put(hash string, c *vm.Chunk) error {
	blob, err := cborEncMode.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding chunk: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO chunks (hash, run_id, blob) VALUES (?, ?, ?)",
		hash, uuid.NewString(), blob,
	)
	if err != nil {
		return fmt.Errorf("storing chunk: %w", err)
	}
	return nil
}
