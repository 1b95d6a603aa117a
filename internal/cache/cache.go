// Package cache is a persistent, sqlite3-backed cache of CFG build results,
// keyed by a content hash of the method's serialized AST. Grounded on the
// teacher's internal/hir.WorkspaceIndex, which opens a sqlite3 database
// under a workspace directory and defines its own table schema; this
// package keeps that shape (open-or-create, initSchema, a thin typed
// wrapper around *sql.DB) but tracks CFG build records instead of HIR units.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Record is one cached CFG build: the DOT rendering plus summary counts. It
// holds no CFG, so a hit cannot stand in for a rebuilt graph.
type Record struct {
	MethodHash   string
	BuiltAt      time.Time
	BlockCount   int
	BindingCount int
	DotText      string
}

// BuildCache stores Records keyed by MethodHash in a single sqlite3 file.
type BuildCache struct {
	db     *sql.DB
	logger *zap.Logger
}

// HashMethod computes the cache key for a method's serialized AST bytes.
func HashMethod(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewBuildCache opens (creating if necessary) the build cache database
// under dir.
func NewBuildCache(dir string, logger *zap.Logger) (*BuildCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "builds.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("cache: failed to open database: %w", err)
	}

	c := &BuildCache{db: db, logger: logger}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: failed to initialize schema: %w", err)
	}
	return c, nil
}

func (c *BuildCache) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS build_records (
		method_hash   TEXT PRIMARY KEY,
		built_at      INTEGER NOT NULL,
		block_count   INTEGER NOT NULL,
		binding_count INTEGER NOT NULL,
		dot_text      TEXT NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Get returns the cached record for methodHash, if present.
func (c *BuildCache) Get(methodHash string) (*Record, bool) {
	row := c.db.QueryRow(
		`SELECT method_hash, built_at, block_count, binding_count, dot_text
		 FROM build_records WHERE method_hash = ?`, methodHash)

	var rec Record
	var builtAt int64
	if err := row.Scan(&rec.MethodHash, &builtAt, &rec.BlockCount, &rec.BindingCount, &rec.DotText); err != nil {
		if err != sql.ErrNoRows {
			c.logger.Debug("cache lookup failed", zap.String("method_hash", methodHash), zap.Error(err))
		}
		return nil, false
	}
	rec.BuiltAt = time.Unix(builtAt, 0)
	return &rec, true
}

// Put stores or replaces the build record for rec.MethodHash.
func (c *BuildCache) Put(rec Record) error {
	_, err := c.db.Exec(
		`INSERT INTO build_records (method_hash, built_at, block_count, binding_count, dot_text)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(method_hash) DO UPDATE SET
			built_at = excluded.built_at,
			block_count = excluded.block_count,
			binding_count = excluded.binding_count,
			dot_text = excluded.dot_text`,
		rec.MethodHash, rec.BuiltAt.Unix(), rec.BlockCount, rec.BindingCount, rec.DotText)
	if err != nil {
		return fmt.Errorf("cache: failed to store build record: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *BuildCache) Close() error {
	return c.db.Close()
}
