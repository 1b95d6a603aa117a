// Package metricsstore is an optional fleet-wide sink for CFG build
// metrics, written to a shared MySQL table when a DSN is configured.
// Grounded on the teacher's top-level use of go-sql-driver/mysql and the
// database/sql open/query shape internal/hir.WorkspaceIndex establishes for
// sqlite3; unlike the teacher's own raw-query usage this store always binds
// its values as placeholder parameters, since a CFG build record is
// untrusted only in the sense that method names come from source text, not
// because this component has any business formatting SQL by hand.
package metricsstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// BuildMetric is one row recorded per CFG build.
type BuildMetric struct {
	Method               string
	Blocks               int
	Bindings             int
	DealiasSubstitutions int
	BuildDuration        time.Duration
}

// Store writes BuildMetrics to a shared MySQL table.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects to the MySQL instance identified by dsn and ensures the
// metrics table exists.
func Open(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("metricsstore: failed to open connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("metricsstore: failed to reach database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("metricsstore: failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS cfg_build_metrics (
		id                     BIGINT AUTO_INCREMENT PRIMARY KEY,
		method                 VARCHAR(255) NOT NULL,
		blocks                 INT NOT NULL,
		bindings               INT NOT NULL,
		dealias_substitutions  INT NOT NULL,
		build_duration_micros  BIGINT NOT NULL,
		recorded_at            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one row for m. Errors are returned rather than logged so
// the caller (cmd's recordToMetricsStore) decides whether a metrics-sink
// failure should be fatal to the run.
func (s *Store) Record(m BuildMetric) error {
	_, err := s.db.Exec(
		`INSERT INTO cfg_build_metrics
			(method, blocks, bindings, dealias_substitutions, build_duration_micros)
		 VALUES (?, ?, ?, ?, ?)`,
		m.Method, m.Blocks, m.Bindings, m.DealiasSubstitutions, m.BuildDuration.Microseconds())
	if err != nil {
		return fmt.Errorf("metricsstore: failed to record build metric: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
