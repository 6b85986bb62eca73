// Package runlog is the append-only log of analyzer runs. It is backed by a
// JSON Lines file or, when a DSN is configured, a Postgres table.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"smartgoal/internal/goal"
)

// Store appends runs and loads them back as JSON objects. Appends from
// separate processes sharing one file are not serialized.
type Store struct {
	path string
	db   *sql.DB

	mu sync.Mutex

	schemaOnce sync.Once
	schemaErr  error
}

// New returns a file-backed store writing to path.
func New(path string) *Store {
	return &Store{path: path}
}

// NewPostgres opens a Postgres-backed store.
func NewPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Open picks Postgres when dsn is set and falls back to the file at path
// when the database cannot be reached.
func Open(ctx context.Context, path, dsn string) *Store {
	if strings.TrimSpace(dsn) == "" {
		return New(path)
	}
	s, err := NewPostgres(ctx, dsn)
	if err != nil {
		log.Warn().Err(err).Str("fallback", path).Msg("run log database unavailable")
		return New(path)
	}
	return s
}

// Backend names the active backend.
func (s *Store) Backend() string {
	if s.db != nil {
		return "postgres"
	}
	return "file"
}

// Append adds one run.
func (s *Store) Append(ctx context.Context, run goal.AnalyzerRun) error {
	if s == nil {
		return fmt.Errorf("run log is nil")
	}
	if s.db != nil {
		return s.appendDB(ctx, run)
	}
	return s.appendFile(run)
}

// Load returns every run in insertion order as decoded JSON objects.
func (s *Store) Load(ctx context.Context) ([]any, error) {
	if s == nil {
		return nil, fmt.Errorf("run log is nil")
	}
	if s.db != nil {
		return s.loadDB(ctx)
	}
	return s.loadFile()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
