package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/internal/retry"
)

// EntryTTL is the lifetime of a cached script.
const EntryTTL = time.Hour

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	sqlCreateTable = `
        CREATE TABLE IF NOT EXISTS dsl_scripts_cache (
            cache_key      TEXT PRIMARY KEY,
            script_content TEXT NOT NULL,
            html_content   TEXT NOT NULL,
            created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            expires_at     TIMESTAMPTZ NOT NULL
        );
    `
	sqlCreateIndex = `
        CREATE INDEX IF NOT EXISTS idx_dsl_scripts_cache_expires_at
            ON dsl_scripts_cache (expires_at);
    `
	sqlSelectScript = `
        SELECT script_content FROM dsl_scripts_cache
        WHERE cache_key = $1 AND expires_at > NOW();
    `
	sqlUpsertScript = `
        INSERT INTO dsl_scripts_cache (cache_key, script_content, html_content, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (cache_key) DO UPDATE SET
            script_content = EXCLUDED.script_content,
            html_content = EXCLUDED.html_content,
            created_at = EXCLUDED.created_at,
            expires_at = EXCLUDED.expires_at;
    `
	sqlPurgeExpired = `DELETE FROM dsl_scripts_cache WHERE expires_at <= NOW();`
)

// Store is the PostgreSQL implementation of schemas.ScriptCache.
type Store struct {
	pool   DBPool
	log    *zap.Logger
	policy retry.Policy
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithRetryPolicy overrides the retry policy applied to every query.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithClock replaces the clock used to stamp new entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger, opts ...Option) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		pool:   pool,
		log:    logger.Named("store"),
		policy: retry.DefaultPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy.OnRetry == nil {
		s.policy.OnRetry = func(err error, wait time.Duration) {
			s.log.Debug("Retrying cache query", zap.Error(err), zap.Duration("wait", wait))
		}
	}
	return s, nil
}

// Connect opens a pgx pool for the given URL and wraps it in a Store.
// The returned close function releases the pool.
func Connect(ctx context.Context, url string, maxConns int32, logger *zap.Logger, opts ...Option) (*Store, func(), error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	s, err := New(ctx, pool, logger, opts...)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

// EnsureSchema creates the cache table and its expiry index if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{sqlCreateTable, sqlCreateIndex} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize cache schema: %w", err)
		}
	}
	s.log.Info("Script cache schema ready")
	return nil
}

// Get returns the unexpired script stored under key. A missing or expired
// row is reported as found=false with a nil error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	type result struct {
		script string
		found  bool
	}

	res, err := retry.Do(ctx, s.policy, func(ctx context.Context) (result, error) {
		var script string
		err := s.pool.QueryRow(ctx, sqlSelectScript, key).Scan(&script)
		if errors.Is(err, pgx.ErrNoRows) {
			return result{}, nil
		}
		if err != nil {
			return result{}, err
		}
		return result{script: script, found: true}, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached script %s: %w", key, err)
	}
	return res.script, res.found, nil
}

// Put inserts or replaces the entry for key. The entry expires EntryTTL after
// it is written.
func (s *Store) Put(ctx context.Context, key, script, sourceHTML string) error {
	createdAt := s.now().UTC()
	expiresAt := createdAt.Add(EntryTTL)

	err := retry.Run(ctx, s.policy, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, sqlUpsertScript, key, script, sourceHTML, createdAt, expiresAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store script %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes every expired entry and reports how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := retry.Do(ctx, s.policy, func(ctx context.Context) (pgconn.CommandTag, error) {
		return s.pool.Exec(ctx, sqlPurgeExpired)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired scripts: %w", err)
	}
	removed := tag.RowsAffected()
	s.log.Info("Purged expired scripts", zap.Int64("removed", removed))
	return removed, nil
}

// Ping checks that the database is reachable. It is used by health checks and
// is not retried.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
