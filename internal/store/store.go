package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Conn is a checked-out connection.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Release()
}

// Pool hands out connections. Implemented by *Store; tests substitute fakes.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Options tune the connection pool. Zero values keep the pgxpool defaults.
type Options struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

// Store is a PostgreSQL connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open creates a pool for dsn and verifies that the database answers.
func Open(ctx context.Context, dsn string, opts Options, logger *zap.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = opts.HealthCheckPeriod
	}
	if opts.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, ClassifyError(OpConnect, err, "")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, ClassifyError(OpConnect, err, "")
	}

	logger.Info("connected to database",
		zap.String("host", cfg.ConnConfig.Host),
		zap.Uint16("port", cfg.ConnConfig.Port),
		zap.String("database", cfg.ConnConfig.Database),
		zap.Int32("max_conns", cfg.MaxConns),
	)

	return &Store{pool: pool, logger: logger}, nil
}

// Acquire checks out a connection. The caller must Release it.
func (s *Store) Acquire(ctx context.Context) (Conn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Ping verifies that a connection can be acquired and the server answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return ClassifyError(OpPing, err, "")
	}
	return nil
}

// Stat returns a snapshot of pool usage.
func (s *Store) Stat() PoolStat {
	st := s.pool.Stat()
	return PoolStat{
		Total:    st.TotalConns(),
		Idle:     st.IdleConns(),
		Acquired: st.AcquiredConns(),
		Max:      st.MaxConns(),
	}
}

// PoolStat is a point-in-time view of pool usage.
type PoolStat struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
}

// Close closes all connections. It blocks until acquired connections are
// released.
func (s *Store) Close() {
	if s.pool == nil {
		return
	}
	s.pool.Close()
	s.logger.Info("database pool closed")
}
