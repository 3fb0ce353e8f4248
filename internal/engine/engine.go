package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/garrett-reinhard/ord-interface/internal/metrics"
	"github.com/garrett-reinhard/ord-interface/internal/query"
	"github.com/garrett-reinhard/ord-interface/internal/querysql"
	"github.com/garrett-reinhard/ord-interface/internal/result"
	"github.com/garrett-reinhard/ord-interface/internal/store"
)

// DefaultMaxResults is the default ceiling on rows returned by one query.
const DefaultMaxResults = 1000

// Config holds engine settings.
type Config struct {
	// MaxResults caps every query except reaction id lookups. Values <= 0
	// select DefaultMaxResults.
	MaxResults int `yaml:"max_results" envconfig:"MAX_RESULTS" default:"1000"`
}

// RunOptions tune one execution.
type RunOptions struct {
	// Limit is the requested row count. Values <= 0 select the configured
	// maximum; larger values are reduced to it.
	Limit int

	// IDsOnly skips the reaction payload.
	IDsOnly bool
}

// Engine executes queries against a connection pool.
//
// Engine holds no per-query state and is safe for concurrent use. Each Run
// checks out its own connection.
type Engine struct {
	pool       store.Pool
	maxResults int
	tokens     TokenGenerator
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTokenGenerator sets the run token source. Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// New creates an Engine.
func New(pool store.Pool, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		pool:       pool,
		maxResults: cfg.MaxResults,
		tokens:     UUIDv7Generator{},
		logger:     logger,
	}
	if e.maxResults <= 0 {
		e.maxResults = DefaultMaxResults
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxResults returns the configured row ceiling.
func (e *Engine) MaxResults() int {
	return e.maxResults
}

// EffectiveLimit returns the limit Run applies for a requested limit and
// whether the request was reduced.
func (e *Engine) EffectiveLimit(requested int) (int, bool) {
	if requested <= 0 {
		return e.maxResults, false
	}
	if requested > e.maxResults {
		return e.maxResults, true
	}
	return requested, false
}

// Run compiles and executes q.
//
// The returned slice is never nil on success; no match yields an empty slice.
// Errors are a *query.Error, a *query.UnavailableError, or the context error
// when ctx ends first.
func (e *Engine) Run(ctx context.Context, q query.Query, opts RunOptions) ([]*result.Result, error) {
	if q == nil {
		return nil, query.NewValidationError("no query defined")
	}

	kind := string(q.Kind())
	log := e.logger.With(zap.String("run", e.tokens.Generate()), zap.String("kind", kind))

	limit, clamped := e.EffectiveLimit(opts.Limit)
	if clamped {
		metrics.LimitClampedTotal.Inc()
		log.Debug("limit reduced to maximum", zap.Int("requested", opts.Limit), zap.Int("limit", limit))
	}

	start := time.Now()
	results, err := e.run(ctx, log, q, querysql.Options{Limit: limit, IDsOnly: opts.IDsOnly})
	elapsed := time.Since(start)

	if err != nil {
		metrics.QueryDuration.WithLabelValues(kind, "error").Observe(elapsed.Seconds())
		metrics.QueryErrorsTotal.WithLabelValues(kind, metrics.ErrorCode(err)).Inc()
		log.Warn("query failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, err
	}

	metrics.QueryDuration.WithLabelValues(kind, "ok").Observe(elapsed.Seconds())
	metrics.QueryRows.WithLabelValues(kind).Observe(float64(len(results)))
	log.Info("query complete",
		zap.Int("rows", len(results)),
		zap.Int("limit", limit),
		zap.Bool("ids_only", opts.IDsOnly),
		zap.Duration("elapsed", elapsed),
	)
	return results, nil
}

func (e *Engine) run(ctx context.Context, log *zap.Logger, q query.Query, opts querysql.Options) ([]*result.Result, error) {
	stmt, err := querysql.Compile(q, opts)
	if err != nil {
		return nil, err
	}
	log.Debug("query compiled", zap.String("sql", stmt.SQL), zap.Int("params", len(stmt.Args)))

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, store.ClassifyError(store.OpAcquire, err, "")
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, store.ClassifyError(store.OpQuery, err, stmt.SQL)
	}
	defer rows.Close()

	results := make([]*result.Result, 0)
	for rows.Next() {
		r, err := result.Scan(rows, opts.IDsOnly)
		if err != nil {
			return nil, store.ClassifyError(store.OpScan, err, stmt.SQL)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.ClassifyError(store.OpQuery, err, stmt.SQL)
	}
	return results, nil
}

// Datasets lists the datasets in the store with their sizes.
func (e *Engine) Datasets(ctx context.Context) ([]store.Dataset, error) {
	datasets, err := store.ListDatasets(ctx, e.pool)
	if err != nil {
		e.logger.Warn("dataset listing failed", zap.Error(err))
		return nil, err
	}
	return datasets, nil
}

// Ping checks that the store is reachable. Pools that can ping do so;
// otherwise a connection is checked out and returned.
func (e *Engine) Ping(ctx context.Context) error {
	if p, ok := e.pool.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return store.ClassifyError(store.OpPing, err, "")
	}
	conn.Release()
	return nil
}

// Stat reports connection pool usage. Pools that do not track usage report
// a zero PoolStat.
func (e *Engine) Stat() store.PoolStat {
	if p, ok := e.pool.(interface{ Stat() store.PoolStat }); ok {
		return p.Stat()
	}
	return store.PoolStat{}
}
