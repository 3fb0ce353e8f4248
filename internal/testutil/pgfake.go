package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/garrett-reinhard/ord-interface/internal/store"
)

// Call records one statement sent through a FakePool.
type Call struct {
	SQL  string
	Args []any
}

// QueryFunc answers a statement. Returning a nil error and nil rows yields
// an empty result.
type QueryFunc func(ctx context.Context, sql string, args []any) (pgx.Rows, error)

// FakePool is an in-memory store.Pool.
//
// It records every statement and counts checkouts so tests can assert that
// each acquired connection was released.
type FakePool struct {
	// AcquireErr, when set, is returned by Acquire.
	AcquireErr error

	// Query answers statements. Nil answers every statement with no rows.
	Query QueryFunc

	mu       sync.Mutex
	calls    []Call
	acquired int
	released int
}

// NewFakePool creates a pool that answers with fn.
func NewFakePool(fn QueryFunc) *FakePool {
	return &FakePool{Query: fn}
}

// Acquire implements store.Pool.
func (p *FakePool) Acquire(ctx context.Context) (store.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}
	p.mu.Lock()
	p.acquired++
	p.mu.Unlock()
	return &fakeConn{pool: p}, nil
}

// Calls returns the statements sent so far.
func (p *FakePool) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Outstanding returns the number of acquired connections not yet released.
func (p *FakePool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired - p.released
}

// Acquired returns the number of successful checkouts.
func (p *FakePool) Acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

// Stat reports outstanding checkouts as acquired connections.
func (p *FakePool) Stat() store.PoolStat {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := int32(p.acquired - p.released)
	return store.PoolStat{Total: n, Acquired: n}
}

type fakeConn struct {
	pool     *FakePool
	released bool
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if c.released {
		return nil, errors.New("testutil: query on released connection")
	}
	c.pool.mu.Lock()
	c.pool.calls = append(c.pool.calls, Call{SQL: sql, Args: append([]any(nil), args...)})
	c.pool.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.pool.Query == nil {
		return NewRows(), nil
	}
	rows, err := c.pool.Query(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = NewRows()
	}
	return rows, nil
}

func (c *fakeConn) Release() {
	if c.released {
		return
	}
	c.released = true
	c.pool.mu.Lock()
	c.pool.released++
	c.pool.mu.Unlock()
}

// FakeRows is an in-memory pgx.Rows.
type FakeRows struct {
	data [][]any
	pos  int
	cur  []any

	// ErrAfter is reported by Err once iteration ends.
	ErrAfter error

	// Ctx, when set, stops iteration once it is done and reports its error.
	Ctx context.Context

	closed bool
	err    error
}

// NewRows creates rows holding data, one slice of column values per row.
func NewRows(data ...[]any) *FakeRows {
	return &FakeRows{data: data}
}

func (r *FakeRows) Close() {
	r.closed = true
}

// Closed reports whether Close was called.
func (r *FakeRows) Closed() bool { return r.closed }

func (r *FakeRows) Err() error { return r.err }

func (r *FakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", r.pos))
}

func (r *FakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *FakeRows) Next() bool {
	if r.closed {
		return false
	}
	if r.Ctx != nil {
		if err := r.Ctx.Err(); err != nil {
			r.err = err
			r.closed = true
			return false
		}
	}
	if r.pos >= len(r.data) {
		r.err = r.ErrAfter
		r.closed = true
		return false
	}
	r.cur = r.data[r.pos]
	r.pos++
	return true
}

func (r *FakeRows) Scan(dest ...any) error {
	if r.cur == nil {
		return errors.New("testutil: Scan called without a current row")
	}
	if len(dest) != len(r.cur) {
		return fmt.Errorf("testutil: %d destinations for %d columns", len(dest), len(r.cur))
	}
	for i, d := range dest {
		if err := assign(d, r.cur[i]); err != nil {
			return fmt.Errorf("testutil: column %d: %w", i, err)
		}
	}
	return nil
}

func (r *FakeRows) Values() ([]any, error) {
	return append([]any(nil), r.cur...), nil
}

func (r *FakeRows) RawValues() [][]byte { return nil }

func (r *FakeRows) Conn() *pgx.Conn { return nil }

func assign(dest, v any) error {
	switch d := dest.(type) {
	case *string:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", v)
		}
		*d = s
	case **string:
		if v == nil {
			*d = nil
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into **string", v)
		}
		*d = &s
	case *[]byte:
		if v == nil {
			*d = nil
			return nil
		}
		b, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("cannot scan %T into *[]byte", v)
		}
		*d = append([]byte(nil), b...)
	case *int64:
		switch n := v.(type) {
		case int64:
			*d = n
		case int:
			*d = int64(n)
		default:
			return fmt.Errorf("cannot scan %T into *int64", v)
		}
	case *any:
		*d = v
	default:
		return fmt.Errorf("unsupported destination %T", dest)
	}
	return nil
}
