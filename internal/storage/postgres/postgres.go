package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the shared connection pool of the engine stores.
type Pool struct {
	*pgxpool.Pool
}

// QueryObserver receives the statement kind ("insert", "select", ...),
// its duration and error of every query.
type QueryObserver func(operation string, seconds float64, err error)

// Option tunes the pool before it connects.
type Option func(*pgxpool.Config)

// WithMaxConns caps open connections. Values below one keep the pgx default.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// WithQueryObserver reports every query to fn.
func WithQueryObserver(fn QueryObserver) Option {
	return func(c *pgxpool.Config) {
		if fn != nil {
			c.ConnConfig.Tracer = &queryTracer{observe: fn, now: time.Now}
		}
	}
}

// NewPool connects to dsn and pings once.
func NewPool(ctx context.Context, dsn string, opts ...Option) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

type queryStartKey struct{}

// queryTracer times statements through pgx's tracing hooks.
type queryTracer struct {
	observe QueryObserver
	now     func() time.Time
}

type queryStart struct {
	at time.Time
	op string
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: t.now(), op: operationOf(data.SQL)})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	err := data.Err
	if isNotFoundError(err) {
		err = nil // an empty lookup is an answer
	}
	t.observe(start.op, t.now().Sub(start.at).Seconds(), err)
}

// operationOf returns the lowercased leading keyword of a statement.
func operationOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}

const pgErrUniqueViolation = "23505"

// isDuplicateKeyError reports a unique constraint violation, which for
// trade_results means the dispatch id was already recorded.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
