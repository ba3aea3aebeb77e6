package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationOf(t *testing.T) {
	assert.Equal(t, "insert", operationOf("\n\t\tINSERT INTO trade_results (dispatch_id) VALUES ($1)"))
	assert.Equal(t, "select", operationOf("SELECT 1"))
	assert.Equal(t, "unknown", operationOf("   "))
}

func TestQueryTracer(t *testing.T) {
	type call struct {
		op      string
		seconds float64
		err     error
	}
	var calls []call
	now := time.Unix(1700000000, 0)
	tr := &queryTracer{
		observe: func(op string, seconds float64, err error) { calls = append(calls, call{op, seconds, err}) },
		now:     func() time.Time { return now },
	}

	ctx := tr.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT * FROM engine_configs"})
	now = now.Add(250 * time.Millisecond)
	tr.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: pgx.ErrNoRows})

	boom := errors.New("connection reset")
	ctx = tr.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "INSERT INTO trade_results"})
	tr.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: boom})

	// no start recorded
	tr.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	require.Len(t, calls, 2)
	assert.Equal(t, "select", calls[0].op)
	assert.InDelta(t, 0.25, calls[0].seconds, 1e-9)
	assert.NoError(t, calls[0].err, "no rows is not a query error")
	assert.Equal(t, "insert", calls[1].op)
	assert.ErrorIs(t, calls[1].err, boom)
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, isDuplicateKeyError(&pgconn.PgError{Code: pgErrUniqueViolation}))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicateKeyError(errors.New("other")))
	assert.False(t, isDuplicateKeyError(nil))
}
