package results

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrQueryTimeout   = errors.New("query timed out")
	ErrQueryExecution = errors.New("query execution failed")
)

// queryCanceled is the SQLSTATE raised when statement_timeout fires.
const queryCanceled = "57014"

// Querier is satisfied by *pgxpool.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Fetch runs sql with args under timeout and collects every row. Failures are
// marked ErrQueryTimeout or ErrQueryExecution; the database message is kept as is.
func Fetch(ctx context.Context, q Querier, sql string, args []any, timeout time.Duration) ([]Row, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[Row])
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return errors.Mark(err, ErrQueryTimeout)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == queryCanceled {
		return errors.Mark(err, ErrQueryTimeout)
	}
	return errors.Mark(err, ErrQueryExecution)
}
