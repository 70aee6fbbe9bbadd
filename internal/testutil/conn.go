package testutil

import (
	"context"
	"sync/atomic"
)

// Conn is a Querier that can also be pinged and closed.
type Conn struct {
	*Querier
	PingErr error

	closed atomic.Int32
}

func NewConn(results ...Result) *Conn {
	return &Conn{Querier: NewQuerier(results...)}
}

func (c *Conn) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.PingErr
}

func (c *Conn) Close() { c.closed.Add(1) }

// Closed reports whether Close was called at least once.
func (c *Conn) Closed() bool { return c.closed.Load() > 0 }

// CloseCount returns how many times Close was called.
func (c *Conn) CloseCount() int { return int(c.closed.Load()) }

// AggregateRows returns catalog rows for the given name/id pairs.
func AggregateRows(pairs ...[2]string) *Rows {
	data := make([][]any, len(pairs))
	for i, p := range pairs {
		data[i] = []any{p[1], p[0]}
	}
	return NewRows([]string{"id", "details"}, data...)
}
