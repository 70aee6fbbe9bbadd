// Package testutil provides in-memory stand-ins for database handles.
package testutil

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Rows is a pgx.Rows over a fixed table of values.
type Rows struct {
	columns []string
	data    [][]any
	pos     int
	err     error
	closed  bool
}

var _ pgx.Rows = (*Rows)(nil)

// NewRows returns rows with the given column names. Each data row must have
// one value per column; nil values scan as SQL NULL.
func NewRows(columns []string, data ...[]any) *Rows {
	return &Rows{columns: columns, data: data, pos: -1}
}

// WithErr makes Err report err once iteration ends.
func (r *Rows) WithErr(err error) *Rows {
	r.err = err
	return r
}

func (r *Rows) Close()                        { r.closed = true }
func (r *Rows) Err() error                    { return r.err }
func (r *Rows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *Rows) Conn() *pgx.Conn               { return nil }
func (r *Rows) RawValues() [][]byte           { return nil }

// Closed reports whether Close was called.
func (r *Rows) Closed() bool { return r.closed }

func (r *Rows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (r *Rows) Next() bool {
	if r.closed || r.pos+1 >= len(r.data) {
		r.closed = true
		return false
	}
	r.pos++
	return true
}

func (r *Rows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.data) {
		return nil, fmt.Errorf("no current row")
	}
	return append([]any(nil), r.data[r.pos]...), nil
}

func (r *Rows) Scan(dest ...any) error {
	row, err := r.Values()
	if err != nil {
		return err
	}
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return fmt.Errorf("scan column %q: %w", r.columns[i], err)
		}
	}
	return nil
}

// assign stores v into the pointer d, allocating through one level of pointer
// for nullable destinations.
func assign(d, v any) error {
	dv := reflect.ValueOf(d)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination %T is not a non-nil pointer", d)
	}
	target := dv.Elem()
	if v == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	val := reflect.ValueOf(v)
	if target.Kind() == reflect.Pointer {
		if !val.Type().AssignableTo(target.Type().Elem()) {
			return fmt.Errorf("cannot assign %T to %s", v, target.Type())
		}
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(val)
		target.Set(p)
		return nil
	}
	if !val.Type().AssignableTo(target.Type()) {
		return fmt.Errorf("cannot assign %T to %s", v, target.Type())
	}
	target.Set(val)
	return nil
}

// Querier answers every query with the next prepared result and records the calls.
type Querier struct {
	mu      sync.Mutex
	results []Result
	Calls   []Call
}

// Result is one prepared answer: rows or an error.
type Result struct {
	Rows *Rows
	Err  error
}

// Call records one Query invocation.
type Call struct {
	SQL  string
	Args []any
}

func NewQuerier(results ...Result) *Querier {
	return &Querier{results: results}
}

func (q *Querier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Calls = append(q.Calls, Call{SQL: sql, Args: args})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(q.results) == 0 {
		return nil, fmt.Errorf("unexpected query %q", sql)
	}
	res := q.results[0]
	q.results = q.results[1:]
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Rows, nil
}
