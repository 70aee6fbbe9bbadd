package catalog

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

// loadQuery pairs every aggregate "type" row with its sibling "name" row.
const loadQuery = `
SELECT t.id::text, n.details
FROM public.canmet_site_material_description t
JOIN public.canmet_site_material_description n ON t.id = n.id
WHERE t.info = 'type' AND n.info = 'name' AND t.details = 'Aggregate'
ORDER BY n.details, t.id
`

// Querier is satisfied by *pgxpool.Pool and *pgx.Conn.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Entry is one reactive aggregate: its display name and reference id.
type Entry struct {
	Name string
	ID   string
}

// Catalog caches the reactive aggregate name -> id lookup for a session.
type Catalog struct {
	mu     sync.RWMutex
	labels []string
	ids    map[string]string
}

func New() *Catalog {
	return &Catalog{ids: make(map[string]string)}
}

// NewFromEntries builds a catalog without a database round trip.
func NewFromEntries(entries ...Entry) *Catalog {
	c := New()
	c.labels, c.ids = index(entries)
	return c
}

func (c *Catalog) Load(ctx context.Context, q Querier) error {
	rows, err := q.Query(ctx, loadQuery)
	if err != nil {
		return errors.Wrap(err, "aggregate catalog load")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return errors.Wrap(err, "aggregate catalog scan")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "aggregate catalog rows")
	}

	labels, ids := index(entries)

	c.mu.Lock()
	c.labels = labels
	c.ids = ids
	c.mu.Unlock()

	return nil
}

// index keeps the first position of each name and the last id seen for it.
func index(entries []Entry) ([]string, map[string]string) {
	labels := make([]string, 0, len(entries))
	ids := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, seen := ids[e.Name]; !seen {
			labels = append(labels, e.Name)
		}
		ids[e.Name] = e.ID
	}
	return labels, ids
}

// Labels returns aggregate names in display order.
func (c *Catalog) Labels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.labels...)
}

func (c *Catalog) ID(label string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[label]
	return id, ok
}

// Len returns the number of distinct aggregate names.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.labels)
}
