package query

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/atlekbai/expansion_explorer/internal/filter"
)

// ParseSelection converts request input keyed by category name into a
// Selection. Blank labels are dropped and duplicates collapsed; categories
// missing from the input stay empty and are reported at compile time.
func ParseSelection(input map[string][]string) (filter.Selection, error) {
	sel := make(filter.Selection, len(filter.Categories))
	for key, values := range input {
		c, err := filter.ParseCategory(key)
		if err != nil {
			return nil, errors.Wrap(err, "selection")
		}
		seen := make(map[string]bool, len(values))
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			sel[c] = append(sel[c], v)
		}
	}
	return sel, nil
}
