package query

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/atlekbai/expansion_explorer/internal/filter"
)

// Tables of the exposure-site schema.
const (
	expansionTable = "public.canmet_site_expansion"
	labTestTable   = "public.canmet_site_lab_tests"
	materialsTable = "public.canmet_site_mix_materials"
	namesTable     = "public.canmet_site_full_names"
	mixDesignTable = "public.canmet_site_mix_design"
)

// Aliases shared by both skeletons.
const (
	materialAlias = "m"
	binderAlias   = "m_binder"
	namesAlias    = "fn"
	mixAlias      = "md"
	subMixAlias   = "md2"
)

// skeleton is the fixed FROM/JOIN frame of one data type. The event table
// (expansion readings or lab tests) drives the join and carries the record id.
type skeleton struct {
	alias      string
	from       string
	columns    []string
	elementCol string
}

func skeletonFor(dt filter.DataType) (*skeleton, error) {
	switch dt {
	case filter.Field:
		return &skeleton{
			alias: "e",
			from:  expansionTable + " e",
			columns: []string{
				"e.id::text AS id",
				"COALESCE(fn.designation, '') AS designation",
				"e.date",
				"e.age::float8 AS age",
				"e.block::text AS block",
				"e.position::text AS position",
				"e.expansion::float8 AS expansion",
			},
			elementCol: "e.block",
		}, nil
	case filter.Lab:
		return &skeleton{
			alias: "l",
			from:  labTestTable + " l",
			columns: []string{
				"l.id::text AS id",
				"COALESCE(fn.designation, '') AS designation",
				"l.test::text AS test",
				"l.age::float8 AS age",
				"l.expansion::float8 AS expansion",
			},
			elementCol: "l.test",
		}, nil
	}
	return nil, errors.Newf("no join skeleton for data type %q", string(dt))
}

func (s *skeleton) joins() []string {
	a := s.alias
	return []string{
		fmt.Sprintf("%s %s ON %s.id = %s.id", materialsTable, materialAlias, a, materialAlias),
		fmt.Sprintf("%s %s ON %s.id = %s.id AND %s.material = 'binder'", materialsTable, binderAlias, a, binderAlias, binderAlias),
		fmt.Sprintf("%s %s ON %s.id = %s.id", namesTable, namesAlias, a, namesAlias),
		fmt.Sprintf("%s %s ON %s.id = %s.id", mixDesignTable, mixAlias, a, mixAlias),
	}
}

// baseWhere restricts the generic material join to the coarse aggregate row.
func (s *skeleton) baseWhere() string {
	return materialAlias + ".material = 'coarse aggregate'"
}

// orderBy returns readings grouped by record and ascending in the independent variable.
func (s *skeleton) orderBy() []string {
	return []string{s.alias + ".id", s.alias + ".age"}
}

// column returns the column an equality-set category is matched against.
func (s *skeleton) column(c filter.Category) string {
	switch c {
	case filter.Aggregate:
		return materialAlias + ".type"
	case filter.Binder:
		return binderAlias + ".type"
	case filter.ElementOrTest:
		return s.elementCol
	}
	return ""
}
