package query

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/expansion_explorer/internal/catalog"
	"github.com/atlekbai/expansion_explorer/internal/filter"
)

func testModel() *filter.Model {
	return filter.NewModel(catalog.NewFromEntries(
		catalog.Entry{Name: "Spratt", ID: "7"},
		catalog.Entry{Name: "Sudbury", ID: "12"},
	))
}

func fieldSelection() filter.Selection {
	return filter.Selection{
		filter.Aggregate:     {"Spratt"},
		filter.Binder:        {"PC"},
		filter.ElementOrTest: {filter.LabelBlocks},
		filter.Boosting:      {filter.LabelBoosted},
		filter.Lithium:       {filter.LabelNoLithium},
	}
}

func labSelection() filter.Selection {
	return filter.Selection{
		filter.Aggregate:     {"Spratt"},
		filter.Binder:        {"PC + fly ash"},
		filter.ElementOrTest: {"AMBT", "CPT38-RH95"},
		filter.Boosting:      {filter.LabelNotBoosted},
		filter.Lithium:       {filter.LabelLiOH},
	}
}

func TestCompileFieldScenario(t *testing.T) {
	q, err := NewCompiler(testModel()).Compile(filter.Field, fieldSelection())
	require.NoError(t, err)

	assert.Equal(t, filter.Field, q.DataType)
	assert.True(t, strings.HasPrefix(q.SQL, "SELECT e.id::text AS id, COALESCE(fn.designation, '') AS designation, e.date, e.age::float8 AS age, e.block::text AS block, e.position::text AS position, e.expansion::float8 AS expansion FROM public.canmet_site_expansion e"), q.SQL)
	for _, join := range []string{
		"JOIN public.canmet_site_mix_materials m ON e.id = m.id",
		"JOIN public.canmet_site_mix_materials m_binder ON e.id = m_binder.id AND m_binder.material = 'binder'",
		"JOIN public.canmet_site_full_names fn ON e.id = fn.id",
		"JOIN public.canmet_site_mix_design md ON e.id = md.id",
	} {
		assert.Contains(t, q.SQL, join)
	}

	where := "WHERE m.material = 'coarse aggregate'" +
		" AND (m.type = $1)" +
		" AND (m_binder.type = $2)" +
		" AND (e.block IN ($3,$4,$5))" +
		" AND (md.component = $6 AND md.amount != 0)" +
		" AND (NOT EXISTS (SELECT 1 FROM public.canmet_site_mix_design md2 WHERE md2.id = md.id AND md2.component IN ($7,$8) AND md2.amount != 0))" +
		" ORDER BY e.id, e.age"
	assert.True(t, strings.HasSuffix(q.SQL, where), q.SQL)

	assert.Equal(t, []any{"7", "PC", "A", "B", "AB", "naoh", "lioh", "ltn"}, q.Args)
}

func TestCompileLabScenario(t *testing.T) {
	q, err := NewCompiler(testModel()).Compile(filter.Lab, labSelection())
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "FROM public.canmet_site_lab_tests l")
	assert.Contains(t, q.SQL, "JOIN public.canmet_site_mix_materials m ON l.id = m.id")
	assert.Contains(t, q.SQL, "JOIN public.canmet_site_mix_design md ON l.id = md.id")
	assert.NotContains(t, q.SQL, "canmet_site_expansion")
	assert.NotContains(t, q.SQL, "e.block")

	// Test names follow display order, not selection order.
	assert.Contains(t, q.SQL, "AND ((l.test = $3) OR (l.test = $4)) AND")
	assert.Contains(t, q.SQL, "AND (EXISTS (SELECT 1 FROM public.canmet_site_mix_design md2 WHERE md2.id = md.id AND md2.component = $6 AND md2.amount != 0))")
	assert.True(t, strings.HasSuffix(q.SQL, "ORDER BY l.id, l.age"))

	assert.Equal(t, []any{"7", "PC+FA", "CPT38-RH95", "AMBT", "naoh", "lioh"}, q.Args)
	assert.NotContains(t, q.SQL, "AMBT")
}

func TestCompileFragmentOrder(t *testing.T) {
	q, err := NewCompiler(testModel()).Compile(filter.Field, fieldSelection())
	require.NoError(t, err)

	markers := []string{"m.type", "m_binder.type =", "e.block IN", "md.component =", "NOT EXISTS"}
	last := -1
	for _, m := range markers {
		i := strings.Index(q.SQL, m)
		require.Greater(t, i, last, "%q out of order in %s", m, q.SQL)
		last = i
	}
}

func TestCompileBothBoostingLevels(t *testing.T) {
	sel := fieldSelection()
	sel[filter.Boosting] = []string{filter.LabelBoosted, filter.LabelNotBoosted}

	q, err := NewCompiler(testModel()).Compile(filter.Field, sel)
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "AND ((md.component = $6 AND md.amount = 0) OR (md.component = $7 AND md.amount != 0)) AND")
	assert.Equal(t, "naoh", q.Args[5])
	assert.Equal(t, "naoh", q.Args[6])
}

func TestCompileAllLithiumLevels(t *testing.T) {
	sel := fieldSelection()
	sel[filter.Lithium] = []string{filter.LabelLiNO3, filter.LabelNoLithium, filter.LabelLiOH}

	q, err := NewCompiler(testModel()).Compile(filter.Field, sel)
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "AND ((NOT EXISTS (SELECT 1 FROM public.canmet_site_mix_design md2 WHERE md2.id = md.id AND md2.component IN ($7,$8) AND md2.amount != 0))"+
		" OR (EXISTS (SELECT 1 FROM public.canmet_site_mix_design md2 WHERE md2.id = md.id AND md2.component = $9 AND md2.amount != 0))"+
		" OR (EXISTS (SELECT 1 FROM public.canmet_site_mix_design md2 WHERE md2.id = md.id AND md2.component = $10 AND md2.amount != 0)))")
	assert.Equal(t, []any{"lioh", "ltn", "lioh", "ltn"}, q.Args[6:])
}

func TestCompileBlocksAndSlab(t *testing.T) {
	sel := fieldSelection()
	sel[filter.ElementOrTest] = []string{filter.LabelSlab, filter.LabelBlocks}

	q, err := NewCompiler(testModel()).Compile(filter.Field, sel)
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "AND ((e.block IN ($3,$4,$5)) OR (e.block = $6)) AND")
	assert.Equal(t, []any{"A", "B", "AB", "S"}, q.Args[2:6])
}

func TestCompileBinderNeverInterpolated(t *testing.T) {
	c := NewCompiler(testModel())
	m := testModel()
	for _, label := range m.Labels(filter.Field, filter.Binder) {
		t.Run(label, func(t *testing.T) {
			sel := fieldSelection()
			sel[filter.Binder] = []string{label}

			q, err := c.Compile(filter.Field, sel)
			require.NoError(t, err)

			codes, err := m.Codes(filter.Field, filter.Binder, label)
			require.NoError(t, err)
			require.Len(t, codes, 1)

			assert.NotContains(t, q.SQL, "'"+codes[0])
			assert.NotContains(t, q.SQL, "'PC")
			assert.Contains(t, q.SQL, "(m_binder.type = $2)")
			assert.Equal(t, codes[0], q.Args[1])
		})
	}
}

func TestCompileNoUserLabelInSQL(t *testing.T) {
	sel := fieldSelection()
	sel[filter.Aggregate] = []string{"Sudbury", "Spratt"}

	q, err := NewCompiler(testModel()).Compile(filter.Field, sel)
	require.NoError(t, err)

	assert.NotContains(t, q.SQL, "Spratt")
	assert.NotContains(t, q.SQL, "Sudbury")
	assert.Contains(t, q.SQL, "AND ((m.type = $1) OR (m.type = $2)) AND")
	assert.Equal(t, []any{"7", "12"}, q.Args[:2])
}

func TestCompilePlaceholderParity(t *testing.T) {
	m := testModel()
	c := NewCompiler(m)

	for _, dt := range []filter.DataType{filter.Field, filter.Lab} {
		for _, cat := range filter.Categories {
			labels := m.Labels(dt, cat)
			for _, subset := range subsets(labels) {
				sel := filter.Selection{}
				for _, other := range filter.Categories {
					sel[other] = m.Labels(dt, other)[:1]
				}
				sel[cat] = subset

				q, err := c.Compile(dt, sel)
				require.NoError(t, err, "%s %s %v", dt, cat, subset)
				assert.Equal(t, len(q.Args), strings.Count(q.SQL, "$"), "%s %s %v", dt, cat, subset)
				assert.NotContains(t, q.SQL, "?")
			}
		}
	}
}

// subsets returns every non-empty subset of labels.
func subsets(labels []string) [][]string {
	var out [][]string
	for mask := 1; mask < 1<<len(labels); mask++ {
		var s []string
		for i, l := range labels {
			if mask&(1<<i) != 0 {
				s = append(s, l)
			}
		}
		out = append(out, s)
	}
	return out
}

func TestCompileIncompleteSelection(t *testing.T) {
	c := NewCompiler(testModel())

	for _, cat := range filter.Categories {
		t.Run(cat.String(), func(t *testing.T) {
			sel := fieldSelection()
			delete(sel, cat)

			q, err := c.Compile(filter.Field, sel)
			require.Error(t, err)
			assert.Nil(t, q)

			var incomplete *IncompleteSelectionError
			require.True(t, errors.As(err, &incomplete), "got %v", err)
			assert.Equal(t, cat, incomplete.Category)
		})
	}

	sel := fieldSelection()
	sel[filter.Lithium] = []string{}
	_, err := c.Compile(filter.Field, sel)
	assert.EqualError(t, err, "incomplete filter selection: no lithium selected")
}

func TestCompileUnknownLabel(t *testing.T) {
	sel := fieldSelection()
	sel[filter.ElementOrTest] = []string{"AMBT"}

	_, err := NewCompiler(testModel()).Compile(filter.Field, sel)
	assert.True(t, errors.Is(err, filter.ErrUnknownLabel), "got %v", err)
}

func TestCompileEmptyAggregateCatalog(t *testing.T) {
	c := NewCompiler(filter.NewModel(catalog.New()))

	_, err := c.Compile(filter.Field, fieldSelection())
	assert.True(t, errors.Is(err, filter.ErrEmptyCategory), "got %v", err)
}

func TestCompileUnknownDataType(t *testing.T) {
	_, err := NewCompiler(testModel()).Compile(filter.DataType("sim"), fieldSelection())
	assert.True(t, errors.Is(err, filter.ErrUnknownDataType), "got %v", err)
}

func TestCheckPlaceholders(t *testing.T) {
	assert.NoError(t, checkPlaceholders("a = $1 AND b IN ($2,$3)", []any{1, 2, 3}))
	assert.Error(t, checkPlaceholders("a = $1", nil))
	assert.Error(t, checkPlaceholders("a = $2 AND b = $1", []any{1, 2}))
}

func TestFragmentToSqlRejectsEmpty(t *testing.T) {
	_, _, err := Fragment{Category: filter.Binder}.ToSql()
	var incomplete *IncompleteSelectionError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, filter.Binder, incomplete.Category)
}
