package filter

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAggregates [][2]string

func (s staticAggregates) Labels() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p[0]
	}
	return out
}

func (s staticAggregates) ID(label string) (string, bool) {
	for _, p := range s {
		if p[0] == label {
			return p[1], true
		}
	}
	return "", false
}

func (s staticAggregates) Len() int { return len(s) }

func TestLabelsFixedCategories(t *testing.T) {
	m := NewModel(staticAggregates{{"Spratt", "7"}})

	assert.Equal(t, []string{"PC", "PC + silica fume", "PC + fly ash", "PC + slag", "PC + fly ash + silica fume"},
		m.Labels(Field, Binder))
	assert.Equal(t, []string{LabelNotBoosted, LabelBoosted}, m.Labels(Field, Boosting))
	assert.Equal(t, []string{LabelNoLithium, LabelLiOH, LabelLiNO3}, m.Labels(Lab, Lithium))
	assert.Equal(t, []string{LabelBlocks, LabelSlab}, m.Labels(Field, ElementOrTest))
	assert.Equal(t, []string{"CPT38-RH95", "CPT38-NaOH1N", "CPT80-NaOH1N", "CPT60-RH95", "CPT38-NaCl5%", "AMBT"},
		m.Labels(Lab, ElementOrTest))
	assert.Equal(t, []string{"Spratt"}, m.Labels(Lab, Aggregate))
}

func TestCodes(t *testing.T) {
	m := NewModel(staticAggregates{{"Spratt", "7"}, {"Sudbury", "9"}})

	tests := []struct {
		dt    DataType
		cat   Category
		label string
		want  []string
	}{
		{Field, Aggregate, "Sudbury", []string{"9"}},
		{Field, Binder, "PC", []string{"PC"}},
		{Field, Binder, "PC + silica fume", []string{"PC+SF"}},
		{Field, Binder, "PC + fly ash + silica fume", []string{"PC+FA+SF"}},
		{Field, ElementOrTest, LabelBlocks, []string{"A", "B", "AB"}},
		{Field, ElementOrTest, LabelSlab, []string{"S"}},
		{Lab, ElementOrTest, "AMBT", []string{"AMBT"}},
		{Field, Boosting, LabelBoosted, []string{ComponentNaOH}},
		{Field, Lithium, LabelNoLithium, []string{ComponentLiOH, ComponentLiNO3}},
		{Field, Lithium, LabelLiNO3, []string{ComponentLiNO3}},
	}
	for _, tt := range tests {
		t.Run(tt.cat.String()+"/"+tt.label, func(t *testing.T) {
			got, err := m.Codes(tt.dt, tt.cat, tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodesUnknownLabel(t *testing.T) {
	m := NewModel(staticAggregates{{"Spratt", "7"}})

	_, err := m.Codes(Field, ElementOrTest, "AMBT")
	assert.True(t, errors.Is(err, ErrUnknownLabel), "lab tests are not field elements: %v", err)

	_, err = m.Codes(Field, Binder, "PC + ash")
	assert.True(t, errors.Is(err, ErrUnknownLabel))
}

func TestEmptyAggregateCategory(t *testing.T) {
	m := NewModel(staticAggregates{})

	assert.Empty(t, m.Labels(Field, Aggregate))

	_, err := m.Codes(Field, Aggregate, "Spratt")
	assert.True(t, errors.Is(err, ErrEmptyCategory))
}

func TestBinderCode(t *testing.T) {
	assert.Equal(t, "PC", BinderCode(""))
	assert.Equal(t, "PC+SG", BinderCode("SG"))
}

func TestParseCategoryAndDataType(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCategory("cement")
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	dt, err := ParseDataType(" LAB ")
	require.NoError(t, err)
	assert.Equal(t, Lab, dt)
	_, err = ParseDataType("sim")
	assert.True(t, errors.Is(err, ErrUnknownDataType))
}

func TestSelectionHas(t *testing.T) {
	sel := Selection{Boosting: {LabelBoosted}}
	assert.True(t, sel.Has(Boosting, LabelBoosted))
	assert.False(t, sel.Has(Boosting, LabelNotBoosted))
	assert.False(t, sel.Has(Lithium, LabelLiOH))
}
