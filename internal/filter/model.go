package filter

import "github.com/cockroachdb/errors"

// Labels of the fixed categories.
const (
	LabelNotBoosted = "Not boosted"
	LabelBoosted    = "Boosted"

	LabelNoLithium = "No lithium"
	LabelLiOH      = "LiOH"
	LabelLiNO3     = "LiNO3"

	LabelBlocks = "Blocks (A and B)"
	LabelSlab   = "Slab (S)"
)

// Mix design component names.
const (
	ComponentNaOH  = "naoh"
	ComponentLiOH  = "lioh"
	ComponentLiNO3 = "ltn"
)

// plainBinder is the binder type stored for portland cement without supplements.
const plainBinder = "PC"

// binderSuffixes maps binder labels to the supplement suffix appended to "PC+".
// An empty suffix is plain portland cement.
var binderSuffixes = []struct {
	label  string
	suffix string
}{
	{"PC", ""},
	{"PC + silica fume", "SF"},
	{"PC + fly ash", "FA"},
	{"PC + slag", "SG"},
	{"PC + fly ash + silica fume", "FA+SF"},
}

var labTests = []string{
	"CPT38-RH95",
	"CPT38-NaOH1N",
	"CPT80-NaOH1N",
	"CPT60-RH95",
	"CPT38-NaCl5%",
	"AMBT",
}

// BinderCode returns the stored binder type for a supplement suffix.
func BinderCode(suffix string) string {
	if suffix == "" {
		return plainBinder
	}
	return plainBinder + "+" + suffix
}

// AggregateSource resolves reactive aggregate names to their reference ids.
type AggregateSource interface {
	Labels() []string
	ID(label string) (string, bool)
	Len() int
}

// Model is the vocabulary of selectable filter values for one session.
type Model struct {
	aggregates AggregateSource
}

func NewModel(aggregates AggregateSource) *Model {
	return &Model{aggregates: aggregates}
}

// Labels returns the selectable labels of a category in display order.
// An empty aggregate reference table yields no labels.
func (m *Model) Labels(dt DataType, c Category) []string {
	opts, err := m.Options(dt, c)
	if err != nil {
		return nil
	}
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
	}
	return labels
}

// Codes returns the storage codes a label resolves to.
func (m *Model) Codes(dt DataType, c Category, label string) ([]string, error) {
	o, err := m.Lookup(dt, c, label)
	if err != nil {
		return nil, err
	}
	return o.StorageCodes(), nil
}

// Lookup finds the option for a label.
func (m *Model) Lookup(dt DataType, c Category, label string) (Option, error) {
	opts, err := m.Options(dt, c)
	if err != nil {
		return Option{}, err
	}
	for _, o := range opts {
		if o.Label == label {
			return o, nil
		}
	}
	return Option{}, errors.Wrapf(ErrUnknownLabel, "%s %q", c, label)
}

// Options returns every option of a category in display order.
func (m *Model) Options(dt DataType, c Category) ([]Option, error) {
	switch c {
	case Aggregate:
		return m.aggregateOptions()
	case Binder:
		return binderOptions(), nil
	case ElementOrTest:
		return elementOptions(dt)
	case Boosting:
		return boostingOptions(), nil
	case Lithium:
		return lithiumOptions(), nil
	}
	return nil, errors.Wrapf(ErrUnknownCategory, "%d", int(c))
}

func (m *Model) aggregateOptions() ([]Option, error) {
	if m.aggregates == nil || m.aggregates.Len() == 0 {
		return nil, errors.Wrapf(ErrEmptyCategory, "%s", Aggregate)
	}
	labels := m.aggregates.Labels()
	opts := make([]Option, 0, len(labels))
	for _, l := range labels {
		id, ok := m.aggregates.ID(l)
		if !ok {
			continue
		}
		opts = append(opts, Option{Label: l, Template: Template{Kind: EqualitySet, Codes: []string{id}}})
	}
	return opts, nil
}

func binderOptions() []Option {
	opts := make([]Option, len(binderSuffixes))
	for i, b := range binderSuffixes {
		opts[i] = Option{Label: b.label, Template: Template{Kind: EqualitySet, Codes: []string{BinderCode(b.suffix)}}}
	}
	return opts
}

func elementOptions(dt DataType) ([]Option, error) {
	switch dt {
	case Field:
		return []Option{
			{Label: LabelBlocks, Template: Template{Kind: EqualitySet, Codes: []string{"A", "B", "AB"}}},
			{Label: LabelSlab, Template: Template{Kind: EqualitySet, Codes: []string{"S"}}},
		}, nil
	case Lab:
		opts := make([]Option, len(labTests))
		for i, t := range labTests {
			opts[i] = Option{Label: t, Template: Template{Kind: EqualitySet, Codes: []string{t}}}
		}
		return opts, nil
	}
	return nil, errors.Wrapf(ErrUnknownDataType, "%q", string(dt))
}

func boostingOptions() []Option {
	return []Option{
		{Label: LabelNotBoosted, Template: Template{Kind: SignedPresence, Component: ComponentNaOH}},
		{Label: LabelBoosted, Template: Template{Kind: SignedPresence, Component: ComponentNaOH, NonZero: true}},
	}
}

func lithiumOptions() []Option {
	return []Option{
		{Label: LabelNoLithium, Template: Template{Kind: Existence, Components: []string{ComponentLiOH, ComponentLiNO3}, Negate: true}},
		{Label: LabelLiOH, Template: Template{Kind: Existence, Components: []string{ComponentLiOH}}},
		{Label: LabelLiNO3, Template: Template{Kind: Existence, Components: []string{ComponentLiNO3}}},
	}
}
