package filter

import (
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrUnknownCategory = errors.New("unknown filter category")
	ErrUnknownDataType = errors.New("unknown data type")
	ErrUnknownLabel    = errors.New("unknown filter label")
	// ErrEmptyCategory is returned when a reference-driven category has no options to offer.
	ErrEmptyCategory = errors.New("category has no selectable options")
)

// Category is one of the fixed filter groups shown to the user.
type Category int

const (
	Aggregate Category = iota
	Binder
	ElementOrTest
	Boosting
	Lithium
)

// Categories lists every category in the order its predicate appears in a compiled query.
var Categories = []Category{Aggregate, Binder, ElementOrTest, Boosting, Lithium}

func (c Category) String() string {
	switch c {
	case Aggregate:
		return "aggregate"
	case Binder:
		return "binder"
	case ElementOrTest:
		return "element_or_test"
	case Boosting:
		return "boosting"
	case Lithium:
		return "lithium"
	default:
		return "unknown"
	}
}

// ParseCategory accepts the names produced by Category.String.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownCategory, "%q", s)
}

// DataType selects between the two experimental regimes.
type DataType string

const (
	Field DataType = "field"
	Lab   DataType = "lab"
)

func ParseDataType(s string) (DataType, error) {
	switch DataType(strings.ToLower(strings.TrimSpace(s))) {
	case Field:
		return Field, nil
	case Lab:
		return Lab, nil
	}
	return "", errors.Wrapf(ErrUnknownDataType, "%q, expected field or lab", s)
}

// Selection maps each category to the labels chosen for it. Label order and
// repetition carry no meaning.
type Selection map[Category][]string

// Has reports whether label is selected for c.
func (s Selection) Has(c Category, label string) bool {
	for _, l := range s[c] {
		if l == label {
			return true
		}
	}
	return false
}

// Kind tells the predicate builder how to turn an option into SQL.
type Kind int

const (
	// EqualitySet matches the category column against one or more codes.
	EqualitySet Kind = iota
	// SignedPresence matches the joined mix design row of a component by zero or nonzero amount.
	SignedPresence
	// Existence tests for a nonzero mix design row of any listed component.
	Existence
)

// Template is the typed predicate an option stands for.
type Template struct {
	Kind Kind

	// EqualitySet
	Codes []string

	// SignedPresence
	Component string
	NonZero   bool

	// Existence
	Components []string
	Negate     bool
}

// Option is one selectable label of a category.
type Option struct {
	Label    string
	Template Template
}

// StorageCodes returns the codes the option resolves to in storage.
func (o Option) StorageCodes() []string {
	switch o.Template.Kind {
	case EqualitySet:
		return append([]string(nil), o.Template.Codes...)
	case SignedPresence:
		return []string{o.Template.Component}
	default:
		return append([]string(nil), o.Template.Components...)
	}
}
