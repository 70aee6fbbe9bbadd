package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/atlekbai/expansion_explorer/internal/filter"
)

// IncompleteSelectionError reports a required category with nothing selected.
type IncompleteSelectionError struct {
	Category filter.Category
}

func (e *IncompleteSelectionError) Error() string {
	return fmt.Sprintf("incomplete filter selection: no %s selected", e.Category)
}

// Fragment is the boolean SQL for one category. SQL uses ? placeholders and
// Args holds their values in placeholder order.
type Fragment struct {
	Category filter.Category
	SQL      string
	Args     []any
}

// ToSql renders the fragment parenthesized so it can be AND-ed with others.
func (f Fragment) ToSql() (string, []any, error) {
	if f.SQL == "" {
		return "", nil, &IncompleteSelectionError{Category: f.Category}
	}
	return "(" + f.SQL + ")", f.Args, nil
}

// BuildPredicates returns one fragment per category in filter.Categories order.
// Every category is required; an empty one fails before any SQL is produced.
func BuildPredicates(model *filter.Model, dt filter.DataType, sel filter.Selection) ([]Fragment, error) {
	sk, err := skeletonFor(dt)
	if err != nil {
		return nil, errors.Mark(err, filter.ErrUnknownDataType)
	}
	frags := make([]Fragment, 0, len(filter.Categories))
	for _, c := range filter.Categories {
		f, err := buildPredicate(model, sk, dt, c, sel[c])
		if err != nil {
			return nil, err
		}
		frags = append(frags, f)
	}
	return frags, nil
}

func buildPredicate(model *filter.Model, sk *skeleton, dt filter.DataType, c filter.Category, labels []string) (Fragment, error) {
	opts, err := model.Options(dt, c)
	if err != nil {
		return Fragment{}, err
	}
	chosen, err := choose(c, opts, labels)
	if err != nil {
		return Fragment{}, err
	}
	if len(chosen) == 0 {
		return Fragment{}, &IncompleteSelectionError{Category: c}
	}

	var (
		conds []sq.Sqlizer
		seen  = make(map[string]bool)
	)
	for _, o := range chosen {
		switch o.Template.Kind {
		case filter.EqualitySet:
			if cond := equality(sk.column(c), o.Template.Codes, seen); cond != nil {
				conds = append(conds, cond)
			}
		case filter.SignedPresence:
			conds = append(conds, signedPresence(o.Template))
		case filter.Existence:
			conds = append(conds, existence(o.Template))
		}
	}
	return disjunction(c, conds)
}

// choose validates the selected labels and returns their options in display
// order, each at most once.
func choose(c filter.Category, opts []filter.Option, labels []string) ([]filter.Option, error) {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[l] = true
	}
	chosen := make([]filter.Option, 0, len(want))
	for _, o := range opts {
		if want[o.Label] {
			chosen = append(chosen, o)
			delete(want, o.Label)
		}
	}
	for _, l := range labels {
		if want[l] {
			return nil, errors.Wrapf(filter.ErrUnknownLabel, "%s %q", c, l)
		}
	}
	return chosen, nil
}

// equality matches col against the codes not already matched by an earlier option.
func equality(col string, codes []string, seen map[string]bool) sq.Sqlizer {
	fresh := make([]string, 0, len(codes))
	for _, code := range codes {
		if !seen[code] {
			seen[code] = true
			fresh = append(fresh, code)
		}
	}
	switch len(fresh) {
	case 0:
		return nil
	case 1:
		return sq.Eq{col: fresh[0]}
	default:
		return sq.Eq{col: fresh}
	}
}

// signedPresence matches the joined mix design row of a component.
func signedPresence(t filter.Template) sq.Sqlizer {
	op := "="
	if t.NonZero {
		op = "!="
	}
	return sq.Expr(
		fmt.Sprintf("%s.component = ? AND %s.amount %s 0", mixAlias, mixAlias, op),
		t.Component,
	)
}

// existence tests for a nonzero mix design row of any listed component on the same record.
func existence(t filter.Template) sq.Sqlizer {
	var comp sq.Sqlizer = sq.Eq{subMixAlias + ".component": t.Components}
	if len(t.Components) == 1 {
		comp = sq.Eq{subMixAlias + ".component": t.Components[0]}
	}
	sub := sq.Select("1").
		From(mixDesignTable + " " + subMixAlias).
		Where(fmt.Sprintf("%s.id = %s.id", subMixAlias, mixAlias)).
		Where(comp).
		Where(subMixAlias + ".amount != 0")

	prefix := "EXISTS"
	if t.Negate {
		prefix = "NOT EXISTS"
	}
	return sq.ConcatExpr(prefix+" (", sub, ")")
}

// disjunction OR-joins conds into a single fragment. Multi-clause conditions are
// parenthesized so AND inside a clause never binds across the OR.
func disjunction(c filter.Category, conds []sq.Sqlizer) (Fragment, error) {
	if len(conds) == 0 {
		return Fragment{}, &IncompleteSelectionError{Category: c}
	}
	parts := make([]string, 0, len(conds))
	var args []any
	for _, cond := range conds {
		sql, a, err := cond.ToSql()
		if err != nil {
			return Fragment{}, errors.Wrapf(err, "build %s predicate", c)
		}
		if len(conds) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		args = append(args, a...)
	}
	return Fragment{Category: c, SQL: strings.Join(parts, " OR "), Args: args}, nil
}
