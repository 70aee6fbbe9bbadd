package query

import (
	"regexp"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/atlekbai/expansion_explorer/internal/filter"
)

// Compiled is an executable statement with its positional arguments.
type Compiled struct {
	DataType filter.DataType
	SQL      string
	Args     []any
}

// Compiler turns filter selections into SQL for one session's vocabulary.
type Compiler struct {
	model *filter.Model
}

func NewCompiler(model *filter.Model) *Compiler {
	return &Compiler{model: model}
}

// Compile builds the query for dt from sel. Each category fragment is AND-ed in
// filter.Categories order and carries its own arguments, so argument order
// always follows placeholder order.
func (c *Compiler) Compile(dt filter.DataType, sel filter.Selection) (*Compiled, error) {
	sk, err := skeletonFor(dt)
	if err != nil {
		return nil, errors.Mark(err, filter.ErrUnknownDataType)
	}
	frags, err := BuildPredicates(c.model, dt, sel)
	if err != nil {
		return nil, err
	}

	qb := sq.Select(sk.columns...).From(sk.from).PlaceholderFormat(sq.Dollar)
	for _, j := range sk.joins() {
		qb = qb.Join(j)
	}
	qb = qb.Where(sk.baseWhere())
	for _, f := range frags {
		qb = qb.Where(f)
	}
	qb = qb.OrderBy(sk.orderBy()...)

	sqlStr, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	if err := checkPlaceholders(sqlStr, args); err != nil {
		return nil, err
	}
	return &Compiled{DataType: dt, SQL: sqlStr, Args: args}, nil
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// checkPlaceholders verifies the statement numbers its placeholders $1..$n in
// order of appearance with exactly one argument each.
func checkPlaceholders(sqlStr string, args []any) error {
	matches := placeholderRe.FindAllStringSubmatch(sqlStr, -1)
	if len(matches) != len(args) {
		return errors.AssertionFailedf("query has %d placeholders for %d arguments", len(matches), len(args))
	}
	for i, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n != i+1 {
			return errors.AssertionFailedf("placeholder %d is out of order: $%s", i+1, m[1])
		}
	}
	return nil
}
