// Package query provides a typed predicate builder that repositories compile
// to parameterized SQL. It replaces ad-hoc string conditions so every list
// endpoint shares one filter vocabulary: membership, substring, range, set
// and NULL tests, plus pagination and ordering.
package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Op enumerates the supported comparison operators.
type Op string

const (
	OpEq         Op = "eq"
	OpNeq        Op = "neq"
	OpIn         Op = "in"
	OpNotIn      Op = "not_in"
	OpLike       Op = "like"
	OpNotLike    Op = "not_like"
	OpStartsWith Op = "starts_with"
	OpEndsWith   Op = "ends_with"
	OpInSet      Op = "in_set"
	OpNotInSet   Op = "not_in_set"
	OpNull       Op = "null"
	OpNotNull    Op = "not_null"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpBetween    Op = "between"
	OpNotBetween Op = "not_between"
	OpRegexp     Op = "regexp"
	OpNotRegexp  Op = "not_regexp"
)

// Predicate is one column comparison. Values carries zero or more operands
// depending on the operator: none for NULL tests, two for BETWEEN, any
// number for IN, one otherwise.
type Predicate struct {
	Column string
	Op     Op
	Values []any
}

func Eq(column string, v any) Predicate  { return Predicate{column, OpEq, []any{v}} }
func Neq(column string, v any) Predicate { return Predicate{column, OpNeq, []any{v}} }
func In(column string, vs ...any) Predicate {
	return Predicate{column, OpIn, vs}
}
func NotIn(column string, vs ...any) Predicate {
	return Predicate{column, OpNotIn, vs}
}
func Like(column, s string) Predicate       { return Predicate{column, OpLike, []any{s}} }
func NotLike(column, s string) Predicate    { return Predicate{column, OpNotLike, []any{s}} }
func StartsWith(column, s string) Predicate { return Predicate{column, OpStartsWith, []any{s}} }
func EndsWith(column, s string) Predicate   { return Predicate{column, OpEndsWith, []any{s}} }
func InSet(column string, vs ...any) Predicate {
	return Predicate{column, OpInSet, vs}
}
func NotInSet(column string, vs ...any) Predicate {
	return Predicate{column, OpNotInSet, vs}
}
func Null(column string) Predicate       { return Predicate{column, OpNull, nil} }
func NotNull(column string) Predicate    { return Predicate{column, OpNotNull, nil} }
func Lt(column string, v any) Predicate  { return Predicate{column, OpLt, []any{v}} }
func Lte(column string, v any) Predicate { return Predicate{column, OpLte, []any{v}} }
func Gt(column string, v any) Predicate  { return Predicate{column, OpGt, []any{v}} }
func Gte(column string, v any) Predicate { return Predicate{column, OpGte, []any{v}} }
func Between(column string, lo, hi any) Predicate {
	return Predicate{column, OpBetween, []any{lo, hi}}
}
func NotBetween(column string, lo, hi any) Predicate {
	return Predicate{column, OpNotBetween, []any{lo, hi}}
}
func Regexp(column, pattern string) Predicate {
	return Predicate{column, OpRegexp, []any{pattern}}
}
func NotRegexp(column, pattern string) Predicate {
	return Predicate{column, OpNotRegexp, []any{pattern}}
}

var columnPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// SQL compiles the predicate into a parameterized condition and its
// arguments. The column name is validated against a strict identifier
// pattern; values always travel as placeholders.
func (p Predicate) SQL() (string, []any, error) {
	if !columnPattern.MatchString(p.Column) {
		return "", nil, fmt.Errorf("invalid column name %q", p.Column)
	}

	switch p.Op {
	case OpEq:
		if len(p.Values) != 1 {
			return "", nil, fmt.Errorf("eq on %s requires exactly one value", p.Column)
		}
		// A slice operand means membership, mirroring the common
		// "plain column with array value" shorthand.
		if vs, ok := toSlice(p.Values[0]); ok {
			return In(p.Column, vs...).SQL()
		}
		return p.Column + " = ?", p.Values, nil
	case OpNeq:
		if len(p.Values) != 1 {
			return "", nil, fmt.Errorf("neq on %s requires exactly one value", p.Column)
		}
		return p.Column + " != ?", p.Values, nil
	case OpIn:
		if len(p.Values) == 0 {
			// Empty membership matches nothing.
			return "1 = 0", nil, nil
		}
		return p.Column + " IN ?", []any{flatten(p.Values)}, nil
	case OpNotIn:
		if len(p.Values) == 0 {
			return "1 = 1", nil, nil
		}
		return p.Column + " NOT IN ?", []any{flatten(p.Values)}, nil
	case OpLike:
		return p.Column + " LIKE ?", []any{"%" + likeOperand(p.Values) + "%"}, nil
	case OpNotLike:
		return p.Column + " NOT LIKE ?", []any{"%" + likeOperand(p.Values) + "%"}, nil
	case OpStartsWith:
		return p.Column + " LIKE ?", []any{likeOperand(p.Values) + "%"}, nil
	case OpEndsWith:
		return p.Column + " LIKE ?", []any{"%" + likeOperand(p.Values)}, nil
	case OpInSet, OpNotInSet:
		return p.setSQL()
	case OpNull:
		return p.Column + " IS NULL", nil, nil
	case OpNotNull:
		return p.Column + " IS NOT NULL", nil, nil
	case OpLt:
		return p.Column + " < ?", p.Values, nil
	case OpLte:
		return p.Column + " <= ?", p.Values, nil
	case OpGt:
		return p.Column + " > ?", p.Values, nil
	case OpGte:
		return p.Column + " >= ?", p.Values, nil
	case OpBetween:
		if len(p.Values) != 2 {
			return "", nil, fmt.Errorf("between on %s requires two values", p.Column)
		}
		return p.Column + " BETWEEN ? AND ?", p.Values, nil
	case OpNotBetween:
		if len(p.Values) != 2 {
			return "", nil, fmt.Errorf("not between on %s requires two values", p.Column)
		}
		return p.Column + " NOT BETWEEN ? AND ?", p.Values, nil
	case OpRegexp:
		return p.Column + " REGEXP ?", p.Values, nil
	case OpNotRegexp:
		return p.Column + " NOT REGEXP ?", p.Values, nil
	default:
		return "", nil, fmt.Errorf("unknown operator %q", p.Op)
	}
}

// setSQL handles comma-set membership. A single alternative compiles to
// FIND_IN_SET; multiple alternatives compile to a regex-OR over set
// boundaries so any of them matching is enough.
func (p Predicate) setSQL() (string, []any, error) {
	if len(p.Values) == 0 {
		return "", nil, fmt.Errorf("set membership on %s requires at least one value", p.Column)
	}

	negate := p.Op == OpNotInSet

	if len(p.Values) == 1 {
		cond := "FIND_IN_SET(?, " + p.Column + ") > 0"
		if negate {
			cond = "FIND_IN_SET(?, " + p.Column + ") = 0"
		}
		return cond, []any{fmt.Sprint(p.Values[0])}, nil
	}

	alternatives := make([]string, 0, len(p.Values))
	for _, v := range p.Values {
		alternatives = append(alternatives, regexp.QuoteMeta(fmt.Sprint(v)))
	}
	pattern := "(^|,)(" + strings.Join(alternatives, "|") + ")(,|$)"
	cond := p.Column + " REGEXP ?"
	if negate {
		cond = p.Column + " NOT REGEXP ?"
	}
	return cond, []any{pattern}, nil
}

func likeOperand(values []any) string {
	if len(values) == 0 {
		return ""
	}
	return escapeLike(fmt.Sprint(values[0]))
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func toSlice(v any) ([]any, bool) {
	switch vs := v.(type) {
	case []any:
		return vs, true
	case []uint:
		out := make([]any, len(vs))
		for i, u := range vs {
			out[i] = u
		}
		return out, true
	case []int:
		out := make([]any, len(vs))
		for i, n := range vs {
			out[i] = n
		}
		return out, true
	case []string:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func flatten(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if vs, ok := toSlice(v); ok {
			out = append(out, vs...)
			continue
		}
		out = append(out, v)
	}
	return out
}

// Filter is the full argument set of a list/count query: predicates plus
// ID shorthands, cross-column search, ordering and pagination.
type Filter struct {
	Predicates []Predicate

	// Include and Exclude are ID-list shorthands over the primary key.
	Include []uint
	Exclude []uint

	// Search matches the term as a substring across the entity's
	// searchable columns (OR-combined). The column set is fixed per
	// repository, not caller-supplied.
	Search string

	// OrderBy must name a whitelisted column; anything else falls back
	// to the primary key. Order is ASC or DESC with DESC the default.
	OrderBy string
	Order   string

	// Limit <= 0 disables pagination and returns the full result set.
	Page  int
	Limit int

	// IDsOnly skips hydration and returns bare primary keys.
	IDsOnly bool
}

// Where appends a predicate and returns the filter for chaining.
func (f *Filter) Where(p Predicate) *Filter {
	f.Predicates = append(f.Predicates, p)
	return f
}

// Offset translates page/limit into a row offset.
func (f *Filter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// OrderClause renders the ORDER BY fragment. The whitelist guards against
// injection through orderby; unknown columns fall back to the primary key.
func (f *Filter) OrderClause(allowed map[string]bool, primaryKey string) string {
	column := f.OrderBy
	if column == "" || !allowed[column] {
		column = primaryKey
	}
	direction := "DESC"
	if strings.EqualFold(f.Order, "ASC") {
		direction = "ASC"
	}
	return column + " " + direction
}

// Fingerprint returns a deterministic textual form of every argument that
// affects the result rows, for use as a cache key component. Pagination and
// ordering are included since they shape the returned set; nothing else is
// excluded.
func (f *Filter) Fingerprint() string {
	var b strings.Builder
	for _, p := range f.Predicates {
		fmt.Fprintf(&b, "p:%s:%s:%v;", p.Column, p.Op, p.Values)
	}
	if len(f.Include) > 0 {
		ids := append([]uint(nil), f.Include...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		fmt.Fprintf(&b, "inc:%v;", ids)
	}
	if len(f.Exclude) > 0 {
		ids := append([]uint(nil), f.Exclude...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		fmt.Fprintf(&b, "exc:%v;", ids)
	}
	if f.Search != "" {
		fmt.Fprintf(&b, "q:%s;", f.Search)
	}
	fmt.Fprintf(&b, "ord:%s:%s;pg:%d:%d;ids:%t", f.OrderBy, f.Order, f.Page, f.Limit, f.IDsOnly)
	return b.String()
}
