package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicate_SQL(t *testing.T) {
	tests := []struct {
		name     string
		pred     Predicate
		wantSQL  string
		wantArgs []any
	}{
		{"eq", Eq("status", "sold"), "status = ?", []any{"sold"}},
		{"eq with slice becomes in", Eq("status", []string{"sold", "activated"}), "status IN ?", []any{[]any{"sold", "activated"}}},
		{"neq", Neq("product_id", 7), "product_id != ?", []any{7}},
		{"in", In("id", 1, 2, 3), "id IN ?", []any{[]any{1, 2, 3}}},
		{"empty in matches nothing", In("id"), "1 = 0", nil},
		{"not in", NotIn("id", 4), "id NOT IN ?", []any{[]any{4}}},
		{"empty not in matches all", NotIn("id"), "1 = 1", nil},
		{"like", Like("code", "ABC"), "code LIKE ?", []any{"%ABC%"}},
		{"like escapes wildcards", Like("code", "50%"), "code LIKE ?", []any{`%50\%%`}},
		{"not like", NotLike("code", "XYZ"), "code NOT LIKE ?", []any{"%XYZ%"}},
		{"starts with", StartsWith("code", "KEY-"), "code LIKE ?", []any{"KEY-%"}},
		{"ends with", EndsWith("code", "-42"), "code LIKE ?", []any{"%-42"}},
		{"null", Null("expires_at"), "expires_at IS NULL", nil},
		{"not null", NotNull("expires_at"), "expires_at IS NOT NULL", nil},
		{"lt", Lt("price", 10.5), "price < ?", []any{10.5}},
		{"lte", Lte("price", 10.5), "price <= ?", []any{10.5}},
		{"gt", Gt("order_id", 0), "order_id > ?", []any{0}},
		{"gte", Gte("order_id", 1), "order_id >= ?", []any{1}},
		{"between", Between("created_at", "2024-01-01", "2024-12-31"), "created_at BETWEEN ? AND ?", []any{"2024-01-01", "2024-12-31"}},
		{"not between", NotBetween("id", 10, 20), "id NOT BETWEEN ? AND ?", []any{10, 20}},
		{"regexp", Regexp("code", "^ABCD"), "code REGEXP ?", []any{"^ABCD"}},
		{"not regexp", NotRegexp("code", "^ABCD"), "code NOT REGEXP ?", []any{"^ABCD"}},
		{"single in_set uses find_in_set", InSet("tag_ids", 3), "FIND_IN_SET(?, tag_ids) > 0", []any{"3"}},
		{"single not_in_set", NotInSet("tag_ids", 3), "FIND_IN_SET(?, tag_ids) = 0", []any{"3"}},
		{"multi in_set uses regex alternation", InSet("tag_ids", 3, 5), "tag_ids REGEXP ?", []any{"(^|,)(3|5)(,|$)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.pred.SQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestPredicate_SQL_RejectsBadColumn(t *testing.T) {
	_, _, err := Eq("id; DROP TABLE license_keys", 1).SQL()
	assert.Error(t, err)
}

func TestPredicate_SQL_BetweenArity(t *testing.T) {
	_, _, err := Predicate{Column: "id", Op: OpBetween, Values: []any{1}}.SQL()
	assert.Error(t, err)
}

func TestFilter_Offset(t *testing.T) {
	f := &Filter{Page: 3, Limit: 25}
	assert.Equal(t, 50, f.Offset())

	f = &Filter{Page: 1, Limit: 25}
	assert.Equal(t, 0, f.Offset())

	// limit <= 0 means the full result set, so no offset applies
	f = &Filter{Page: 5, Limit: 0}
	assert.Equal(t, 0, f.Offset())
}

func TestFilter_OrderClause(t *testing.T) {
	allowed := map[string]bool{"id": true, "created_at": true}

	f := &Filter{OrderBy: "created_at", Order: "asc"}
	assert.Equal(t, "created_at ASC", f.OrderClause(allowed, "id"))

	// default direction is DESC
	f = &Filter{OrderBy: "created_at"}
	assert.Equal(t, "created_at DESC", f.OrderClause(allowed, "id"))

	// unknown column falls back to the primary key
	f = &Filter{OrderBy: "evil_column"}
	assert.Equal(t, "id DESC", f.OrderClause(allowed, "id"))
}

func TestFilter_Fingerprint(t *testing.T) {
	a := &Filter{Search: "ABCD", Page: 1, Limit: 10}
	a.Where(Eq("status", "sold"))

	b := &Filter{Search: "ABCD", Page: 1, Limit: 10}
	b.Where(Eq("status", "sold"))

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	// pagination shapes the result set and must change the fingerprint
	c := &Filter{Search: "ABCD", Page: 2, Limit: 10}
	c.Where(Eq("status", "sold"))
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	// include order does not matter
	d := &Filter{Include: []uint{2, 1}}
	e := &Filter{Include: []uint{1, 2}}
	assert.Equal(t, d.Fingerprint(), e.Fingerprint())
}
