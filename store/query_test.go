package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryFixture() []Record {
	return []Record{
		{"id": "1", "cluster": "North", "amount": 30},
		{"id": "2", "cluster": "South", "amount": 10},
		{"id": "3", "cluster": "North", "amount": 10},
		{"id": "4", "cluster": "South", "amount": 20},
	}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

func TestApplyQueryZeroValue(t *testing.T) {
	got := applyQuery(queryFixture(), QueryOptions{})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(got))
}

func TestApplyQueryFilter(t *testing.T) {
	got := applyQuery(queryFixture(), QueryOptions{
		Filter: func(r Record) bool { return r["cluster"] == "North" },
	})
	assert.Equal(t, []string{"1", "3"}, ids(got))
}

func TestApplyQueryMultiKeySort(t *testing.T) {
	got := applyQuery(queryFixture(), QueryOptions{
		Sort: []SortKey{{Field: "cluster"}, {Field: "amount", Desc: true}},
	})
	assert.Equal(t, []string{"1", "3", "4", "2"}, ids(got))
}

func TestApplyQuerySortIsStable(t *testing.T) {
	// Records 2 and 3 tie on amount; insertion order must hold between them.
	got := applyQuery(queryFixture(), QueryOptions{
		Sort: []SortKey{{Field: "amount"}},
	})
	assert.Equal(t, []string{"2", "3", "4", "1"}, ids(got))
}

func TestApplyQueryAbsentValuesSortFirst(t *testing.T) {
	records := []Record{
		{"id": "a", "amount": 5},
		{"id": "b"},
	}
	got := applyQuery(records, QueryOptions{Sort: []SortKey{{Field: "amount"}}})
	assert.Equal(t, []string{"b", "a"}, ids(got))
}

func TestApplyQueryPagination(t *testing.T) {
	cases := []struct {
		name   string
		opts   QueryOptions
		expect []string
	}{
		{"offset", QueryOptions{Offset: 2}, []string{"3", "4"}},
		{"limit", QueryOptions{Limit: 2}, []string{"1", "2"}},
		{"offset and limit", QueryOptions{Offset: 1, Limit: 2}, []string{"2", "3"}},
		{"offset past end", QueryOptions{Offset: 10}, []string{}},
		{"negative offset clamps", QueryOptions{Offset: -3, Limit: 1}, []string{"1"}},
		{"limit past end", QueryOptions{Offset: 3, Limit: 10}, []string{"4"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := applyQuery(queryFixture(), tc.opts)
			require.Equal(t, tc.expect, ids(got))
		})
	}
}
