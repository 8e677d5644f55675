package store

import (
	"fmt"
	"sort"
	"time"
)

// SortKey names a field to order by. Desc negates the comparison.
type SortKey struct {
	Field string
	Desc  bool
}

// QueryOptions shapes a read: optional predicate filter, stable multi-key
// sort, then pagination. The zero value returns the whole collection in
// insertion order.
type QueryOptions struct {
	// Filter keeps records for which the predicate returns true.
	Filter func(Record) bool

	// Sort applies keys in declaration order: the first non-zero comparison
	// wins, equal falls through to the next key.
	Sort []SortKey

	// Offset skips the first n records after sorting. Defaults to 0.
	Offset int

	// Limit caps the result length. 0 means the full remaining length.
	Limit int
}

// applyQuery filters, sorts, and paginates a snapshot. The input slice is
// owned by the caller of this function and mutated in place by the sort.
func applyQuery(records []Record, opts QueryOptions) []Record {
	if opts.Filter != nil {
		filtered := records[:0]
		for _, r := range records {
			if opts.Filter(r) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	if len(opts.Sort) > 0 {
		sort.SliceStable(records, func(i, j int) bool {
			for _, key := range opts.Sort {
				cmp := compareValues(records[i][key.Field], records[j][key.Field])
				if key.Desc {
					cmp = -cmp
				}
				if cmp != 0 {
					return cmp < 0
				}
			}
			return false
		})
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []Record{}
	}
	records = records[offset:]

	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	return records
}

// compareValues orders two record values. Numbers compare numerically,
// times chronologically, everything else by string form. Absent values
// sort first so ascending order surfaces incomplete records early.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if na, ok := numberValue(a); ok {
		if nb, ok := numberValue(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}

	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}
