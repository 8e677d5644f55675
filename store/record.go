package store

import (
	"time"
)

// Reserved record keys stamped by the CRUD coordinator.
const (
	// KeyID is the unique record identifier within a store.
	KeyID = "id"
	// KeyCreatedAt is stamped once when the record is added.
	KeyCreatedAt = "createdAt"
	// KeyUpdatedAt is re-stamped on every update.
	KeyUpdatedAt = "updatedAt"
)

// Record is a single schema-validated entity. Domain fields live alongside
// the reserved id and audit-timestamp keys.
type Record map[string]any

// ID returns the record identifier, or "" if absent.
func (r Record) ID() string {
	id, _ := r[KeyID].(string)
	return id
}

// CreatedAt returns the creation timestamp, or the zero time if absent.
func (r Record) CreatedAt() time.Time {
	return r.timeField(KeyCreatedAt)
}

// UpdatedAt returns the last-update timestamp, or the zero time if absent.
func (r Record) UpdatedAt() time.Time {
	return r.timeField(KeyUpdatedAt)
}

func (r Record) timeField(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Clone returns a shallow copy of the record. Mutating the copy's top-level
// keys never affects the original, which is what the query and snapshot
// paths need: record values themselves are scalars under the schema model.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a new record with patch applied over r (shallow merge).
// Neither input is modified.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Number returns the named field coerced to float64. The second return is
// false when the field is absent or not numeric.
func (r Record) Number(key string) (float64, bool) {
	return numberValue(r[key])
}

// numberValue coerces the numeric representations a record can carry to
// float64. JSON decoding yields float64, direct callers may supply ints.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// cloneRecords deep-copies a record slice at record granularity.
func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
