package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// IDField is the attribute that identifies a record within its collection.
const IDField = "id"

// Record is an upstream document. Only the identity field is interpreted;
// every other attribute passes through untouched.
type Record map[string]any

// ID returns the raw identity value.
func (r Record) ID() (any, bool) {
	v, ok := r[IDField]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Identity returns the comparison key of the record's identity.
func (r Record) Identity() (string, bool) {
	v, ok := r.ID()
	if !ok {
		return "", false
	}
	return IdentityKey(v)
}

// IdentityKey builds an exact-match key for a raw identity value.
// Numbers and strings never collide: 42 and "42" are different identities.
// Numbers of different widths (int32 from one driver, float64 from a JSON
// decoder) produce the same key when they hold the same value.
func IdentityKey(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return "s:" + id, true
	case json.Number:
		if i, err := id.Int64(); err == nil {
			return "n:" + strconv.FormatInt(i, 10), true
		}
		f, err := id.Float64()
		if err != nil {
			return "", false
		}
		return numberKey(f), true
	case float64:
		return numberKey(id), true
	case float32:
		return numberKey(float64(id)), true
	case int:
		return "n:" + strconv.FormatInt(int64(id), 10), true
	case int32:
		return "n:" + strconv.FormatInt(int64(id), 10), true
	case int64:
		return "n:" + strconv.FormatInt(id, 10), true
	case uint32:
		return "n:" + strconv.FormatUint(uint64(id), 10), true
	case uint64:
		return "n:" + strconv.FormatUint(id, 10), true
	default:
		return "", false
	}
}

func numberKey(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return "n:" + strconv.FormatInt(int64(f), 10)
	}
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// IdentitySet is a set of identity keys.
type IdentitySet map[string]struct{}

// NewIdentitySet builds a set from raw identity values. Values that cannot
// serve as identities are ignored.
func NewIdentitySet(ids []any) IdentitySet {
	set := make(IdentitySet, len(ids))
	for _, id := range ids {
		if key, ok := IdentityKey(id); ok {
			set[key] = struct{}{}
		}
	}
	return set
}

// Has reports whether the key is in the set.
func (s IdentitySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add inserts a key.
func (s IdentitySet) Add(key string) {
	s[key] = struct{}{}
}
