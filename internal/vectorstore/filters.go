package vectorstore

import (
	qdrant "github.com/qdrant/go-client/qdrant"
)

// FilterSet accumulates payload conditions that every match must satisfy.
// The zero value is an empty set, which translates to no filter at all.
type FilterSet struct {
	conditions []*qdrant.Condition
}

// MatchKeyword adds an exact string match on key. Empty values are ignored.
func (f *FilterSet) MatchKeyword(key, value string) *FilterSet {
	if value != "" {
		f.conditions = append(f.conditions, qdrant.NewMatch(key, value))
	}
	return f
}

// MatchBool adds an exact boolean match on key.
func (f *FilterSet) MatchBool(key string, value bool) *FilterSet {
	f.conditions = append(f.conditions, qdrant.NewMatchBool(key, value))
	return f
}

// Range adds a numeric range on key. Nil bounds are open ends; if both are
// nil the condition is skipped.
func (f *FilterSet) Range(key string, gte, lte *float64) *FilterSet {
	if gte == nil && lte == nil {
		return f
	}
	f.conditions = append(f.conditions, qdrant.NewRange(key, &qdrant.Range{
		Gte: gte,
		Lte: lte,
	}))
	return f
}

// Empty reports whether no conditions have been added.
func (f *FilterSet) Empty() bool {
	return f == nil || len(f.conditions) == 0
}

// ToFilter builds the Qdrant filter, or nil for an empty set.
func (f *FilterSet) ToFilter() *qdrant.Filter {
	if f.Empty() {
		return nil
	}
	return &qdrant.Filter{Must: f.conditions}
}
