package model

import (
	"sort"
	"strings"
	"time"
)

// SortField is the key a listing is ordered by.
type SortField int

const (
	SortByName SortField = iota
	SortBySize
	SortByModified
)

var sortCycle = []SortField{SortByName, SortBySize, SortByModified}

func (f SortField) String() string {
	switch f {
	case SortByName:
		return "name"
	case SortBySize:
		return "size"
	case SortByModified:
		return "modified"
	default:
		return "unknown"
	}
}

// SortState is the active sort field and direction.
type SortState struct {
	Field   SortField
	Reverse bool
}

// Next advances to the following field. Wrapping past the last field returns
// to the first one and flips the direction.
func (s SortState) Next() SortState {
	idx := 0
	for i, f := range sortCycle {
		if f == s.Field {
			idx = i
			break
		}
	}
	if idx == len(sortCycle)-1 {
		return SortState{Field: sortCycle[0], Reverse: !s.Reverse}
	}
	return SortState{Field: sortCycle[idx+1], Reverse: s.Reverse}
}

func (s SortState) String() string {
	dir := "asc"
	if s.Reverse {
		dir = "desc"
	}
	return s.Field.String() + " " + dir
}

// Sort returns a new slice ordered by state. Error and Info banners stay in
// front in their original order, followed by the ".." entry; neither takes
// part in the comparison. The sort is stable so equal keys keep their
// previous relative order.
func Sort(items []Item, state SortState) []Item {
	out := make([]Item, 0, len(items))
	var rest []Item
	for _, it := range items {
		if it.IsMarker() {
			out = append(out, it)
		}
	}
	for _, it := range items {
		if it.IsParent() {
			out = append(out, it)
		}
	}
	for _, it := range items {
		if !it.IsMarker() && !it.IsParent() {
			rest = append(rest, it)
		}
	}

	less := lessFunc(state.Field)
	sort.SliceStable(rest, func(i, j int) bool {
		if state.Reverse {
			return less(rest[j], rest[i])
		}
		return less(rest[i], rest[j])
	})
	return append(out, rest...)
}

func lessFunc(field SortField) func(a, b Item) bool {
	switch field {
	case SortBySize:
		return func(a, b Item) bool { return a.Size < b.Size }
	case SortByModified:
		return func(a, b Item) bool { return normalizeTime(a.ModifiedAt).Before(normalizeTime(b.ModifiedAt)) }
	default:
		return func(a, b Item) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}
}

// normalizeTime puts every timestamp in UTC. The zero time stays the zero
// time, which orders before any real timestamp.
func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}
