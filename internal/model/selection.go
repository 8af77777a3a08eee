package model

import "strings"

// Target is a selected key resolved to the remote coordinates it deletes.
type Target struct {
	Key    string
	Bucket string
	// Object is the object key, or the prefix for buckets and directories.
	Object string
}

// IsPrefix reports whether the target addresses everything under a prefix
// rather than one object.
func (t Target) IsPrefix() bool {
	return t.Object == "" || strings.HasSuffix(t.Object, Separator)
}

// TargetFor resolves a selection key. Directory keys gain a trailing
// separator so they address their whole subtree.
func TargetFor(key string, kind Kind) Target {
	bucket, rest := SplitKey(key)
	if kind == KindDirectory && rest != "" && !strings.HasSuffix(rest, Separator) {
		rest += Separator
	}
	return Target{Key: key, Bucket: bucket, Object: rest}
}

// Selection is an insertion-ordered set of qualified keys. Keys survive
// listing refreshes until toggled off or cleared.
type Selection struct {
	order []string
	kinds map[string]Kind
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{kinds: make(map[string]Kind)}
}

// Toggle adds key if absent and removes it otherwise. It returns whether the
// key is selected afterwards.
func (s *Selection) Toggle(key string, kind Kind) bool {
	if _, ok := s.kinds[key]; ok {
		delete(s.kinds, key)
		for i, k := range s.order {
			if k == key {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return false
	}
	s.kinds[key] = kind
	s.order = append(s.order, key)
	return true
}

// Contains reports whether key is selected.
func (s *Selection) Contains(key string) bool {
	_, ok := s.kinds[key]
	return ok
}

// Len returns the number of selected keys.
func (s *Selection) Len() int {
	return len(s.order)
}

// Keys returns the selected keys in selection order.
func (s *Selection) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Targets resolves every selected key, in selection order.
func (s *Selection) Targets() []Target {
	out := make([]Target, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, TargetFor(key, s.kinds[key]))
	}
	return out
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.order = nil
	s.kinds = make(map[string]Kind)
}
