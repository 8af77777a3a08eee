package model

import "strings"

// Separator splits object keys into directory-like segments.
const Separator = "/"

// Path is the navigation stack. Segment 0 is the bucket, later segments are
// key prefixes. An empty Path is the bucket list.
type Path []string

// Empty reports whether the path is at the root listing.
func (p Path) Empty() bool {
	return len(p) == 0
}

// Container returns the bucket name, or "" at the root.
func (p Path) Container() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Prefix returns the remote prefix for the segments after the bucket, with a
// trailing separator when there is at least one such segment.
func (p Path) Prefix() string {
	if len(p) <= 1 {
		return ""
	}
	return strings.Join(p[1:], Separator) + Separator
}

// Push returns a new path with name appended.
func (p Path) Push(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Pop returns a new path without its last segment.
func (p Path) Pop() Path {
	if len(p) == 0 {
		return nil
	}
	out := make(Path, len(p)-1)
	copy(out, p[:len(p)-1])
	return out
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Qualify joins the path and an item name into a selection key.
func (p Path) Qualify(name string) string {
	return strings.Trim(strings.Join(p, Separator)+Separator+name, Separator)
}

// ParsePath splits a location such as "bucket/a/b" or "s3://bucket/a/"
// into a path.
func ParsePath(location string) Path {
	var p Path
	for _, seg := range strings.Split(strings.TrimPrefix(location, "s3://"), Separator) {
		if seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// SplitKey splits a qualified key into its bucket and the object key or
// prefix below it.
func SplitKey(key string) (bucket, rest string) {
	parts := strings.SplitN(key, Separator, 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
