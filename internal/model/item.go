// Package model holds the hierarchical view of a flat object store: the
// current path, the items listed under it, the selection set and the sort
// order applied to the listing.
package model

import "time"

// Kind identifies what an Item represents.
type Kind int

const (
	KindContainer Kind = iota
	KindDirectory
	KindFile
	KindError
	KindInfo
)

// SizePending marks a container or directory whose aggregate size has not
// been computed yet.
const SizePending int64 = -1

// ParentName is the synthetic entry that navigates one level up.
const ParentName = ".."

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "BUCKET"
	case KindDirectory:
		return "DIR"
	case KindFile:
		return "FILE"
	case KindError:
		return "ERROR"
	case KindInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// Item is one row of the current listing.
type Item struct {
	Name       string
	Kind       Kind
	Size       int64
	ModifiedAt time.Time
}

// NewContainer returns a bucket entry with a pending size.
func NewContainer(name string, created time.Time) Item {
	return Item{Name: name, Kind: KindContainer, Size: SizePending, ModifiedAt: created}
}

// NewDirectory returns a directory entry with a pending size. Directories
// have no native modification time, so now is used.
func NewDirectory(name string, now time.Time) Item {
	return Item{Name: name, Kind: KindDirectory, Size: SizePending, ModifiedAt: now}
}

// NewFile returns a regular object entry.
func NewFile(name string, size int64, modified time.Time) Item {
	return Item{Name: name, Kind: KindFile, Size: size, ModifiedAt: modified}
}

// NewParent returns the ".." entry injected at the top of prefix listings.
func NewParent(now time.Time) Item {
	return Item{Name: ParentName, Kind: KindDirectory, Size: 0, ModifiedAt: now}
}

// NewError returns a banner that replaces a failed listing.
func NewError(message string) Item {
	return Item{Name: message, Kind: KindError}
}

// NewInfo returns a banner that replaces an empty listing.
func NewInfo(message string) Item {
	return Item{Name: message, Kind: KindInfo}
}

// IsMarker reports whether the item is an Error or Info banner.
func (i Item) IsMarker() bool {
	return i.Kind == KindError || i.Kind == KindInfo
}

// IsParent reports whether the item is the synthetic ".." entry.
func (i Item) IsParent() bool {
	return i.Kind == KindDirectory && i.Name == ParentName
}

// IsNavigable reports whether entering the item descends a level.
func (i Item) IsNavigable() bool {
	return i.Kind == KindContainer || i.Kind == KindDirectory
}

// NeedsSize reports whether the item still waits for a size computation.
func (i Item) NeedsSize() bool {
	return i.IsNavigable() && !i.IsParent() && i.Size == SizePending
}

// Selectable reports whether the item can be added to the selection set.
func (i Item) Selectable() bool {
	return !i.IsMarker() && !i.IsParent()
}

// Clone returns a copy of items that callers may keep without aliasing.
func Clone(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
