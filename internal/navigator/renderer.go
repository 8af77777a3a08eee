package navigator

import (
	"github.com/slmtnm/s3nav/internal/model"
)

// Snapshot is an immutable copy of the navigator state handed to the
// renderer on every refresh.
type Snapshot struct {
	Path     model.Path
	Items    []model.Item
	Selected map[string]struct{}
	Sort     model.SortState
}

// IsSelected reports whether the item named name in this listing is selected.
func (s Snapshot) IsSelected(name string) bool {
	_, ok := s.Selected[s.Path.Qualify(name)]
	return ok
}

// DeleteRequest asks the renderer to confirm a deletion. Confirm may be
// called from any goroutine, exactly once.
type DeleteRequest struct {
	Keys        []string
	ObjectCount int
	TotalSize   int64
	Confirm     func(confirmed bool)
}

// Renderer presents navigator state.
type Renderer interface {
	OnRefresh(s Snapshot)
	OnConfirmDeleteRequest(req DeleteRequest)
	OnLogLine(text string)
}
