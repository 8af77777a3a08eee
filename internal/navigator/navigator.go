// Package navigator owns the browsing state: the current path, its listing,
// the selection and the sort order. Every method must run on the loop that
// was handed to New.
package navigator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/slmtnm/s3nav/internal/model"
	"github.com/slmtnm/s3nav/internal/storage"
)

// Storage is the remote collaborator used by the navigator.
type Storage interface {
	ListContainers(ctx context.Context) []model.Item
	ListItems(ctx context.Context, bucket, prefix string) []model.Item
	ComputeRecursiveSize(ctx context.Context, bucket, prefix string) (int64, error)
	CollectForDeletion(ctx context.Context, bucket, prefix string) ([]string, int64, error)
	GetObjectSize(ctx context.Context, bucket, key string) (int64, bool, error)
	DeleteSingle(ctx context.Context, bucket, key string) error
	DeletePrefix(ctx context.Context, bucket, prefix string) (storage.DeleteResult, error)
}

var _ Storage = (*storage.Client)(nil)

// Navigator is the browsing state machine.
type Navigator struct {
	store    Storage
	renderer Renderer
	sched    Scheduler
	log      *zap.Logger

	path      model.Path
	items     []model.Item
	selection *model.Selection
	sort      model.SortState
}

// New returns a navigator positioned nowhere. Call Start to load the root.
func New(store Storage, renderer Renderer, sched Scheduler, log *zap.Logger) *Navigator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Navigator{
		store:     store,
		renderer:  renderer,
		sched:     sched,
		log:       log,
		selection: model.NewSelection(),
	}
}

// Start loads the container listing.
func (n *Navigator) Start(ctx context.Context) {
	n.EnterRoot(ctx)
}

// StartAt opens path directly. An empty path is the container listing.
func (n *Navigator) StartAt(ctx context.Context, path model.Path) {
	n.path = append(model.Path(nil), path...)
	n.list(ctx)
}

// Path returns a copy of the current path.
func (n *Navigator) Path() model.Path {
	return append(model.Path(nil), n.path...)
}

// Items returns a copy of the current listing in display order.
func (n *Navigator) Items() []model.Item {
	return model.Clone(n.items)
}

// Selection returns the selected keys in insertion order.
func (n *Navigator) Selection() []string {
	return n.selection.Keys()
}

// SortState returns the active sort.
func (n *Navigator) SortState() model.SortState {
	return n.sort
}

// EnterRoot clears the path and lists containers.
func (n *Navigator) EnterRoot(ctx context.Context) {
	n.path = nil
	n.install(n.store.ListContainers(ctx))
}

// EnterChild descends into the named container or directory. The parent
// entry ascends instead and any other item is ignored.
func (n *Navigator) EnterChild(ctx context.Context, name string) {
	item, _, ok := n.find(name)
	if !ok {
		return
	}
	if item.IsParent() {
		n.ExitUp(ctx)
		return
	}
	if !item.IsNavigable() {
		return
	}
	n.path = n.path.Push(name)
	n.log.Debug("Entering", zap.Stringer("path", n.path))
	n.list(ctx)
}

// ExitUp moves to the parent path. At the root it does nothing.
func (n *Navigator) ExitUp(ctx context.Context) {
	if n.path.Empty() {
		return
	}
	n.path = n.path.Pop()
	n.log.Debug("Leaving", zap.Stringer("path", n.path))
	n.list(ctx)
}

// Refresh re-lists the current path. Computed sizes are discarded.
func (n *Navigator) Refresh(ctx context.Context) {
	n.list(ctx)
}

// ToggleSelection flips the selection of the item at index. The parent entry
// and banners cannot be selected.
func (n *Navigator) ToggleSelection(index int) {
	if index < 0 || index >= len(n.items) {
		return
	}
	n.toggle(n.items[index])
}

// ToggleSelectionByName flips the selection of the named item in the current
// listing. Unknown names are ignored.
func (n *Navigator) ToggleSelectionByName(name string) {
	item, _, ok := n.find(name)
	if !ok {
		return
	}
	n.toggle(item)
}

func (n *Navigator) toggle(item model.Item) {
	if !item.Selectable() {
		return
	}
	n.selection.Toggle(n.path.Qualify(item.Name), item.Kind)
	n.render()
}

// CycleSort advances to the next sort order and re-sorts the listing.
func (n *Navigator) CycleSort() {
	n.sort = n.sort.Next()
	n.items = model.Sort(n.items, n.sort)
	n.renderer.OnLogLine(fmt.Sprintf("Sorted by %s", n.sort))
	n.render()
}

func (n *Navigator) list(ctx context.Context) {
	if n.path.Empty() {
		n.EnterRoot(ctx)
		return
	}
	n.install(n.store.ListItems(ctx, n.path.Container(), n.path.Prefix()))
}

func (n *Navigator) install(items []model.Item) {
	n.items = model.Sort(items, n.sort)
	n.render()
}

func (n *Navigator) render() {
	selected := make(map[string]struct{}, n.selection.Len())
	for _, k := range n.selection.Keys() {
		selected[k] = struct{}{}
	}
	n.renderer.OnRefresh(Snapshot{
		Path:     n.Path(),
		Items:    n.Items(),
		Selected: selected,
		Sort:     n.sort,
	})
}

func (n *Navigator) find(name string) (model.Item, int, bool) {
	for i, item := range n.items {
		if item.Name == name {
			return item, i, true
		}
	}
	return model.Item{}, -1, false
}

// resolve maps a navigable item in the current listing to the bucket and
// prefix that hold its contents.
func (n *Navigator) resolve(item model.Item) (bucket, prefix string) {
	if item.Kind == model.KindContainer {
		return item.Name, ""
	}
	return n.path.Container(), n.path.Prefix() + item.Name + model.Separator
}
