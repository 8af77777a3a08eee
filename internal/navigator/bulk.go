package navigator

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/slmtnm/s3nav/internal/model"
)

// maxFailureLines caps how many per-key delete failures are echoed to the
// renderer for one target.
const maxFailureLines = 5

// ComputeSize computes the recursive size of the named container or
// directory and updates it in place.
func (n *Navigator) ComputeSize(ctx context.Context, name string) {
	item, index, ok := n.find(name)
	if !ok || !item.IsNavigable() || item.IsParent() {
		return
	}
	n.computeAt(ctx, index)
}

// ComputeAllPending computes the size of every item whose size is still
// pending, one item per deferred task. Each step defers the next only when it
// finishes, so intents submitted meanwhile run between steps.
func (n *Navigator) ComputeAllPending(ctx context.Context) {
	var names []string
	for _, item := range n.items {
		if item.NeedsSize() {
			names = append(names, item.Name)
		}
	}
	if len(names) == 0 {
		n.renderer.OnLogLine("No pending sizes")
		return
	}
	n.renderer.OnLogLine(fmt.Sprintf("Computing sizes for %d items", len(names)))

	path := n.Path()
	n.sched.Defer(func() { n.sweepPending(ctx, path, names) })
}

// sweepPending sizes names[0] and chains the rest. The sweep stops once the
// listing has been navigated away from.
func (n *Navigator) sweepPending(ctx context.Context, path model.Path, names []string) {
	if !n.path.Equal(path) {
		return
	}
	n.computePending(ctx, names[0])
	if rest := names[1:]; len(rest) > 0 {
		n.sched.Defer(func() { n.sweepPending(ctx, path, rest) })
		return
	}
	n.renderer.OnLogLine("Size computation finished")
}

// computePending sizes one item of a sweep. The listing may have been
// refreshed or re-sorted since the sweep began, so the item is looked up again
// by name and skipped if it is gone or already has a size.
func (n *Navigator) computePending(ctx context.Context, name string) {
	item, index, ok := n.find(name)
	if !ok || !item.NeedsSize() {
		return
	}
	n.computeAt(ctx, index)
}

func (n *Navigator) computeAt(ctx context.Context, index int) {
	item := n.items[index]
	bucket, prefix := n.resolve(item)

	size, err := n.store.ComputeRecursiveSize(ctx, bucket, prefix)
	if err != nil {
		n.log.Warn("Size computation failed",
			zap.String("bucket", bucket), zap.String("prefix", prefix), zap.Error(err))
		n.items[index].Size = model.SizePending
		n.renderer.OnLogLine(fmt.Sprintf("Failed to compute size of %s: %v", item.Name, err))
		n.render()
		return
	}
	n.items[index].Size = size
	n.render()
}

// DeletionPlan is what a confirmed deletion will remove.
type DeletionPlan struct {
	Targets     []model.Target
	ObjectCount int
	TotalSize   int64
}

// RequestDelete plans deletion of the current selection and asks the
// renderer for confirmation. A confirmed request is executed on the loop.
func (n *Navigator) RequestDelete(ctx context.Context) {
	if n.selection.Len() == 0 {
		n.renderer.OnLogLine("Nothing selected")
		return
	}
	plan := n.PlanDeletion(ctx, n.selection.Targets())

	keys := make([]string, len(plan.Targets))
	for i, t := range plan.Targets {
		keys[i] = t.Key
	}
	n.renderer.OnConfirmDeleteRequest(DeleteRequest{
		Keys:        keys,
		ObjectCount: plan.ObjectCount,
		TotalSize:   plan.TotalSize,
		Confirm: func(confirmed bool) {
			n.sched.Defer(func() {
				if !confirmed {
					n.renderer.OnLogLine("Deletion cancelled")
					return
				}
				n.renderer.OnLogLine(fmt.Sprintf("Deleting %d objects", plan.ObjectCount))
				n.sched.Defer(func() {
					n.ExecuteDeletion(ctx, plan.Targets)
				})
			})
		},
	})
}

// PlanDeletion counts the objects and bytes under targets. Targets that
// cannot be enumerated are logged and left out of the totals.
func (n *Navigator) PlanDeletion(ctx context.Context, targets []model.Target) DeletionPlan {
	plan := DeletionPlan{Targets: targets}
	for _, t := range targets {
		if t.IsPrefix() {
			keys, size, err := n.store.CollectForDeletion(ctx, t.Bucket, t.Object)
			if err != nil {
				n.renderer.OnLogLine(fmt.Sprintf("Failed to enumerate %s: %v", t.Key, err))
				continue
			}
			plan.ObjectCount += len(keys)
			plan.TotalSize += size
			continue
		}

		size, found, err := n.store.GetObjectSize(ctx, t.Bucket, t.Object)
		switch {
		case err != nil:
			n.renderer.OnLogLine(fmt.Sprintf("Failed to get size of %s: %v", t.Key, err))
		case !found:
			n.renderer.OnLogLine(fmt.Sprintf("%s no longer exists", t.Key))
		default:
			plan.ObjectCount++
			plan.TotalSize += size
		}
	}
	n.log.Info("Deletion planned",
		zap.Int("targets", len(targets)),
		zap.Int("objects", plan.ObjectCount),
		zap.Int64("bytes", plan.TotalSize))
	return plan
}

// ExecuteDeletion deletes targets, logging per-key failures without
// stopping, then clears the selection and refreshes the listing.
func (n *Navigator) ExecuteDeletion(ctx context.Context, targets []model.Target) {
	var deleted, failed int
	for _, t := range targets {
		if ctx.Err() != nil {
			n.renderer.OnLogLine(fmt.Sprintf("Deletion aborted: %v", ctx.Err()))
			break
		}
		if !t.IsPrefix() {
			if err := n.store.DeleteSingle(ctx, t.Bucket, t.Object); err != nil {
				failed++
				n.log.Warn("Delete failed", zap.String("key", t.Key), zap.Error(err))
				n.renderer.OnLogLine(fmt.Sprintf("Failed to delete %s: %v", t.Key, err))
				continue
			}
			deleted++
			continue
		}

		res, err := n.store.DeletePrefix(ctx, t.Bucket, t.Object)
		deleted += res.Deleted
		failed += len(res.Failed)
		for i, f := range res.Failed {
			if i == maxFailureLines {
				n.renderer.OnLogLine(fmt.Sprintf("... and %d more failures under %s", len(res.Failed)-i, t.Key))
				break
			}
			n.renderer.OnLogLine(fmt.Sprintf("Failed to delete %s/%s: %v", t.Bucket, f.Key, f.Err))
		}
		if err != nil {
			n.log.Warn("Prefix delete incomplete", zap.String("key", t.Key), zap.Error(err))
			if len(res.Failed) == 0 {
				n.renderer.OnLogLine(fmt.Sprintf("Failed to delete %s: %v", t.Key, err))
				failed++
			}
		}
	}

	n.log.Info("Deletion finished", zap.Int("deleted", deleted), zap.Int("failed", failed))
	n.renderer.OnLogLine(fmt.Sprintf("Deleted %s objects, %d failures", humanize.Comma(int64(deleted)), failed))
	n.selection.Clear()
	n.Refresh(ctx)
}
