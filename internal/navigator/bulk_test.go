package navigator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slmtnm/s3nav/internal/model"
)

func TestDelete_MixedSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.Put("data", "dir/x", 1, fixedNow)
	f.mem.Put("data", "dir/y", 2, fixedNow)
	f.mem.Put("data", "dir/sub/z", 3, fixedNow)
	f.mem.Put("data", "single.txt", 10, fixedNow)
	f.mem.Put("data", "keep.txt", 4, fixedNow)
	f.mem.FailDelete("data", "single.txt", errors.New("AccessDenied"))

	f.nav.Start(ctx)
	f.nav.EnterChild(ctx, "data")
	f.nav.ToggleSelection(f.index(t, "dir"))
	f.nav.ToggleSelection(f.index(t, "single.txt"))

	f.nav.RequestDelete(ctx)
	require.Len(t, f.r.requests, 1)
	req := f.r.requests[0]
	assert.Equal(t, []string{"data/dir", "data/single.txt"}, req.Keys)
	assert.Equal(t, 4, req.ObjectCount)
	assert.Equal(t, int64(16), req.TotalSize)
	assert.Len(t, f.mem.Keys("data"), 5, "nothing deleted before confirmation")

	req.Confirm(true)
	f.sched.drain()

	assert.Equal(t, []string{"keep.txt", "single.txt"}, f.mem.Keys("data"))
	assert.Contains(t, f.r.logs, "Failed to delete data/single.txt: AccessDenied")
	assert.Equal(t, "Deleted 3 objects, 1 failures", f.r.logs[len(f.r.logs)-1])
	assert.Empty(t, f.nav.Selection())
	assert.Equal(t, []string{"keep.txt", "single.txt"}, f.r.names())
	assert.Empty(t, f.r.last().Selected)
}

func TestDelete_DirectoryDoesNotTouchSiblingsWithSharedPrefix(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.Put("data", "dir/x", 1, fixedNow)
	f.mem.Put("data", "dirt.txt", 1, fixedNow)

	f.nav.Start(ctx)
	f.nav.EnterChild(ctx, "data")
	f.nav.ToggleSelection(f.index(t, "dir"))
	f.nav.RequestDelete(ctx)
	require.Len(t, f.r.requests, 1)
	assert.Equal(t, 1, f.r.requests[0].ObjectCount)

	f.r.requests[0].Confirm(true)
	f.sched.drain()
	assert.Equal(t, []string{"dirt.txt"}, f.mem.Keys("data"))
}

func TestDelete_Cancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.Put("data", "a.txt", 1, fixedNow)

	f.nav.Start(ctx)
	f.nav.EnterChild(ctx, "data")
	f.nav.ToggleSelection(f.index(t, "a.txt"))
	f.nav.RequestDelete(ctx)
	require.Len(t, f.r.requests, 1)

	f.r.requests[0].Confirm(false)
	f.sched.drain()
	assert.Equal(t, []string{"a.txt"}, f.mem.Keys("data"))
	assert.Equal(t, "Deletion cancelled", f.r.logs[len(f.r.logs)-1])
	assert.Equal(t, []string{"data/a.txt"}, f.nav.Selection(), "cancel keeps the selection")
}

func TestDelete_NothingSelected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.Put("data", "a.txt", 1, fixedNow)
	f.nav.Start(ctx)

	f.nav.RequestDelete(ctx)
	assert.Empty(t, f.r.requests)
	assert.Equal(t, "Nothing selected", f.r.logs[len(f.r.logs)-1])
}

func TestDelete_WholeBucketContents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := range 2500 {
		f.mem.Put("big", fmt.Sprintf("k%05d", i), 1, fixedNow)
	}
	f.mem.AddBucket("other", fixedNow)

	f.nav.Start(ctx)
	f.nav.ToggleSelection(f.index(t, "big"))
	f.nav.RequestDelete(ctx)
	require.Len(t, f.r.requests, 1)
	assert.Equal(t, 2500, f.r.requests[0].ObjectCount)
	assert.Equal(t, int64(2500), f.r.requests[0].TotalSize)

	f.mem.ResetCalls()
	f.r.requests[0].Confirm(true)
	f.sched.drain()

	assert.Empty(t, f.mem.Keys("big"))
	var sizes []int
	for _, c := range f.mem.Calls("DeleteObjects") {
		sizes = append(sizes, len(c.Keys))
	}
	assert.Equal(t, []int{1000, 1000, 500}, sizes)
	assert.Equal(t, []string{"big", "other"}, f.r.names(), "bucket itself survives")
}

func TestPlanDeletion(t *testing.T) {
	ctx := context.Background()

	t.Run("vanished object is not counted", func(t *testing.T) {
		f := newFixture(t)
		f.mem.Put("data", "a.txt", 5, fixedNow)
		f.mem.Put("data", "b.txt", 7, fixedNow)
		f.nav.Start(ctx)

		plan := f.nav.PlanDeletion(ctx, []model.Target{
			model.TargetFor("data/a.txt", model.KindFile),
			model.TargetFor("data/gone.txt", model.KindFile),
		})
		assert.Equal(t, 1, plan.ObjectCount)
		assert.Equal(t, int64(5), plan.TotalSize)
		assert.Contains(t, f.r.logs, "data/gone.txt no longer exists")
	})

	t.Run("enumeration failure is logged and skipped", func(t *testing.T) {
		f := newFixture(t)
		f.mem.Put("data", "dir/a", 5, fixedNow)
		f.mem.Put("data", "other/b", 9, fixedNow)
		f.mem.FailList("data", "dir/", errors.New("timeout"))
		f.nav.Start(ctx)

		plan := f.nav.PlanDeletion(ctx, []model.Target{
			model.TargetFor("data/dir", model.KindDirectory),
			model.TargetFor("data/other", model.KindDirectory),
		})
		assert.Equal(t, 1, plan.ObjectCount)
		assert.Equal(t, int64(9), plan.TotalSize)
		require.NotEmpty(t, f.r.logs)
		assert.Contains(t, f.r.logs[0], "Failed to enumerate data/dir")
	})
}

func TestExecuteDeletion_AbortsOnCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.mem.Put("data", "a.txt", 1, fixedNow)
	f.nav.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.nav.ExecuteDeletion(ctx, []model.Target{model.TargetFor("data/a.txt", model.KindFile)})

	assert.Equal(t, []string{"a.txt"}, f.mem.Keys("data"))
	assert.Contains(t, f.r.logs[0], "Deletion aborted")
}
