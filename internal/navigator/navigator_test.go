package navigator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slmtnm/s3nav/internal/model"
	"github.com/slmtnm/s3nav/internal/storage"
	"github.com/slmtnm/s3nav/internal/storage/storagetest"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingRenderer struct {
	snapshots []Snapshot
	logs      []string
	requests  []DeleteRequest
}

func (r *recordingRenderer) OnRefresh(s Snapshot) { r.snapshots = append(r.snapshots, s) }
func (r *recordingRenderer) OnConfirmDeleteRequest(req DeleteRequest) { r.requests = append(r.requests, req) }
func (r *recordingRenderer) OnLogLine(text string) { r.logs = append(r.logs, text) }

func (r *recordingRenderer) last() Snapshot {
	if len(r.snapshots) == 0 {
		return Snapshot{}
	}
	return r.snapshots[len(r.snapshots)-1]
}

func (r *recordingRenderer) names() []string {
	var out []string
	for _, it := range r.last().Items {
		out = append(out, it.Name)
	}
	return out
}

// manualScheduler queues deferred tasks until drained by the test.
type manualScheduler struct {
	tasks []func()
}

func (s *manualScheduler) Defer(task func()) { s.tasks = append(s.tasks, task) }

func (s *manualScheduler) drain() {
	for len(s.tasks) > 0 {
		task := s.tasks[0]
		s.tasks = s.tasks[1:]
		task()
	}
}

type fixture struct {
	mem   *storagetest.Memory
	nav   *Navigator
	r     *recordingRenderer
	sched *manualScheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storagetest.NewMemory()
	client := storage.NewClient(mem, storage.Options{Now: func() time.Time { return fixedNow }})
	r := &recordingRenderer{}
	sched := &manualScheduler{}
	return &fixture{mem: mem, nav: New(client, r, sched, nil), r: r, sched: sched}
}

func (f *fixture) index(t *testing.T, name string) int {
	t.Helper()
	for i, it := range f.nav.Items() {
		if it.Name == name {
			return i
		}
	}
	t.Fatalf("item %q not in listing", name)
	return -1
}

func (f *fixture) item(t *testing.T, name string) model.Item {
	t.Helper()
	return f.nav.Items()[f.index(t, name)]
}

func TestNavigation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.Put("photos", "2024/jan.jpg", 100, fixedNow)
	f.mem.Put("photos", "a.jpg", 50, fixedNow)
	f.mem.AddBucket("logs", fixedNow)

	f.nav.Start(ctx)
	assert.Empty(t, f.nav.Path())
	assert.Equal(t, []string{"logs", "photos"}, f.r.names())

	f.nav.EnterChild(ctx, "photos")
	assert.Equal(t, model.Path{"photos"}, f.nav.Path())
	assert.Equal(t, []string{"2024", "a.jpg"}, f.r.names())
	assert.Equal(t, model.KindDirectory, f.item(t, "2024").Kind)
	assert.Equal(t, model.SizePending, f.item(t, "2024").Size)
	assert.Equal(t, int64(50), f.item(t, "a.jpg").Size)

	f.nav.EnterChild(ctx, "2024")
	assert.Equal(t, model.Path{"photos", "2024"}, f.nav.Path())
	assert.Equal(t, []string{"..", "jan.jpg"}, f.r.names())

	f.nav.EnterChild(ctx, "..")
	assert.Equal(t, model.Path{"photos"}, f.nav.Path())

	f.nav.ExitUp(ctx)
	assert.Empty(t, f.nav.Path())
	assert.Equal(t, []string{"logs", "photos"}, f.r.names())
}

func TestNavigation_NoOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.Put("photos", "a.jpg", 50, fixedNow)

	f.nav.Start(ctx)
	rendered := len(f.r.snapshots)
	f.nav.ExitUp(ctx)
	assert.Len(t, f.r.snapshots, rendered, "exit at root must not re-render")

	f.nav.EnterChild(ctx, "photos")
	f.nav.EnterChild(ctx, "a.jpg")
	assert.Equal(t, model.Path{"photos"}, f.nav.Path())

	f.nav.EnterChild(ctx, "missing")
	assert.Equal(t, model.Path{"photos"}, f.nav.Path())
}

func TestNavigation_ErrorListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.AddBucket("secret", fixedNow)
	f.mem.FailList("secret", "", &storage.Error{Op: "List", Backend: "memory", Bucket: "secret", Kind: storage.ErrAccessDenied})

	f.nav.Start(ctx)
	f.nav.EnterChild(ctx, "secret")

	items := f.r.last().Items
	require.Len(t, items, 1)
	assert.Equal(t, model.KindError, items[0].Kind)
	assert.Contains(t, items[0].Name, "Access denied")

	f.nav.ToggleSelection(0)
	assert.Empty(t, f.nav.Selection())
}

func TestToggleSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.Put("photos", "2024/jan.jpg", 100, fixedNow)
	f.mem.Put("photos", "2024/feb.jpg", 100, fixedNow)

	f.nav.Start(ctx)
	f.nav.EnterChild(ctx, "photos")
	f.nav.EnterChild(ctx, "2024")

	f.nav.ToggleSelection(f.index(t, ".."))
	assert.Empty(t, f.nav.Selection())

	f.nav.ToggleSelection(f.index(t, "jan.jpg"))
	assert.Equal(t, []string{"photos/2024/jan.jpg"}, f.nav.Selection())
	assert.True(t, f.r.last().IsSelected("jan.jpg"))
	assert.False(t, f.r.last().IsSelected("feb.jpg"))

	f.nav.ToggleSelection(99)
	f.nav.ToggleSelection(-1)
	assert.Len(t, f.nav.Selection(), 1)

	f.nav.Refresh(ctx)
	assert.True(t, f.r.last().IsSelected("jan.jpg"), "selection survives refresh")

	f.nav.ExitUp(ctx)
	f.nav.ToggleSelection(f.index(t, "2024"))
	assert.Equal(t, []string{"photos/2024/jan.jpg", "photos/2024"}, f.nav.Selection())

	f.nav.ToggleSelection(f.index(t, "2024"))
	assert.Equal(t, []string{"photos/2024/jan.jpg"}, f.nav.Selection())
}

func TestCycleSort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.Put("b", "big", 300, fixedNow.Add(-time.Hour))
	f.mem.Put("b", "alpha", 100, fixedNow)
	f.mem.Put("b", "mid", 200, fixedNow.Add(-2*time.Hour))

	f.nav.Start(ctx)
	f.nav.EnterChild(ctx, "b")
	assert.Equal(t, []string{"alpha", "big", "mid"}, f.r.names())

	f.nav.CycleSort()
	assert.Equal(t, model.SortState{Field: model.SortBySize}, f.nav.SortState())
	assert.Equal(t, []string{"alpha", "mid", "big"}, f.r.names())

	f.nav.CycleSort()
	assert.Equal(t, []string{"mid", "big", "alpha"}, f.r.names())

	f.nav.CycleSort()
	assert.Equal(t, model.SortState{Field: model.SortByName, Reverse: true}, f.nav.SortState())
	assert.Equal(t, []string{"mid", "big", "alpha"}, f.r.names())
	assert.Equal(t, "Sorted by name desc", f.r.logs[len(f.r.logs)-1])

	f.nav.Refresh(ctx)
	assert.Equal(t, []string{"mid", "big", "alpha"}, f.r.names(), "sort order survives refresh")
}

func TestComputeSize(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket with no keys has size zero", func(t *testing.T) {
		f := newFixture(t)
		f.mem.AddBucket("logs", fixedNow)
		f.nav.Start(ctx)

		f.nav.ComputeSize(ctx, "logs")
		assert.Equal(t, int64(0), f.item(t, "logs").Size)
		assert.Equal(t, int64(0), f.r.last().Items[0].Size)
	})

	t.Run("directory sums its subtree", func(t *testing.T) {
		f := newFixture(t)
		f.mem.Put("photos", "2024/jan.jpg", 100, fixedNow)
		f.mem.Put("photos", "2024/deep/feb.jpg", 25, fixedNow)
		f.mem.Put("photos", "2024x.jpg", 7, fixedNow)
		f.nav.Start(ctx)
		f.nav.EnterChild(ctx, "photos")

		f.nav.ComputeSize(ctx, "2024")
		assert.Equal(t, int64(125), f.item(t, "2024").Size)
	})

	t.Run("files and the parent entry are ignored", func(t *testing.T) {
		f := newFixture(t)
		f.mem.Put("photos", "2024/jan.jpg", 100, fixedNow)
		f.nav.Start(ctx)
		f.nav.EnterChild(ctx, "photos")
		f.nav.EnterChild(ctx, "2024")
		f.mem.ResetCalls()

		f.nav.ComputeSize(ctx, "..")
		f.nav.ComputeSize(ctx, "jan.jpg")
		assert.Empty(t, f.mem.Calls("List"))
		assert.Equal(t, int64(0), f.item(t, "..").Size)
	})

	t.Run("failure leaves size pending and logs", func(t *testing.T) {
		f := newFixture(t)
		f.mem.Put("photos", "2024/jan.jpg", 100, fixedNow)
		f.nav.Start(ctx)
		f.nav.EnterChild(ctx, "photos")
		f.mem.FailList("photos", "2024/", errors.New("connection reset"))

		f.nav.ComputeSize(ctx, "2024")
		assert.Equal(t, model.SizePending, f.item(t, "2024").Size)
		require.NotEmpty(t, f.r.logs)
		assert.Contains(t, f.r.logs[len(f.r.logs)-1], "Failed to compute size of 2024")
	})
}

func TestComputeAllPending(t *testing.T) {
	ctx := context.Background()

	seed := func(f *fixture) {
		f.mem.Put("data", "a/1", 10, fixedNow)
		f.mem.Put("data", "b/1", 20, fixedNow)
		f.mem.Put("data", "b/2", 20, fixedNow)
		f.mem.Put("data", "c/1", 30, fixedNow)
		f.mem.Put("data", "file", 5, fixedNow)
	}

	t.Run("steps are chained one deferred task at a time", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		f.nav.Start(ctx)
		f.nav.EnterChild(ctx, "data")

		f.nav.ComputeAllPending(ctx)
		assert.Len(t, f.sched.tasks, 1)
		assert.Equal(t, model.SizePending, f.item(t, "a").Size, "nothing computed before the loop runs")

		f.sched.tasks[0]()
		f.sched.tasks = f.sched.tasks[1:]
		assert.Equal(t, int64(10), f.item(t, "a").Size)
		assert.Equal(t, model.SizePending, f.item(t, "b").Size)
		assert.Len(t, f.sched.tasks, 1)

		f.sched.drain()
		assert.Equal(t, int64(10), f.item(t, "a").Size)
		assert.Equal(t, int64(40), f.item(t, "b").Size)
		assert.Equal(t, int64(30), f.item(t, "c").Size)
		assert.Equal(t, "Size computation finished", f.r.logs[len(f.r.logs)-1])
	})

	t.Run("re-sorting between steps still fills every size", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		f.nav.Start(ctx)
		f.nav.EnterChild(ctx, "data")
		f.nav.ComputeAllPending(ctx)

		f.sched.tasks[0]()
		f.sched.tasks = f.sched.tasks[1:]
		f.nav.CycleSort()
		f.nav.CycleSort()
		f.sched.drain()

		for _, name := range []string{"a", "b", "c"} {
			assert.NotEqual(t, model.SizePending, f.item(t, name).Size, name)
		}
	})

	t.Run("navigating away skips remaining steps", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		f.nav.Start(ctx)
		f.nav.EnterChild(ctx, "data")
		f.nav.ComputeAllPending(ctx)

		f.nav.ExitUp(ctx)
		f.mem.ResetCalls()
		f.sched.drain()
		assert.Empty(t, f.mem.Calls("List"))
		assert.Len(t, f.r.last().Items, 1)
	})

	t.Run("items sized in between are not recomputed", func(t *testing.T) {
		f := newFixture(t)
		seed(f)
		f.nav.Start(ctx)
		f.nav.EnterChild(ctx, "data")
		f.nav.ComputeAllPending(ctx)
		f.nav.ComputeSize(ctx, "b")

		f.mem.ResetCalls()
		f.sched.drain()
		for _, c := range f.mem.Calls("List") {
			assert.NotEqual(t, "b/", c.Prefix)
		}
	})

	t.Run("nothing pending", func(t *testing.T) {
		f := newFixture(t)
		f.mem.Put("data", "file", 5, fixedNow)
		f.nav.Start(ctx)
		f.nav.EnterChild(ctx, "data")

		f.nav.ComputeAllPending(ctx)
		assert.Empty(t, f.sched.tasks)
		assert.Equal(t, "No pending sizes", f.r.logs[len(f.r.logs)-1])
	})
}

func TestStartAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mem.Put("photos", "2024/jan.jpg", 100, fixedNow)

	f.nav.StartAt(ctx, model.Path{"photos", "2024"})
	assert.Equal(t, model.Path{"photos", "2024"}, f.nav.Path())
	assert.Equal(t, []string{"..", "jan.jpg"}, f.r.names())

	f.nav.StartAt(ctx, nil)
	assert.Empty(t, f.nav.Path())
	assert.Equal(t, []string{"photos"}, f.r.names())
}
