package navigator

import (
	"context"

	"github.com/slmtnm/s3nav/internal/model"
)

// Dispatcher queues renderer intents on the loop so the navigator only ever
// runs on the loop goroutine.
type Dispatcher struct {
	ctx   context.Context
	loop  *Loop
	nav   *Navigator
	start model.Path
}

// NewDispatcher returns a dispatcher whose tasks run with ctx. Start opens
// start, or the container listing when start is empty.
func NewDispatcher(ctx context.Context, loop *Loop, nav *Navigator, start model.Path) *Dispatcher {
	return &Dispatcher{ctx: ctx, loop: loop, nav: nav, start: start}
}

// Start opens the start location.
func (d *Dispatcher) Start() {
	d.loop.Submit(func() { d.nav.StartAt(d.ctx, d.start) })
}

// EnterChild descends into the named item.
func (d *Dispatcher) EnterChild(name string) {
	d.loop.Submit(func() { d.nav.EnterChild(d.ctx, name) })
}

// ExitUp moves to the parent path.
func (d *Dispatcher) ExitUp() {
	d.loop.Submit(func() { d.nav.ExitUp(d.ctx) })
}

// ToggleSelection flips the selection of the named item. The name is
// resolved when the task runs, after any re-sort queued ahead of it.
func (d *Dispatcher) ToggleSelection(name string) {
	d.loop.Submit(func() { d.nav.ToggleSelectionByName(name) })
}

// RequestDelete asks for confirmation to delete the selection.
func (d *Dispatcher) RequestDelete() {
	d.loop.Submit(func() { d.nav.RequestDelete(d.ctx) })
}

// Refresh re-lists the current path.
func (d *Dispatcher) Refresh() {
	d.loop.Submit(func() { d.nav.Refresh(d.ctx) })
}

// CycleSort advances the sort order.
func (d *Dispatcher) CycleSort() {
	d.loop.Submit(func() { d.nav.CycleSort() })
}

// ComputeSize computes the size of the named item.
func (d *Dispatcher) ComputeSize(name string) {
	d.loop.Submit(func() { d.nav.ComputeSize(d.ctx, name) })
}

// ComputeAllPending logs the start of the sweep before any size is
// computed; the sweep itself runs as deferred tasks.
func (d *Dispatcher) ComputeAllPending() {
	d.loop.Submit(func() { d.nav.ComputeAllPending(d.ctx) })
}
