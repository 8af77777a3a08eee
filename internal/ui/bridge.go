package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/slmtnm/s3nav/internal/navigator"
)

// Messages delivered from the navigator loop to the program.
type (
	refreshMsg struct{ snapshot navigator.Snapshot }
	confirmMsg struct{ req navigator.DeleteRequest }
	logMsg     struct{ text string }
	busyMsg    struct{ busy bool }
)

// Bridge forwards navigator callbacks into a running program. Every method
// is safe to call from the navigator loop goroutine.
type Bridge struct {
	send func(tea.Msg)
}

var _ navigator.Renderer = (*Bridge)(nil)

// NewBridge returns a bridge that delivers messages with send, usually
// (*tea.Program).Send.
func NewBridge(send func(tea.Msg)) *Bridge {
	return &Bridge{send: send}
}

// OnRefresh delivers a new navigator snapshot.
func (b *Bridge) OnRefresh(s navigator.Snapshot) {
	b.send(refreshMsg{snapshot: s})
}

// OnConfirmDeleteRequest opens the delete confirmation dialog.
func (b *Bridge) OnConfirmDeleteRequest(req navigator.DeleteRequest) {
	b.send(confirmMsg{req: req})
}

// OnLogLine appends text to the log pane.
func (b *Bridge) OnLogLine(text string) {
	b.send(logMsg{text: text})
}

// OnBusy reports whether the navigator loop is working.
func (b *Bridge) OnBusy(busy bool) {
	b.send(busyMsg{busy: busy})
}
