// Package ui is the terminal renderer. It paints navigator snapshots and
// turns key presses into navigator intents.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/slmtnm/s3nav/internal/model"
	"github.com/slmtnm/s3nav/internal/navigator"
)

const (
	logHeight      = 5
	maxLogLines    = 500
	maxConfirmKeys = 10
	// rows used by everything except the table
	chromeHeight = logHeight + 7
)

// Actions are the intents the renderer raises. Implementations must not
// block; navigator.Dispatcher queues them on the navigator loop.
type Actions interface {
	Start()
	EnterChild(name string)
	ExitUp()
	ToggleSelection(name string)
	RequestDelete()
	Refresh()
	CycleSort()
	ComputeSize(name string)
	ComputeAllPending()
}

// Header describes the session shown in the title bar.
type Header struct {
	Profile     string
	Region      string
	AccessKeyID string
}

func (h Header) String() string {
	profile := h.Profile
	if profile == "" {
		profile = "default"
	}
	return fmt.Sprintf("s3nav - Profile: %s (Region: %s, KeyID: %s)", profile, h.Region, maskKeyID(h.AccessKeyID))
}

// Model represents the application state
type Model struct {
	actions Actions
	header  Header
	keys    KeyMap

	snapshot navigator.Snapshot
	loaded   bool
	confirm  *navigator.DeleteRequest
	busy     bool
	logLines []string

	table   table.Model
	log     viewport.Model
	help    help.Model
	spinner spinner.Model

	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(actions Actions, header Header) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithHeight(10),
		table.WithWidth(80),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = tableHeaderStyle
	styles.Selected = tableSelectedStyle
	t.SetStyles(styles)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		actions: actions,
		header:  header,
		keys:    DefaultKeyMap(),
		table:   t,
		log:     viewport.New(80, logHeight),
		help:    help.New(),
		spinner: s,
	}
}

func columns(width int) []table.Column {
	name := max(width-4-10-16-8, 20)
	return []table.Column{
		{Title: "", Width: 2},
		{Title: "Name", Width: name},
		{Title: "Size", Width: 10},
		{Title: "Last Modified", Width: 16},
	}
}

// Init asks the navigator for the root listing
func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		m.actions.Start()
		return nil
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		m.log.Width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		return m.updateBrowser(msg)

	case refreshMsg:
		m.install(msg.snapshot)
		return m, nil

	case confirmMsg:
		req := msg.req
		m.confirm = &req
		return m, nil

	case logMsg:
		m.appendLog(msg.text)
		return m, nil

	case busyMsg:
		m.busy = msg.busy
		if m.busy {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// updateBrowser handles keys while no dialog is open
func (m Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Open):
		if item, ok := m.current(); ok {
			m.actions.EnterChild(item.Name)
		}

	case key.Matches(msg, m.keys.Back):
		m.actions.ExitUp()

	case key.Matches(msg, m.keys.Select):
		if item, ok := m.current(); ok {
			m.actions.ToggleSelection(item.Name)
		}

	case key.Matches(msg, m.keys.Delete):
		m.actions.RequestDelete()

	case key.Matches(msg, m.keys.Refresh):
		m.actions.Refresh()

	case key.Matches(msg, m.keys.Sort):
		m.actions.CycleSort()

	case key.Matches(msg, m.keys.Size):
		if item, ok := m.current(); ok {
			m.actions.ComputeSize(item.Name)
		}

	case key.Matches(msg, m.keys.SizeAll):
		m.actions.ComputeAllPending()

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateConfirm handles keys while the delete dialog is open
func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirm.Confirm(true)
		m.confirm = nil
	case key.Matches(msg, m.keys.Cancel):
		m.confirm.Confirm(false)
		m.confirm = nil
	case msg.Type == tea.KeyCtrlC:
		m.confirm.Confirm(false)
		m.confirm = nil
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) current() (model.Item, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snapshot.Items) {
		return model.Item{}, false
	}
	return m.snapshot.Items[i], true
}

// install paints a snapshot. The cursor goes back to the top when the path
// changed and stays put, clamped, otherwise.
func (m *Model) install(s navigator.Snapshot) {
	cursor := m.table.Cursor()
	if !m.loaded || !s.Path.Equal(m.snapshot.Path) {
		cursor = 0
	}
	m.snapshot = s
	m.loaded = true

	rows := make([]table.Row, len(s.Items))
	for i, it := range s.Items {
		rows[i] = row(s, it)
	}
	m.table.SetRows(rows)
	m.table.SetCursor(min(cursor, max(len(rows)-1, 0)))
}

func row(s navigator.Snapshot, it model.Item) table.Row {
	name := it.Name
	switch it.Kind {
	case model.KindError, model.KindInfo:
		return table.Row{kindIcon(it.Kind), name, "", ""}
	case model.KindDirectory, model.KindContainer:
		if !it.IsParent() {
			name += model.Separator
		}
	}
	marker := "  "
	if it.Selectable() && s.IsSelected(it.Name) {
		marker = "* "
	}
	return table.Row{kindIcon(it.Kind), marker + name, formatSize(it.Size), formatDate(it.ModifiedAt)}
}

func (m *Model) appendLog(text string) {
	line := time.Now().Format("15:04:05") + " " + text
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
	m.log.SetContent(strings.Join(m.logLines, "\n"))
	m.log.GotoBottom()
}

// View renders the browser
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.header.String()))
	s.WriteString("\n")
	s.WriteString(pathStyle.Render(displayPath(m.snapshot.Path)))
	s.WriteString("\n")

	switch {
	case m.confirm != nil:
		s.WriteString(m.viewConfirm())
	case !m.loaded:
		s.WriteString("Loading...")
	case len(m.snapshot.Items) == 1 && m.snapshot.Items[0].Kind == model.KindError:
		s.WriteString(errorStyle.Render(m.snapshot.Items[0].Name))
	case len(m.snapshot.Items) == 1 && m.snapshot.Items[0].Kind == model.KindInfo:
		s.WriteString(infoStyle.Render(m.snapshot.Items[0].Name))
	default:
		s.WriteString(m.table.View())
	}
	s.WriteString("\n")

	s.WriteString(logStyle.Render(m.log.View()))
	s.WriteString("\n")
	s.WriteString(m.viewStatus())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m Model) viewStatus() string {
	var parts []string
	if m.busy {
		parts = append(parts, m.spinner.View()+" Working...")
	}
	parts = append(parts, "Sort: "+m.snapshot.Sort.String())
	if n := len(m.snapshot.Selected); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	return statusStyle.Render(strings.Join(parts, " • "))
}

func (m Model) viewConfirm() string {
	req := m.confirm
	var s strings.Builder

	fmt.Fprintf(&s, "Delete %d selected item(s)?\n\n", len(req.Keys))
	for i, k := range req.Keys {
		if i == maxConfirmKeys {
			fmt.Fprintf(&s, "  ... and %d more\n", len(req.Keys)-i)
			break
		}
		s.WriteString("  " + directoryStyle.Render(k) + "\n")
	}
	fmt.Fprintf(&s, "\n%s objects, %s total\n\n",
		humanize.Comma(int64(req.ObjectCount)), humanize.IBytes(uint64(max(req.TotalSize, 0))))
	s.WriteString(helpStyle.Render("y: delete • n/esc: cancel"))

	box := modalStyle.Render(s.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, max(m.height-chromeHeight, lipgloss.Height(box)), lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
