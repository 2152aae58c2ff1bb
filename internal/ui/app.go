package ui

import (
	"fmt"
	"strings"

	"github.com/abelbrown/animalbase/internal/arbiter"
	"github.com/abelbrown/animalbase/internal/controller"
	"github.com/abelbrown/animalbase/internal/entity"
	"github.com/abelbrown/animalbase/internal/projection"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// App is the root Bubble Tea model.
// All mutation goes through the controller; App only keeps the last view
// it was handed and the cursor into it.
type App struct {
	ctrl        *controller.Controller
	loadRecords func() tea.Cmd

	view     projection.View
	cursor   int
	conflict *arbiter.Conflict
	err      error
	notice   string
	width    int
	height   int
	ready    bool
	loading  bool

	help    help.Model
	spinner spinner.Model
}

// NewApp creates a new App over ctrl.
// loadRecords: returns a Cmd that fetches records and replies with RecordsLoaded
func NewApp(ctrl *controller.Controller, loadRecords func() tea.Cmd) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StatusBarKey

	return App{
		ctrl:        ctrl,
		loadRecords: loadRecords,
		view:        ctrl.Rebuild(),
		loading:     loadRecords != nil,
		help:        help.New(),
		spinner:     sp,
	}
}

// Init starts loading records.
func (a App) Init() tea.Cmd {
	if a.loadRecords == nil {
		return nil
	}
	return tea.Batch(a.loadRecords(), a.spinner.Tick)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.conflict != nil {
			return a.handleConflictKey(msg)
		}
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case RecordsLoaded:
		a.loading = false
		a.notice = ""
		if msg.Err != nil {
			a.ctrl.LoadFailed(msg.Err)
			a.err = msg.Err
			return a, nil
		}
		summary, err := a.ctrl.Load(msg.Records)
		if err != nil {
			a.err = err
			return a, nil
		}
		a.err = nil
		a.conflict = nil
		if summary.Skipped > 0 {
			a.notice = fmt.Sprintf("skipped %d malformed record(s)", summary.Skipped)
		}
		a.cursor = 0
		a.setView(a.ctrl.Rebuild())
		return a, nil
	}

	return a, nil
}

// handleKeyMsg processes keyboard input while no conflict is pending.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear any existing error on key press
	a.err = nil

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Down):
		if a.cursor < len(a.view.Entities)-1 {
			a.cursor++
		}

	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, keys.Top):
		a.cursor = 0

	case key.Matches(msg, keys.Bottom):
		if len(a.view.Entities) > 0 {
			a.cursor = len(a.view.Entities) - 1
		}

	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll

	case key.Matches(msg, keys.Star):
		if e, ok := a.selected(); ok {
			v, err := a.ctrl.ToggleStar(e.ID)
			if err != nil {
				a.err = err
				break
			}
			a.setView(v)
		}

	case key.Matches(msg, keys.Winner):
		if e, ok := a.selected(); ok {
			upd, err := a.ctrl.ToggleWinner(e.ID)
			if err != nil {
				a.err = err
				break
			}
			if upd.Conflict != nil {
				a.conflict = upd.Conflict
				break
			}
			a.setView(upd.View)
		}

	case key.Matches(msg, keys.Filter):
		a.setView(a.ctrl.ApplyFilter(a.nextFilter()))

	case key.Matches(msg, keys.All):
		a.setView(a.ctrl.ApplyFilter(projection.FilterAll))

	case key.Matches(msg, keys.SortName):
		a.setView(a.ctrl.ApplySort(projection.FieldName))

	case key.Matches(msg, keys.SortDesc):
		a.setView(a.ctrl.ApplySort(projection.FieldDescription))

	case key.Matches(msg, keys.SortType):
		a.setView(a.ctrl.ApplySort(projection.FieldCategory))

	case key.Matches(msg, keys.SortAge):
		a.setView(a.ctrl.ApplySort(projection.FieldAge))
	}

	return a, nil
}

// handleConflictKey processes keyboard input while the arbiter awaits a
// decision. Everything except the prompt keys and quit is ignored.
func (a App) handleConflictKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) && msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	var (
		v       projection.View
		err     error
		handled bool
	)

	switch {
	case key.Matches(msg, keys.Cancel):
		v, err = a.ctrl.CancelConflict()
		handled = true

	case a.conflict.State == arbiter.AwaitingCategoryConflict && key.Matches(msg, keys.Accept):
		v, err = a.ctrl.ResolveCategoryConflict(true)
		handled = true

	case a.conflict.State == arbiter.AwaitingCategoryConflict && key.Matches(msg, keys.Decline):
		v, err = a.ctrl.ResolveCategoryConflict(false)
		handled = true

	case a.conflict.State == arbiter.AwaitingCapacityConflict && key.Matches(msg, keys.DemoteOne, keys.DemoteTwo):
		idx := 0
		if key.Matches(msg, keys.DemoteTwo) {
			idx = 1
		}
		if idx >= len(a.conflict.Incumbents) {
			return a, nil
		}
		v, err = a.ctrl.ResolveCapacityConflict(a.conflict.Incumbents[idx].ID)
		handled = true
	}

	if !handled {
		return a, nil
	}
	if err != nil {
		a.err = err
		return a, nil
	}
	a.conflict = nil
	a.err = nil
	a.setView(v)
	return a, nil
}

// selected returns the entity under the cursor.
func (a App) selected() (entity.Entity, bool) {
	if a.cursor < 0 || a.cursor >= len(a.view.Entities) {
		return entity.Entity{}, false
	}
	return a.view.Entities[a.cursor], true
}

// setView installs v and keeps the cursor on the same entity when it is
// still visible.
func (a *App) setView(v projection.View) {
	prev, had := a.selected()
	a.view = v

	if had {
		for i, e := range v.Entities {
			if e.ID == prev.ID {
				a.cursor = i
				return
			}
		}
	}
	if a.cursor >= len(v.Entities) {
		a.cursor = len(v.Entities) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// nextFilter returns the filter after the current one, cycling through
// "all" and then every category.
func (a App) nextFilter() string {
	options := append([]string{projection.FilterAll}, a.ctrl.Categories()...)
	current := a.view.Settings.FilterBy
	for i, opt := range options {
		if opt == current {
			return options[(i+1)%len(options)]
		}
	}
	return projection.FilterAll
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := a.renderHeader()

	var prompt string
	if a.conflict != nil {
		prompt = renderConflict(*a.conflict, a.width)
	}

	var bar string
	switch {
	case a.err != nil:
		bar = ErrorStyle.Width(a.width).Render("Error: " + a.err.Error())
	case a.notice != "":
		bar = NoticeStyle.Width(a.width).Render(a.notice)
	}

	statusBar := RenderStatusBar(a.cursor, len(a.view.Entities), a.view.Total, a.width, a.loading, a.spinner.View())
	helpView := a.help.View(keys)

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(statusBar) - lipgloss.Height(helpView)
	if prompt != "" {
		contentHeight -= lipgloss.Height(prompt)
	}
	if bar != "" {
		contentHeight -= lipgloss.Height(bar)
	}

	var body string
	switch {
	case a.loading && !a.ctrl.Ready():
		body = HelpStyle.Render(a.spinner.View() + " Loading animals...")
	case !a.ctrl.Ready():
		body = HelpStyle.Render("No data loaded.")
	default:
		body = RenderList(a.view.Entities, a.cursor, a.width, contentHeight, a.view.Settings)
	}

	parts := []string{header, body}
	if prompt != "" {
		parts = append(parts, prompt)
	}
	if bar != "" {
		parts = append(parts, bar)
	}
	parts = append(parts, statusBar, helpView)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a App) renderHeader() string {
	s := a.view.Settings
	return HeaderStyle.Render("AnimalBase") +
		StatusBarText.Render(fmt.Sprintf(" filter: %s · sort: %s %s", s.FilterBy, s.SortBy, s.Direction))
}

// renderConflict renders the decision prompt for c.
func renderConflict(c arbiter.Conflict, width int) string {
	var b strings.Builder
	switch c.State {
	case arbiter.AwaitingCategoryConflict:
		b.WriteString(PromptTitle.Render("Only one winner per type"))
		b.WriteString("\n")
		if len(c.Incumbents) > 0 {
			inc := c.Incumbents[0]
			fmt.Fprintf(&b, "%s the %s is already the %s winner.\n", inc.Name, inc.Description, inc.Category)
		}
		fmt.Fprintf(&b, "Make %s the winner instead?\n", c.Candidate.Name)
		b.WriteString(promptHint(keys.Accept, keys.Decline, keys.Cancel))

	case arbiter.AwaitingCapacityConflict:
		b.WriteString(PromptTitle.Render(fmt.Sprintf("There can only be %d winners", arbiter.MaxWinners)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "Demote one to make %s a winner:\n", c.Candidate.Name)
		for i, inc := range c.Incumbents {
			fmt.Fprintf(&b, "  %s %s the %s\n", StatusBarKey.Render(fmt.Sprintf("[%d]", i+1)), inc.Name, inc.Description)
		}
		b.WriteString(promptHint(keys.Cancel))
	}

	w := width - 4
	if w < 20 {
		w = 20
	}
	return PromptBox.Width(w).Render(b.String())
}

func promptHint(bindings ...key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		hints = append(hints, StatusBarKey.Render(h.Key)+" "+StatusBarText.Render(h.Desc))
	}
	return strings.Join(hints, "  ")
}

// RenderStatusBar renders the bottom status line.
func RenderStatusBar(cursor, shown, total, width int, loading bool, spin string) string {
	pos := "0/0"
	if shown > 0 {
		pos = fmt.Sprintf("%d/%d", cursor+1, shown)
	}
	text := StatusBarKey.Render(pos) + StatusBarText.Render(fmt.Sprintf(" of %d animals", total))
	if loading {
		text += " " + spin + StatusBarText.Render(" fetching")
	}
	return StatusBar.Width(width).Render(text)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Entities returns the entities currently displayed (for testing).
func (a App) Entities() []entity.Entity {
	return a.view.Entities
}

// Conflict returns the pending conflict, if any (for testing).
func (a App) Conflict() *arbiter.Conflict {
	return a.conflict
}
