// Package ui implements the bugdash terminal dashboard: a role-scoped
// bug table with search, filters, sorting and paging, summary cards, a
// markdown detail pane and live reload.
package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/vanderheijden86/bugdash/internal/datasource"
	"github.com/vanderheijden86/bugdash/pkg/config"
	"github.com/vanderheijden86/bugdash/pkg/debug"
	"github.com/vanderheijden86/bugdash/pkg/loader"
	"github.com/vanderheijden86/bugdash/pkg/metrics"
	"github.com/vanderheijden86/bugdash/pkg/model"
	"github.com/vanderheijden86/bugdash/pkg/tableview"
	"github.com/vanderheijden86/bugdash/pkg/watcher"
)

// SplitViewThreshold is the terminal width from which the detail pane sits
// beside the table instead of replacing it.
const SplitViewThreshold = 100

// focus represents which UI element has keyboard focus
type focus int

const (
	focusTable focus = iota
	focusSearch
	focusDropdown
	focusDetail
)

// FileChangedMsg is sent when a watched data file changes on disk
type FileChangedMsg struct{}

// ReloadedMsg carries the result of re-reading the data sources.
type ReloadedMsg struct {
	Result   *datasource.Result
	Err      error
	Warnings []string
}

// ReadyTimeoutMsg is sent after a short delay to ensure the UI becomes ready
// even if the terminal doesn't send WindowSizeMsg promptly
type ReadyTimeoutMsg struct{}

// ReadyTimeoutCmd returns a command that sends ReadyTimeoutMsg after 100ms.
func ReadyTimeoutCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return ReadyTimeoutMsg{}
	})
}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// ReloadCmd re-reads paths and reports the outcome as a ReloadedMsg.
func ReloadCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		var (
			mu       sync.Mutex
			warnings []string
		)
		res, err := datasource.LoadAll(context.Background(), paths, loader.ParseOptions{
			WarningHandler: func(msg string) {
				mu.Lock()
				warnings = append(warnings, msg)
				mu.Unlock()
			},
		})
		return ReloadedMsg{Result: res, Err: err, Warnings: warnings}
	}
}

// activation is shared by every copy of the Model so the table's
// activation handler can hand the chosen record back to Update.
type activation struct {
	bug *model.Bug
}

// Option configures a Model.
type Option func(*Model)

// WithConfig applies page size, theme, role, default sort and scope users
// from cfg. The config should already be validated.
func WithConfig(cfg config.Config) Option {
	return func(m *Model) {
		m.pageSize = cfg.UI.PageSize
		m.vc = ViewConfig{Theme: cfg.UI.Theme, Role: cfg.Role()}
		m.sort = cfg.Sort()
		m.users = cfg.ScopeUsers()
	}
}

// WithQuery presets the search text and filters.
func WithQuery(q tableview.Query) Option {
	return func(m *Model) {
		m.query = q
	}
}

// WithWatcher makes the model wait on w and reload when it fires.
func WithWatcher(w *watcher.Watcher) Option {
	return func(m *Model) {
		m.watcher = w
	}
}

// WithSources sets the data paths re-read on reload.
func WithSources(paths []string) Option {
	return func(m *Model) {
		m.paths = paths
	}
}

// WithClipboard replaces the clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) {
		m.copy = fn
	}
}

// WithLogger sets the logger used by the model and its table.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// Model is the main bubbletea model for the dashboard.
type Model struct {
	all      []model.Bug
	users    model.Users
	vc       ViewConfig
	theme    Theme
	pageSize int
	sort     tableview.SortKey
	query    tableview.Query

	table     *tableview.Table
	activated *activation
	cursor    int

	search   textinput.Model
	dropdown *Dropdown
	detail   detailPane
	focused  focus

	width  int
	height int
	ready  bool

	statusMsg     string
	statusIsError bool
	statusSeq     int

	watcher   *watcher.Watcher
	paths     []string
	reloading bool

	copy   func(string) error
	logger *zap.Logger
}

// NewModel builds the dashboard over bugs.
func NewModel(bugs []model.Bug, opts ...Option) Model {
	def := config.DefaultConfig()
	m := Model{
		all:       bugs,
		users:     def.ScopeUsers(),
		vc:        ViewConfig{Theme: def.UI.Theme, Role: def.Role()},
		pageSize:  def.UI.PageSize,
		sort:      def.Sort(),
		query:     tableview.DefaultQuery(),
		activated: &activation{},
		detail:    newDetailPane(),
		copy:      clipboard.WriteAll,
		logger:    debug.L(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.theme = ThemeFor(m.vc.Theme)
	m.search = textinput.New()
	m.search.Prompt = "/ "
	m.search.Placeholder = "Search title, ID or assignee"
	m.search.CharLimit = 100
	m.search.Width = 28
	m.search.SetValue(m.query.Search)
	m.styleSearch()

	m.rebuildTable()
	return m
}

// rebuildTable creates the table for the current role, keeping the query
// and sort and starting on the first page.
func (m *Model) rebuildTable() {
	sel := m.activated
	m.table = tableview.New(
		m.all,
		tableview.WithPredicate(m.scopePredicate()),
		tableview.WithPageSize(m.pageSize),
		tableview.WithSort(m.sort),
		tableview.WithQuery(m.query),
		tableview.WithLogger(m.logger),
		tableview.WithActivationHandler(func(ev tableview.RowActivated) {
			sel.bug = ev.Bug
		}),
	)
	m.cursor = 0
}

// scopePredicate admits the bugs in the current role's view.
func (m *Model) scopePredicate() tableview.Predicate {
	role, users := m.vc.Role, m.users
	return func(b *model.Bug) bool {
		return role.InScope(b, users)
	}
}

func (m *Model) styleSearch() {
	m.search.PromptStyle = m.theme.KeyText
	m.search.TextStyle = m.theme.Base
	m.search.PlaceholderStyle = m.theme.MutedText
}

// Init starts the ready timeout and, when watching, the file watch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ReadyTimeoutCmd()}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layoutDetail()
		return m, nil

	case ReadyTimeoutMsg:
		if !m.ready {
			m.ready = true
			if m.width == 0 {
				m.width, m.height = 80, 24
			}
		}
		return m, nil

	case logRecordMsg:
		return m, m.setStatus(msg.Summary, msg.Level >= zap.ErrorLevel)

	case statusFadeMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
			m.statusIsError = false
		}
		return m, nil

	case FileChangedMsg:
		if len(m.paths) == 0 || m.reloading {
			return m, m.rewatch()
		}
		m.reloading = true
		debug.Log("reload: change detected in %s", strings.Join(m.paths, ", "))
		return m, ReloadCmd(m.paths)

	case ReloadedMsg:
		m.reloading = false
		cmd := m.applyReload(msg)
		return m, tea.Batch(cmd, m.rewatch())

	case tea.KeyMsg:
		switch m.focused {
		case focusSearch:
			return m.handleSearchKeys(msg)
		case focusDropdown:
			return m.handleDropdownKeys(msg)
		case focusDetail:
			return m.handleDetailKeys(msg)
		default:
			return m.handleTableKeys(msg)
		}
	}
	return m, nil
}

func (m *Model) rewatch() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return WatchFileCmd(m.watcher)
}

// applyReload swaps in the reloaded records, keeping the search, filters,
// sort and (clamped) page.
func (m *Model) applyReload(msg ReloadedMsg) tea.Cmd {
	defer debug.LogEnterExit("applyReload")()
	if msg.Err != nil {
		m.logger.Debug("reload failed", zap.Error(msg.Err))
		return m.setStatus(fmt.Sprintf("Reload error: %v", msg.Err), true)
	}

	diff := datasource.Diff(m.all, msg.Result.Bugs)
	m.all = msg.Result.Bugs
	m.table.SetRecords(m.all)
	m.clampCursor()

	if m.detail.Open() {
		id := m.detail.Bug().ID
		m.detail.Close()
		recs := m.table.Records()
		for i := range recs {
			if recs[i].ID == id && m.vc.Role.InScope(&recs[i], m.users) {
				m.openDetail(&recs[i])
				break
			}
		}
		if !m.detail.Open() && m.focused == focusDetail {
			m.focused = focusTable
		}
	}

	m.logger.Debug("reloaded",
		zap.Int("bugs", diff.CountAfter),
		zap.Int("added", len(diff.Added)),
		zap.Int("removed", len(diff.Removed)),
		zap.Int("warnings", len(msg.Warnings)),
	)
	text := diff.Summary()
	if n := len(msg.Warnings); n > 0 {
		text += fmt.Sprintf(" (%d warnings)", n)
	}
	return m.setStatus(text, false)
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.statusMsg = text
	m.statusIsError = isErr
	return statusFadeCmd(m.statusSeq)
}

func (m *Model) clampCursor() {
	n := len(m.table.VisibleRows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selectedBug() *model.Bug {
	rows := m.table.VisibleRows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor]
}

func (m Model) handleTableKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.focused = focusSearch
		return m, m.search.Focus()
	case "s":
		m.openDropdown(statusDropdown(m.table.Query().Status))
	case "v":
		m.openDropdown(severityDropdown(m.table.Query().Severity))
	case "o":
		m.openDropdown(sortDropdown(m.table.Sort()))
	case "r":
		m.openDropdown(roleDropdown(m.vc.Role))
	case "t":
		m.toggleTheme()
	case "n", "right":
		m.table.NextPage()
		m.cursor = 0
	case "p", "left":
		m.table.PrevPage()
		m.cursor = 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.table.VisibleRows())-1 {
			m.cursor++
		}
	case "enter":
		m.activated.bug = nil
		if m.table.Activate(m.cursor) && m.activated.bug != nil {
			m.openDetail(m.activated.bug)
			m.focused = focusDetail
		}
	case "y":
		return m, m.copySelected()
	case "c":
		m.search.SetValue("")
		m.table.ClearFilters()
		m.query = m.table.Query()
		m.cursor = 0
		return m, m.setStatus("Filters cleared", false)
	case "esc":
		if m.detail.Open() {
			m.detail.Close()
		}
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			cols := m.table.Columns()
			if i := int(key[0] - '1'); i < len(cols) {
				m.table.ToggleSort(cols[i].Column)
				m.sort = m.table.Sort()
				m.clampCursor()
			}
		}
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.search.SetValue("")
		m.applySearch()
		m.search.Blur()
		m.focused = focusTable
		return m, nil
	case "enter", "tab":
		m.search.Blur()
		m.focused = focusTable
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.table.Query().Search {
		m.applySearch()
	}
	return m, cmd
}

func (m *Model) applySearch() {
	m.table.SetSearch(m.search.Value())
	m.query = m.table.Query()
	m.cursor = 0
}

func (m *Model) openDropdown(d *Dropdown) {
	m.dropdown = d
	m.focused = focusDropdown
}

func (m *Model) closeDropdown() {
	m.dropdown = nil
	m.focused = focusTable
	if m.detail.Open() {
		m.focused = focusDetail
	}
}

func (m Model) handleDropdownKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.closeDropdown()
	case "up", "k":
		m.dropdown.MoveUp()
	case "down", "j":
		m.dropdown.MoveDown()
	case "enter":
		cmd := m.applyDropdown(m.dropdown)
		m.closeDropdown()
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyDropdown(d *Dropdown) tea.Cmd {
	v := d.Selected().Value
	switch d.kind {
	case dropdownStatus:
		m.table.SetStatusFilter(v)
	case dropdownSeverity:
		m.table.SetSeverityFilter(v)
	case dropdownSort:
		k, err := tableview.ParseSortKey(v)
		if err != nil {
			return m.setStatus(err.Error(), true)
		}
		m.table.SetSort(k)
		m.sort = k
	case dropdownRole:
		r, err := model.ParseRole(v)
		if err != nil {
			return m.setStatus(err.Error(), true)
		}
		if r != m.vc.Role {
			m.vc.Role = r
			m.query = m.table.Query()
			m.detail.Close()
			m.rebuildTable()
		}
		return nil
	}
	m.query = m.table.Query()
	m.cursor = 0
	return nil
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		m.detail.Close()
		m.focused = focusTable
		return m, nil
	case "y":
		return m, m.copyID(m.detail.Bug())
	case "t":
		m.toggleTheme()
		return m, nil
	}
	var cmd tea.Cmd
	m.detail.viewport, cmd = m.detail.viewport.Update(msg)
	return m, cmd
}

func (m *Model) copySelected() tea.Cmd {
	return m.copyID(m.selectedBug())
}

func (m *Model) copyID(b *model.Bug) tea.Cmd {
	if b == nil {
		return nil
	}
	if err := m.copy(b.ID); err != nil {
		return m.setStatus(fmt.Sprintf("Clipboard unavailable: %v", err), true)
	}
	return m.setStatus(fmt.Sprintf("Copied #%s to clipboard", b.ID), false)
}

func (m *Model) toggleTheme() {
	name := config.ThemeLight
	if m.vc.Theme == config.ThemeLight {
		name = config.ThemeDark
	}
	m.vc.Theme = name
	m.theme = ThemeFor(name)
	m.styleSearch()
	m.detail.SetTheme(name)
}

// detailOuterWidth is the split-view width of the detail pane.
func (m *Model) detailOuterWidth() int {
	return max(m.width*2/5, MinDetailPaneWidth)
}

// splitView reports whether the detail pane sits beside the table.
func (m *Model) splitView() bool {
	if m.width < SplitViewThreshold {
		return false
	}
	return m.width-m.detailOuterWidth()-1 >= minTableWidth(m.table.Columns())
}

// detailSize returns the viewport size for the detail pane.
func (m *Model) detailSize() (int, int) {
	w := m.width
	if m.splitView() {
		w = m.detailOuterWidth()
	}
	// Border (2) and the hint line (1)
	h := m.height - m.chromeHeight() - 3
	return max(w-2, 10), max(h, 3)
}

// chromeHeight is the number of lines above and below the body.
func (m *Model) chromeHeight() int {
	top := renderHeader(m.theme, m.vc, m.width) + "\n" + m.summaryView()
	// Controls line and footer
	return lipgloss.Height(top) + 2
}

func (m *Model) openDetail(b *model.Bug) {
	w, h := m.detailSize()
	m.detail.Show(b, m.vc.Theme, w, h)
}

func (m *Model) layoutDetail() {
	if m.detail.Open() {
		m.detail.SetSize(m.detailSize())
	}
}

func (m *Model) summaryView() string {
	return renderSummary(m.theme, model.Summarize(model.Scope(m.all, m.vc.Role, m.users)), m.width)
}

// renderControls draws the search box and the current filter values, and
// returns the column each dropdown opens at.
func (m *Model) renderControls() (string, map[dropdownKind]int) {
	q := m.table.Query()
	label := func(v, text string) string {
		if v == "" || v == tableview.All {
			return "All"
		}
		return text
	}
	segments := []struct {
		kind dropdownKind
		text string
	}{
		{dropdownStatus, m.theme.KeyText.Render("s") + " Status: " + label(q.Status, model.Status(q.Status).Label())},
		{dropdownSeverity, m.theme.KeyText.Render("v") + " Severity: " + label(q.Severity, model.Severity(q.Severity).Label())},
		{dropdownSort, m.theme.KeyText.Render("o") + " Sort: " + sortLabel(m.table.Sort())},
	}

	anchors := map[dropdownKind]int{dropdownRole: 0}
	line := m.search.View()
	for _, s := range segments {
		line += "   "
		anchors[s.kind] = lipgloss.Width(line)
		line += s.text
	}
	return line, anchors
}

// renderFooter shows the status message when there is one and the key
// hints otherwise.
func (m *Model) renderFooter() string {
	if m.statusMsg != "" {
		prefix, style := "✓ ", m.theme.Renderer.NewStyle().Foreground(m.theme.Success).Bold(true)
		if m.statusIsError {
			prefix, style = "✗ ", m.theme.ErrorText
		}
		return style.Render(truncate(prefix+m.statusMsg, m.width))
	}

	type hint struct {
		key   string
		label string
	}
	var hints []hint
	switch m.focused {
	case focusSearch:
		hints = []hint{{"enter", "done"}, {"esc", "clear"}}
	case focusDropdown:
		hints = []hint{{"↑/↓", "move"}, {"enter", "select"}, {"esc", "cancel"}}
	case focusDetail:
		hints = []hint{{"esc", "close"}, {"↑/↓", "scroll"}, {"y", "copy id"}, {"q", "quit"}}
	default:
		hints = []hint{
			{"/", "search"}, {"s", "status"}, {"v", "severity"}, {"o", "sort"},
			{"1-6", "sort col"}, {"n/p", "page"}, {"enter", "open"}, {"r", "role"},
			{"t", "theme"}, {"c", "clear"}, {"q", "quit"},
		}
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, m.theme.MutedText.Render(h.key)+":"+m.theme.Base.Render(h.label))
	}
	return " " + strings.Join(parts, "  ")
}

// View renders the dashboard.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	defer metrics.Timer(metrics.UIRender)()

	header := renderHeader(m.theme, m.vc, m.width)
	summary := m.summaryView()
	controls, anchors := m.renderControls()

	tableWidth := m.width
	var body string
	switch {
	case m.detail.Open() && m.splitView():
		tableWidth = m.width - m.detailOuterWidth() - 1
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			renderTable(m.theme, m.table, m.cursor, tableWidth),
			" ",
			m.detail.View(m.theme),
		)
	case m.detail.Open():
		body = m.detail.View(m.theme)
	default:
		body = renderTable(m.theme, m.table, m.cursor, tableWidth)
	}

	lower := controls + "\n" + body
	if m.dropdown != nil {
		lower = overlay(lower, m.dropdown.Render(m.theme), anchors[m.dropdown.kind], 1)
	}

	return lipgloss.NewStyle().
		MaxWidth(m.width).
		MaxHeight(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, summary, lower, m.renderFooter()))
}

// Table returns the table backing the current view.
func (m Model) Table() *tableview.Table {
	return m.table
}

// ViewConfig returns the active theme and role.
func (m Model) ViewConfig() ViewConfig {
	return m.vc
}

// StatusMessage returns the status bar text and whether it is an error.
func (m Model) StatusMessage() (string, bool) {
	return m.statusMsg, m.statusIsError
}

// DetailBug returns the bug shown in the detail pane, or nil.
func (m Model) DetailBug() *model.Bug {
	return m.detail.Bug()
}
