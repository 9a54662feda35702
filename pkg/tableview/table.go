package tableview

import (
	"fmt"

	"github.com/charmbracelet/bubbles/paginator"
	"go.uber.org/zap"

	"github.com/vanderheijden86/bugdash/pkg/debug"
	"github.com/vanderheijden86/bugdash/pkg/metrics"
	"github.com/vanderheijden86/bugdash/pkg/model"
)

// DefaultPageSize is the number of rows per page when none is configured.
const DefaultPageSize = 10

// RowActivated is emitted once per activation with the original record.
type RowActivated struct {
	Bug *model.Bug
}

// Phase is the recompute state of the table.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFiltering
)

func (p Phase) String() string {
	if p == PhaseFiltering {
		return "filtering"
	}
	return "idle"
}

// Option configures a Table.
type Option func(*Table)

// WithPageSize sets the rows per page. Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(t *Table) {
		if n > 0 {
			t.pager.PerPage = n
		}
	}
}

// WithColumns overrides the rendered column layout.
func WithColumns(cols []ColumnSpec) Option {
	return func(t *Table) {
		t.columns = cols
	}
}

// WithActivationHandler sets the subscriber for RowActivated events.
func WithActivationHandler(fn func(RowActivated)) Option {
	return func(t *Table) {
		t.onActivate = fn
	}
}

// WithLogger sets the logger used to report filter failures.
func WithLogger(l *zap.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithPredicate adds a filter ANDed after the query.
func WithPredicate(p Predicate) Option {
	return func(t *Table) {
		t.predicates = append(t.predicates, p)
	}
}

// WithQuery sets the initial filter inputs.
func WithQuery(q Query) Option {
	return func(t *Table) {
		t.query = q
	}
}

// WithSort sets the initial sort.
func WithSort(k SortKey) Option {
	return func(t *Table) {
		t.sort = k
	}
}

// Table is the filterable, sortable, paginated view over a record set.
// It never mutates the records it is given.
type Table struct {
	records    []model.Bug
	query      Query
	sort       SortKey
	predicates []Predicate
	columns    []ColumnSpec

	visible []int
	inScope int
	pager   paginator.Model
	err     error
	phase   Phase
	loading bool

	onActivate func(RowActivated)
	logger     *zap.Logger
}

// New builds a table over records. The slice is retained, not copied, so
// activation events point into the caller's store.
func New(records []model.Bug, opts ...Option) *Table {
	p := paginator.New()
	p.Type = paginator.Arabic
	p.PerPage = DefaultPageSize

	t := &Table{
		records:    records,
		query:      DefaultQuery(),
		columns:    DefaultColumns(),
		pager:      p,
		onActivate: func(RowActivated) {},
		logger:     debug.L(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.recompute()
	return t
}

// recompute re-derives the visible rows from the current inputs.
func (t *Table) recompute() {
	defer metrics.Timer(metrics.FilterRecompute)()

	t.phase = PhaseFiltering
	t.loading = true
	defer func() {
		t.phase = PhaseIdle
		t.loading = false
	}()

	idx, err := Filter(t.records, t.query, t.predicates...)
	if err != nil {
		t.logger.Error("filtering bugs failed; showing no results",
			zap.Error(err),
			zap.String("search", t.query.Search),
			zap.String("status", t.query.Status),
			zap.String("severity", t.query.Severity),
		)
		t.err = err
		idx = nil
	} else {
		t.err = nil
	}

	SortIndices(t.records, idx, t.sort)
	t.visible = idx
	if t.err == nil {
		t.inScope = countInScope(t.records, t.predicates)
	} else {
		t.inScope = 0
	}

	pages := (len(idx) + t.pager.PerPage - 1) / t.pager.PerPage
	if pages < 1 {
		pages = 1
	}
	t.pager.TotalPages = pages
	if t.pager.Page >= pages {
		t.pager.Page = pages - 1
	}
	if t.pager.Page < 0 {
		t.pager.Page = 0
	}
}

// Records returns the underlying record set.
func (t *Table) Records() []model.Bug {
	return t.records
}

// SetRecords swaps in a new record set (for example after a reload). The
// query and sort are kept; the page is clamped.
func (t *Table) SetRecords(records []model.Bug) {
	t.records = records
	t.recompute()
}

// SetPredicates replaces the extra predicates and resets to the first page.
func (t *Table) SetPredicates(preds ...Predicate) {
	t.predicates = preds
	t.pager.Page = 0
	t.recompute()
}

// Query returns the current filter inputs.
func (t *Table) Query() Query {
	return t.query
}

// SetQuery replaces all filter inputs and resets to the first page.
func (t *Table) SetQuery(q Query) {
	t.query = q
	t.pager.Page = 0
	t.recompute()
}

// SetSearch updates the search text and resets to the first page.
func (t *Table) SetSearch(s string) {
	t.query.Search = s
	t.pager.Page = 0
	t.recompute()
}

// SetStatusFilter sets the status filter ("all" or a status) and resets to
// the first page.
func (t *Table) SetStatusFilter(s string) {
	t.query.Status = s
	t.pager.Page = 0
	t.recompute()
}

// SetSeverityFilter sets the severity filter ("all" or a severity) and
// resets to the first page.
func (t *Table) SetSeverityFilter(s string) {
	t.query.Severity = s
	t.pager.Page = 0
	t.recompute()
}

// ClearFilters restores the default query.
func (t *Table) ClearFilters() {
	t.SetQuery(DefaultQuery())
}

// Sort returns the current sort key.
func (t *Table) Sort() SortKey {
	return t.sort
}

// SetSort changes the sort. The current page is kept (clamped).
func (t *Table) SetSort(k SortKey) {
	t.sort = k
	t.recompute()
}

// ToggleSort sorts by c, flipping the direction when c is already the sort
// column and starting ascending otherwise.
func (t *Table) ToggleSort(c Column) {
	if t.sort.Column == c {
		t.SetSort(SortKey{Column: c, Direction: t.sort.Direction.Toggle()})
		return
	}
	t.SetSort(SortKey{Column: c, Direction: Ascending})
}

// Columns returns the rendered column layout.
func (t *Table) Columns() []ColumnSpec {
	return t.columns
}

// PageSize returns rows per page.
func (t *Table) PageSize() int {
	return t.pager.PerPage
}

// SetPageSize changes rows per page and returns to the first page.
func (t *Table) SetPageSize(n int) {
	if n < 1 {
		return
	}
	t.pager.PerPage = n
	t.pager.Page = 0
	t.recompute()
}

// Page returns the zero-based current page.
func (t *Table) Page() int {
	return t.pager.Page
}

// PageCount returns the number of pages, at least 1.
func (t *Table) PageCount() int {
	return t.pager.TotalPages
}

// CanPrev reports whether a previous page exists.
func (t *Table) CanPrev() bool {
	return t.pager.Page > 0
}

// CanNext reports whether a next page exists.
func (t *Table) CanNext() bool {
	return !t.pager.OnLastPage()
}

// NextPage advances one page; a no-op on the last page.
func (t *Table) NextPage() {
	t.pager.NextPage()
}

// PrevPage goes back one page; a no-op on the first page.
func (t *Table) PrevPage() {
	t.pager.PrevPage()
}

// PagerView renders the compact "page/total" indicator.
func (t *Table) PagerView() string {
	return t.pager.View()
}

// Filtered returns every matching record in sorted order.
func (t *Table) Filtered() []*model.Bug {
	out := make([]*model.Bug, len(t.visible))
	for i, idx := range t.visible {
		out[i] = &t.records[idx]
	}
	return out
}

// FilteredCount is the number of records passing the filters.
func (t *Table) FilteredCount() int {
	return len(t.visible)
}

// Total is the number of records passing the predicates alone, before
// the search and categorical filters.
func (t *Table) Total() int {
	return t.inScope
}

// VisibleRows returns the records on the current page.
func (t *Table) VisibleRows() []*model.Bug {
	start, end := t.pager.GetSliceBounds(len(t.visible))
	out := make([]*model.Bug, 0, end-start)
	for _, idx := range t.visible[start:end] {
		out = append(out, &t.records[idx])
	}
	return out
}

// Empty reports whether no rows are visible.
func (t *Table) Empty() bool {
	return len(t.visible) == 0
}

// Footer is the "Showing N of M items" label.
func (t *Table) Footer() string {
	return fmt.Sprintf("Showing %d of %d items", len(t.VisibleRows()), t.Total())
}

// Err returns the failure from the last recompute, if any.
func (t *Table) Err() error {
	return t.err
}

// Phase returns the recompute state.
func (t *Table) Phase() Phase {
	return t.phase
}

// Loading is a cosmetic flag; it is only set while recomputing.
func (t *Table) Loading() bool {
	return t.loading
}

// Activate emits RowActivated for the page-relative row. It returns false
// and emits nothing when row is out of range.
func (t *Table) Activate(row int) bool {
	rows := t.VisibleRows()
	if row < 0 || row >= len(rows) {
		return false
	}
	t.onActivate(RowActivated{Bug: rows[row]})
	return true
}
