package datasource

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/bugdash/pkg/debug"
	"github.com/vanderheijden86/bugdash/pkg/loader"
	"github.com/vanderheijden86/bugdash/pkg/metrics"
	"github.com/vanderheijden86/bugdash/pkg/model"
)

// SQLiteReader provides read access to a bug database. The expected schema
// is a bugs table
//
//	id, title, description, status, severity,
//	assigned_to, reported_by, date_reported
//
// and an optional comments table (bug_id, author, text, date).
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("sqlite %s: %s failed: %v", source.Path, pragma, err)
		}
	}

	return &SQLiteReader{
		db:   db,
		path: source.Path,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadBugs reads every bug, applying the same normalization and warnings as
// the file loaders.
func (r *SQLiteReader) LoadBugs(ctx context.Context, opts loader.ParseOptions) ([]model.Bug, error) {
	defer metrics.Timer(metrics.SQLiteQuery)()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, status, severity,
		       assigned_to, reported_by, date_reported
		FROM bugs
		ORDER BY rowid
	`)
	if err != nil {
		// Older exports only carry the required columns
		return r.loadBugsSimple(ctx, opts)
	}
	defer rows.Close()

	comments := r.loadComments(ctx)

	var bugs []model.Bug
	n := 0
	for rows.Next() {
		n++
		var id, title, description, status, severity, assignedTo, reportedBy, dateReported sql.NullString
		if err := rows.Scan(&id, &title, &description, &status, &severity,
			&assignedTo, &reportedBy, &dateReported); err != nil {
			opts.Warn(fmt.Sprintf("skipping row %d of %s: %v", n, r.path, err))
			continue
		}

		b := model.Bug{
			ID:           id.String,
			Title:        title.String,
			Description:  description.String,
			Status:       model.Status(status.String),
			Severity:     model.Severity(severity.String),
			ReportedBy:   reportedBy.String,
			DateReported: dateReported.String,
		}
		if assignedTo.Valid {
			b.AssignedTo = model.StringPtr(assignedTo.String)
		}
		b.Comments = comments[b.ID]

		if opts.Accept(&b, fmt.Sprintf("row %d of %s", n, r.path)) {
			bugs = append(bugs, b)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bugs: %w", err)
	}
	return bugs, nil
}

// loadBugsSimple is a fallback for databases with fewer columns
func (r *SQLiteReader) loadBugsSimple(ctx context.Context, opts loader.ParseOptions) ([]model.Bug, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, status, severity FROM bugs`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var bugs []model.Bug
	n := 0
	for rows.Next() {
		n++
		var id, title, status, severity sql.NullString
		if err := rows.Scan(&id, &title, &status, &severity); err != nil {
			opts.Warn(fmt.Sprintf("skipping row %d of %s: %v", n, r.path, err))
			continue
		}
		b := model.Bug{
			ID:       id.String,
			Title:    title.String,
			Status:   model.Status(status.String),
			Severity: model.Severity(severity.String),
		}
		if opts.Accept(&b, fmt.Sprintf("row %d of %s", n, r.path)) {
			bugs = append(bugs, b)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bugs: %w", err)
	}
	return bugs, nil
}

// loadComments groups every comment by bug ID. It is best effort: a missing
// comments table yields no comments.
func (r *SQLiteReader) loadComments(ctx context.Context) map[string][]*model.Comment {
	rows, err := r.db.QueryContext(ctx, `SELECT bug_id, author, text, date FROM comments ORDER BY date, rowid`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	out := make(map[string][]*model.Comment)
	for rows.Next() {
		var bugID, author, text, date sql.NullString
		if err := rows.Scan(&bugID, &author, &text, &date); err != nil {
			continue
		}
		out[bugID.String] = append(out[bugID.String], &model.Comment{
			Author: author.String,
			Text:   text.String,
			Date:   date.String,
		})
	}
	return out
}

// CountBugs returns the number of rows in the bugs table
func (r *SQLiteReader) CountBugs(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bugs").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetBugByID retrieves a single bug by ID
func (r *SQLiteReader) GetBugByID(ctx context.Context, id string) (*model.Bug, error) {
	bugs, err := r.LoadBugs(ctx, loader.ParseOptions{
		WarningHandler: func(string) {},
		BugFilter:      func(b *model.Bug) bool { return b.ID == id },
	})
	if err != nil {
		return nil, err
	}
	if len(bugs) == 0 {
		return nil, fmt.Errorf("bug not found: %s", id)
	}
	return &bugs[0], nil
}
