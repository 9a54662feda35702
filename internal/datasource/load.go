package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/bugdash/pkg/debug"
	"github.com/vanderheijden86/bugdash/pkg/loader"
	"github.com/vanderheijden86/bugdash/pkg/metrics"
	"github.com/vanderheijden86/bugdash/pkg/model"
)

// DuplicateError describes a record dropped because its ID was already
// loaded from an earlier source.
type DuplicateError struct {
	ID        string
	Path      string
	FirstPath string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%v %s in %s (kept the one from %s)", ErrDuplicateID, e.ID, e.Path, e.FirstPath)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateID
}

// Result is the merged store produced by LoadAll.
type Result struct {
	Bugs       []model.Bug
	Sources    []DataSource
	Duplicates []*DuplicateError
}

// LoadFromSource loads bugs from a specific DataSource, dispatching to the
// appropriate reader based on source type.
func LoadFromSource(ctx context.Context, source DataSource, opts loader.ParseOptions) ([]model.Bug, error) {
	switch source.Type {
	case SourceTypeSample:
		return loader.SampleBugs(), nil

	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		bugs, err := reader.LoadBugs(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source.Path, err)
		}
		return bugs, nil

	case SourceTypeJSON, SourceTypeJSONL, SourceTypeYAML:
		return loader.LoadFile(source.Path, opts)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// LoadAll detects and loads every path concurrently and concatenates the
// results in argument order. With no paths it returns the sample data.
// When an ID appears more than once the first occurrence wins and the later
// one is reported through the warning handler and Result.Duplicates.
func LoadAll(ctx context.Context, paths []string, opts loader.ParseOptions) (*Result, error) {
	defer metrics.Timer(metrics.DataLoad)()

	sources := make([]DataSource, len(paths))
	for i, p := range paths {
		src, err := Detect(p)
		if err != nil {
			return nil, err
		}
		sources[i] = src
	}
	if len(sources) == 0 {
		sources = []DataSource{SampleSource()}
	}

	loaded := make([][]model.Bug, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			bugs, err := LoadFromSource(gctx, src, opts)
			debug.LogTiming("load "+src.String(), time.Since(start))
			if err != nil {
				return err
			}
			loaded[i] = bugs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Sources: sources}
	firstSeen := make(map[string]string)
	for i, bugs := range loaded {
		where := sources[i].String()
		for _, b := range bugs {
			if first, dup := firstSeen[b.ID]; dup {
				derr := &DuplicateError{ID: b.ID, Path: where, FirstPath: first}
				res.Duplicates = append(res.Duplicates, derr)
				opts.Warn(derr.Error())
				continue
			}
			firstSeen[b.ID] = where
			res.Bugs = append(res.Bugs, b)
		}
	}

	debug.Log("loaded %d bugs from %d sources (%d duplicates dropped)",
		len(res.Bugs), len(sources), len(res.Duplicates))
	return res, nil
}

// IsDuplicate reports whether err is (or wraps) a duplicate-ID error.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateID)
}
