// Package datasource resolves where bug records come from (embedded sample,
// JSON / JSONL / YAML files, or a read-only SQLite database) and loads them
// into a single store.
package datasource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/bugdash/pkg/loader"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSample is the embedded demo dataset
	SourceTypeSample SourceType = "sample"
	SourceTypeJSON   SourceType = "json"
	SourceTypeJSONL  SourceType = "jsonl"
	SourceTypeYAML   SourceType = "yaml"
	// SourceTypeSQLite is a SQLite database with a bugs table
	SourceTypeSQLite SourceType = "sqlite"
)

// sqliteMagic is the 16-byte header every SQLite 3 database starts with.
var sqliteMagic = []byte("SQLite format 3\x00")

// ErrDuplicateID marks a record whose ID was already loaded from an earlier
// source.
var ErrDuplicateID = errors.New("duplicate bug id")

// DataSource represents one place bug records are read from
type DataSource struct {
	Type SourceType `json:"type"`
	// Path is the file path; empty for the sample source
	Path    string    `json:"path,omitempty"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// SampleSource is the embedded dataset used when nothing is configured.
func SampleSource() DataSource {
	return DataSource{Type: SourceTypeSample}
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	if s.Type == SourceTypeSample {
		return "embedded sample data"
	}
	return fmt.Sprintf("%s (%s, %d bytes)", s.Path, s.Type, s.Size)
}

// Detect classifies path. A file starting with the SQLite header is a
// database whatever its extension; otherwise the extension decides.
func Detect(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DataSource{}, fmt.Errorf("no bug data found at %s", path)
		}
		return DataSource{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("%s is a directory", path)
	}

	src := DataSource{Path: path, ModTime: info.ModTime(), Size: info.Size()}

	isDB, err := hasSQLiteHeader(path)
	if err != nil {
		return DataSource{}, err
	}
	if isDB {
		src.Type = SourceTypeSQLite
		return src, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		// An empty or foreign file with a database extension is still
		// handed to the SQLite reader so the error names the real problem.
		src.Type = SourceTypeSQLite
		return src, nil
	}

	format, err := loader.FormatFromPath(path)
	if err != nil {
		return DataSource{}, err
	}
	switch format {
	case loader.FormatJSON:
		src.Type = SourceTypeJSON
	case loader.FormatJSONL:
		src.Type = SourceTypeJSONL
	case loader.FormatYAML:
		src.Type = SourceTypeYAML
	}
	return src, nil
}

func hasSQLiteHeader(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	return bytes.Equal(buf, sqliteMagic), nil
}
