// Package loader decodes bug records from JSON, JSONL and YAML sources and
// ships an embedded sample dataset.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/bugdash/pkg/debug"
	"github.com/vanderheijden86/bugdash/pkg/metrics"
	"github.com/vanderheijden86/bugdash/pkg/model"
)

// Format identifies a file encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ErrUnknownFormat is returned for unsupported file extensions.
var ErrUnknownFormat = errors.New("unknown data format")

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// DefaultMaxBufferSize is the default JSONL line limit (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ParseOptions configures decoding.
type ParseOptions struct {
	// WarningHandler is called with warning messages (malformed lines,
	// out-of-enum values). If nil, warnings go to the process logger.
	WarningHandler func(string)

	// BufferSize sets the maximum JSONL line size. Longer lines are
	// skipped with a warning. If 0, uses DefaultMaxBufferSize.
	BufferSize int

	// BugFilter optionally filters parsed bugs. Return true to include.
	BugFilter func(*model.Bug) bool
}

func (o ParseOptions) warn() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	return func(msg string) {
		debug.L().Warn(msg, zap.String("component", "loader"))
	}
}

// Warn reports msg through the configured warning handler.
func (o ParseOptions) Warn(msg string) {
	o.warn()(msg)
}

// Accept normalizes b and reports whether it should be kept. Readers that
// decode records themselves (for example the SQLite reader) use it to apply
// the same rules as ParseBugs; where names the record in warnings.
func (o ParseOptions) Accept(b *model.Bug, where string) bool {
	return accept(b, where, o.warn(), o)
}

// LoadFile reads bugs from path, choosing the decoder by extension.
func LoadFile(path string, opts ParseOptions) ([]model.Bug, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no bug data found at %s", path)
		}
		return nil, fmt.Errorf("failed to open bug file: %w", err)
	}
	defer file.Close()

	bugs, err := ParseBugs(file, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	debug.Log("loaded %d bugs from %s", len(bugs), path)
	return bugs, nil
}

// ParseBugs decodes bugs in the given format. Malformed records are skipped
// with a warning; records without an ID are dropped; out-of-enum status or
// severity values are kept with a warning.
func ParseBugs(r io.Reader, format Format, opts ParseOptions) ([]model.Bug, error) {
	switch format {
	case FormatJSON:
		defer metrics.Timer(metrics.JSONParsing)()
		return parseJSON(r, opts)
	case FormatJSONL:
		defer metrics.Timer(metrics.JSONParsing)()
		return parseJSONL(r, opts)
	case FormatYAML:
		defer metrics.Timer(metrics.YAMLParsing)()
		return parseYAML(r, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// parseJSON accepts either a top-level array or an object with a "bugs"
// array.
func parseJSON(r io.Reader, opts ParseOptions) ([]model.Bug, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading JSON: %w", err)
	}
	data = bytes.TrimSpace(stripBOM(data))
	if len(data) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if data[0] == '{' {
		var wrapper struct {
			Bugs []json.RawMessage `json:"bugs"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		raw = wrapper.Bugs
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	warn := opts.warn()
	bugs := make([]model.Bug, 0, len(raw))
	for i, elem := range raw {
		var b model.Bug
		if err := json.Unmarshal(elem, &b); err != nil {
			warn(fmt.Sprintf("skipping malformed bug at index %d: %v", i, err))
			continue
		}
		if accept(&b, fmt.Sprintf("index %d", i), warn, opts) {
			bugs = append(bugs, b)
		}
	}
	return bugs, nil
}

func parseJSONL(r io.Reader, opts ParseOptions) ([]model.Bug, error) {
	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)
	warn := opts.warn()

	var bugs []model.Bug
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading bug stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var b model.Bug
		if err := json.Unmarshal(line, &b); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if accept(&b, fmt.Sprintf("line %d", lineNum), warn, opts) {
			bugs = append(bugs, b)
		}
	}
	return bugs, nil
}

// parseYAML accepts either a top-level sequence or a mapping with a "bugs"
// sequence.
func parseYAML(r io.Reader, opts ParseOptions) ([]model.Bug, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	seq := doc.Content[0]
	if seq.Kind == yaml.MappingNode {
		seq = mappingValue(seq, "bugs")
		if seq == nil {
			return nil, fmt.Errorf("parsing YAML: mapping has no %q key", "bugs")
		}
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("parsing YAML: expected a list of bugs, got %s", nodeKind(seq))
	}

	warn := opts.warn()
	bugs := make([]model.Bug, 0, len(seq.Content))
	for _, item := range seq.Content {
		var b model.Bug
		if err := item.Decode(&b); err != nil {
			warn(fmt.Sprintf("skipping malformed bug on line %d: %v", item.Line, err))
			continue
		}
		if accept(&b, fmt.Sprintf("line %d", item.Line), warn, opts) {
			bugs = append(bugs, b)
		}
	}
	return bugs, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unexpected node"
	}
}

// accept normalizes b and decides whether to keep it.
func accept(b *model.Bug, where string, warn func(string), opts ParseOptions) bool {
	b.ID = strings.TrimSpace(b.ID)
	b.Status = normalizeStatus(b.Status)
	b.Severity = model.Severity(strings.ToLower(strings.TrimSpace(string(b.Severity))))

	if err := b.Validate(); err != nil {
		if errors.Is(err, model.ErrMissingID) {
			warn(fmt.Sprintf("skipping bug at %s: %v", where, err))
			return false
		}
		warn(fmt.Sprintf("keeping bug at %s despite: %v", where, err))
	}

	if opts.BugFilter != nil && !opts.BugFilter(b) {
		return false
	}
	return true
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}

// normalizeStatus lowercases and maps "in_progress" / "in progress" onto
// the canonical "in-progress".
func normalizeStatus(status model.Status) model.Status {
	s := strings.ToLower(strings.TrimSpace(string(status)))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	return model.Status(s)
}
