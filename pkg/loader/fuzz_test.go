package loader_test

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/bugdash/pkg/loader"
)

// =============================================================================
// Fuzz Tests for Parser Robustness
// =============================================================================
//
// The parsers must never panic, whatever the input.
//
// Run with: go test -fuzz=FuzzParseJSONL -fuzztime=10m ./pkg/loader/...

var fuzzSeeds = []string{
	`{"id":1,"title":"Test","status":"open","severity":"high"}`,
	`{"id":"B-2","title":"Full","description":"desc","status":"in-progress","severity":"low","assignedTo":"x","reportedBy":"y","dateReported":"2023-01-01","comments":[{"author":"a","text":"b"}]}`,
	"",
	"   \t  ",
	`{"id":"3","title":"Incomplete`,
	`{id:"4",title:"Test"}`,
	`{"id":null,"title":"null id"}`,
	`{"id":1.5e3,"title":"float id"}`,
	`{"id":[1],"title":"array id"}`,
	`[{"id":"5"}]`,
	`{"bugs":[{"id":"6","title":"wrapped"}]}`,
	`"just a string"`,
	`42`,
	`null`,
	"\x00\x01\x02\x03",
	"\xff\xfe",
	"\xef\xbb\xbf" + `{"id":"7","title":"BOM"}`,
	`{"id":"8"}{"id":"9"}`,
	`{"id":"10","title":"` + strings.Repeat("x", 4096) + `"}`,
	"- id: 11\n  title: yaml",
	"bugs:\n  - id: 12",
	"a: [b, {c: d}]",
}

func FuzzParseJSONL(f *testing.F) {
	for _, s := range fuzzSeeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, in string) {
		opts := loader.ParseOptions{WarningHandler: func(string) {}}
		_, _ = loader.ParseBugs(strings.NewReader(in), loader.FormatJSONL, opts)
	})
}

func FuzzParseJSON(f *testing.F) {
	for _, s := range fuzzSeeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, in string) {
		opts := loader.ParseOptions{WarningHandler: func(string) {}}
		_, _ = loader.ParseBugs(strings.NewReader(in), loader.FormatJSON, opts)
	})
}

func FuzzParseYAML(f *testing.F) {
	for _, s := range fuzzSeeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, in string) {
		opts := loader.ParseOptions{WarningHandler: func(string) {}}
		_, _ = loader.ParseBugs(strings.NewReader(in), loader.FormatYAML, opts)
	})
}
