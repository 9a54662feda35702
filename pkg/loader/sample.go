package loader

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

//go:embed sample_bugs.json
var sampleJSON []byte

// SampleBugs returns a fresh copy of the embedded demo dataset. It is the
// default source when no data files are configured.
func SampleBugs() []model.Bug {
	bugs, err := ParseBugs(bytes.NewReader(sampleJSON), FormatJSON, ParseOptions{
		WarningHandler: func(msg string) {
			panic(fmt.Sprintf("embedded sample data: %s", msg))
		},
	})
	if err != nil {
		panic(fmt.Sprintf("embedded sample data: %v", err))
	}
	return bugs
}
