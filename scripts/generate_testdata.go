//go:build ignore

// generate_testdata.go creates bug datasets for manual testing and
// benchmarking the dashboard.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/bugs/small.json    (50 bugs)
//	testdata/bugs/medium.jsonl  (1000 bugs)
//	testdata/bugs/large.jsonl   (10000 bugs)
//	testdata/bugs/team.yaml     (200 bugs, mostly open)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/bugdash/pkg/model"
	"github.com/vanderheijden86/bugdash/pkg/testutil"
)

type datasetSpec struct {
	file string
	size int
	cfg  func(*testutil.GeneratorConfig)
}

var datasets = []datasetSpec{
	{"small.json", 50, nil},
	{"medium.jsonl", 1000, nil},
	{"large.jsonl", 10000, func(c *testutil.GeneratorConfig) {
		c.MaxComments = 0
	}},
	{"team.yaml", 200, func(c *testutil.GeneratorConfig) {
		c.StatusMix = []model.Status{model.StatusOpen, model.StatusOpen, model.StatusInProgress, model.StatusResolved}
		c.UnassignedRate = 0.4
	}},
}

func main() {
	outputDir := filepath.Join("testdata", "bugs")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s (%d bugs)...\n", ds.file, ds.size)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.size) // reproducible per size
		if ds.cfg != nil {
			ds.cfg(&cfg)
		}
		bugs := testutil.New(cfg).Bugs(ds.size)

		content, err := encode(ds.file, bugs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", ds.file, err)
			os.Exit(1)
		}

		outputPath := filepath.Join(outputDir, ds.file)
		if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s (%d bytes)\n", outputPath, len(content))
	}

	fmt.Println("\nDone! Datasets created in", outputDir)
}

func encode(name string, bugs []model.Bug) (string, error) {
	switch filepath.Ext(name) {
	case ".jsonl":
		return testutil.ToJSONL(bugs)
	case ".yaml":
		return testutil.ToYAML(bugs)
	default:
		return testutil.ToJSON(bugs)
	}
}
