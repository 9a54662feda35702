// Package testutil provides deterministic bug fixtures and assertions shared
// by the package tests. All generators produce the same output for the same
// seed.
package testutil

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/bugdash/pkg/model"
)

// GeneratorConfig controls bug generation.
type GeneratorConfig struct {
	Seed           int64            // Random seed for determinism (0 = use current time)
	FirstID        int              // Numeric ID of the first bug (default: 1)
	BaseDate       time.Time        // Date of the first report; later bugs are one day apart
	StatusMix      []model.Status   // Status distribution (nil = all statuses)
	SeverityMix    []model.Severity // Severity distribution (nil = all severities)
	Assignees      []string         // Candidate assignees
	Reporters      []string         // Candidate reporters
	UnassignedRate float64          // Share of bugs with no assignee, in [0,1]
	MaxComments    int              // Upper bound on comments per bug
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:           42, // Deterministic
		FirstID:        1,
		BaseDate:       time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		StatusMix:      model.AllStatuses(),
		SeverityMix:    model.AllSeverities(),
		Assignees:      []string{"John Doe", "Alex Kim", "Sam Lee"},
		Reporters:      []string{"Jane Smith", "Chris Park"},
		UnassignedRate: 0.2,
		MaxComments:    2,
	}
}

// Generator creates bug fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config, filling gaps from
// DefaultConfig.
func New(cfg GeneratorConfig) *Generator {
	def := DefaultConfig()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.FirstID <= 0 {
		cfg.FirstID = def.FirstID
	}
	if cfg.BaseDate.IsZero() {
		cfg.BaseDate = def.BaseDate
	}
	if len(cfg.StatusMix) == 0 {
		cfg.StatusMix = def.StatusMix
	}
	if len(cfg.SeverityMix) == 0 {
		cfg.SeverityMix = def.SeverityMix
	}
	if len(cfg.Assignees) == 0 {
		cfg.Assignees = def.Assignees
	}
	if len(cfg.Reporters) == 0 {
		cfg.Reporters = def.Reporters
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

var titleSubjects = []string{"Login", "Checkout", "Search", "Profile page", "Export", "Dashboard", "Settings", "Upload"}
var titleProblems = []string{"fails on submit", "is slow", "shows wrong totals", "crashes on empty input", "ignores filters", "times out"}

// Bugs generates n bugs with sequential numeric IDs.
func (g *Generator) Bugs(n int) []model.Bug {
	bugs := make([]model.Bug, n)
	for i := range bugs {
		bugs[i] = g.bug(i)
	}
	return bugs
}

func (g *Generator) bug(i int) model.Bug {
	id := strconv.Itoa(g.cfg.FirstID + i)
	reported := g.cfg.BaseDate.AddDate(0, 0, i)

	b := model.Bug{
		ID:           id,
		Title:        fmt.Sprintf("%s %s", pick(g.rng, titleSubjects), pick(g.rng, titleProblems)),
		Description:  fmt.Sprintf("Generated bug %s.", id),
		Status:       pick(g.rng, g.cfg.StatusMix),
		Severity:     pick(g.rng, g.cfg.SeverityMix),
		ReportedBy:   pick(g.rng, g.cfg.Reporters),
		DateReported: reported.Format(time.DateOnly),
	}
	if g.rng.Float64() >= g.cfg.UnassignedRate {
		b.AssignedTo = model.StringPtr(pick(g.rng, g.cfg.Assignees))
	}
	if g.cfg.MaxComments > 0 {
		for c := range g.rng.Intn(g.cfg.MaxComments + 1) {
			b.Comments = append(b.Comments, &model.Comment{
				Author: pick(g.rng, g.cfg.Reporters),
				Text:   fmt.Sprintf("Comment %d on #%s", c+1, id),
				Date:   reported.AddDate(0, 0, c+1).Format(time.DateOnly),
			})
		}
	}
	return b
}

func pick[T any](rng *rand.Rand, from []T) T {
	return from[rng.Intn(len(from))]
}

// Scenario returns the two-record set the filter rules are usually
// described with: an open high-severity bug assigned to John Doe and a
// resolved low-severity bug nobody owns.
func Scenario() []model.Bug {
	return []model.Bug{
		{
			ID:           "1",
			Title:        "Login fails",
			Description:  "Valid credentials are rejected after the latest deploy.",
			Status:       model.StatusOpen,
			Severity:     model.SeverityHigh,
			AssignedTo:   model.StringPtr("John Doe"),
			ReportedBy:   "Jane Smith",
			DateReported: "2023-05-15",
		},
		{
			ID:           "2",
			Title:        "Logout slow",
			Description:  "Logging out takes several seconds.",
			Status:       model.StatusResolved,
			Severity:     model.SeverityLow,
			ReportedBy:   "Jane Smith",
			DateReported: "2023-05-16",
		},
	}
}

// ToJSON renders bugs as a JSON array.
func ToJSON(bugs []model.Bug) (string, error) {
	data, err := json.MarshalIndent(bugs, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToJSONL renders bugs one JSON object per line.
func ToJSONL(bugs []model.Bug) (string, error) {
	var sb strings.Builder
	for i := range bugs {
		data, err := json.Marshal(&bugs[i])
		if err != nil {
			return "", fmt.Errorf("bug %s: %w", bugs[i].ID, err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// ToYAML renders bugs as a YAML sequence.
func ToYAML(bugs []model.Bug) (string, error) {
	data, err := yaml.Marshal(bugs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
