package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/bugdash/pkg/model"
	"github.com/vanderheijden86/bugdash/pkg/tableview"
)

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// wizardAnswers are the string-typed form values, converted back into a
// Config by apply.
type wizardAnswers struct {
	pageSize  string
	theme     string
	role      string
	sort      string
	developer string
	tester    string
	paths     string
	watch     bool
}

func answersFrom(cfg Config) *wizardAnswers {
	return &wizardAnswers{
		pageSize:  strconv.Itoa(cfg.UI.PageSize),
		theme:     cfg.UI.Theme,
		role:      cfg.UI.DefaultRole,
		sort:      cfg.UI.DefaultSort,
		developer: cfg.Users.Developer,
		tester:    cfg.Users.Tester,
		paths:     strings.Join(cfg.Data.Paths, ", "),
		watch:     cfg.WatchEnabled(),
	}
}

// apply writes the answers onto cfg and validates the result.
func (a *wizardAnswers) apply(cfg *Config) error {
	n, err := strconv.Atoi(strings.TrimSpace(a.pageSize))
	if err != nil {
		return fmt.Errorf("%w: page size %q is not a number", ErrInvalid, a.pageSize)
	}
	cfg.UI.PageSize = n
	cfg.UI.Theme = a.theme
	cfg.UI.DefaultRole = a.role
	cfg.UI.DefaultSort = a.sort
	cfg.Users.Developer = strings.TrimSpace(a.developer)
	cfg.Users.Tester = strings.TrimSpace(a.tester)

	cfg.Data.Paths = nil
	for _, p := range strings.Split(a.paths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Data.Paths = append(cfg.Data.Paths, expandHome(p))
		}
	}
	watch := a.watch
	cfg.Watch.Enabled = &watch
	return cfg.Validate()
}

func validatePageSize(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a number")
	}
	if n < MinPageSize || n > MaxPageSize {
		return fmt.Errorf("must be between %d and %d", MinPageSize, MaxPageSize)
	}
	return nil
}

func validatePaths(s string) error {
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(expandHome(p)); err != nil {
			return fmt.Errorf("%s: not found", p)
		}
	}
	return nil
}

func (a *wizardAnswers) form() *huh.Form {
	roleOpts := make([]huh.Option[string], 0, len(model.AllRoles()))
	for _, r := range model.AllRoles() {
		roleOpts = append(roleOpts, huh.NewOption(r.Label()+" ("+r.Title()+")", string(r)))
	}
	sortOpts := make([]huh.Option[string], 0, len(tableview.SortPresets()))
	for _, p := range tableview.SortPresets() {
		sortOpts = append(sortOpts, huh.NewOption(p.Label, p.Key.String()))
	}

	return newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Start in which view?").
				Options(roleOpts...).
				Value(&a.role),
			huh.NewSelect[string]().
				Title("Default sort").
				Options(sortOpts...).
				Value(&a.sort),
			huh.NewInput().
				Title("Rows per page").
				Value(&a.pageSize).
				Validate(validatePageSize),
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Dark", ThemeDark),
					huh.NewOption("Light", ThemeLight),
				).
				Value(&a.theme),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Developer name").
				Description("\"My Assigned Bugs\" shows bugs assigned to this person").
				Value(&a.developer),
			huh.NewInput().
				Title("Tester name").
				Description("\"Bugs I Reported\" shows bugs reported by this person").
				Value(&a.tester),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Data files (comma separated, empty for sample data)").
				Value(&a.paths).
				Validate(validatePaths),
			huh.NewConfirm().
				Title("Reload when data files change?").
				Value(&a.watch),
		),
	)
}

// RunWizard interactively edits the config stored at path (created if
// missing) and saves it. Progress text goes to out.
func RunWizard(path string, out io.Writer) (Config, error) {
	cfg, err := LoadFrom(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "Existing config is invalid (%v); starting from defaults.\n", err)
		cfg = DefaultConfig()
	}

	fmt.Fprintln(out, "bugdash configuration")
	fmt.Fprintln(out, "─────────────────────")
	fmt.Fprintf(out, "Editing %s\n\n", path)

	answers := answersFrom(cfg)
	if err := answers.form().Run(); err != nil {
		return cfg, err
	}
	if err := answers.apply(&cfg); err != nil {
		return cfg, err
	}
	if err := SaveTo(cfg, path); err != nil {
		return cfg, err
	}

	fmt.Fprintf(out, "\nSaved %s\n", filepath.Clean(path))
	return cfg, nil
}
