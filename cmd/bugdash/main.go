package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vanderheijden86/bugdash/internal/datasource"
	"github.com/vanderheijden86/bugdash/pkg/config"
	"github.com/vanderheijden86/bugdash/pkg/debug"
	"github.com/vanderheijden86/bugdash/pkg/export"
	"github.com/vanderheijden86/bugdash/pkg/loader"
	"github.com/vanderheijden86/bugdash/pkg/metrics"
	"github.com/vanderheijden86/bugdash/pkg/model"
	"github.com/vanderheijden86/bugdash/pkg/tableview"
	"github.com/vanderheijden86/bugdash/pkg/ui"
	"github.com/vanderheijden86/bugdash/pkg/version"
	"github.com/vanderheijden86/bugdash/pkg/watcher"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	configPath string
	role       string
	theme      string
	sort       string
	pageSize   int
	search     string
	status     string
	severity   string
	exportMD   string
	configure  bool
	noWatch    bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(opts *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("bugdash", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Config file (default: $BUGDASH_CONFIG or ~/.config/bugdash/config.yaml)")
	fs.StringVar(&opts.role, "role", "", "Start in this role view: developer, tester or manager")
	fs.StringVar(&opts.theme, "theme", "", "Color theme: dark or light")
	fs.StringVar(&opts.sort, "sort", "", "Sort as column[:asc|desc], e.g. severity:desc")
	fs.IntVar(&opts.pageSize, "page-size", 0, "Rows per page (1-100)")
	fs.StringVar(&opts.search, "search", "", "Initial search text")
	fs.StringVar(&opts.status, "status", tableview.All, "Initial status filter")
	fs.StringVar(&opts.severity, "severity", tableview.All, "Initial severity filter")
	fs.StringVar(&opts.exportMD, "export-md", "", "Write the filtered view as Markdown to `file` and exit")
	fs.BoolVar(&opts.configure, "configure", false, "Run the interactive config wizard and exit")
	fs.BoolVar(&opts.noWatch, "no-watch", false, "Disable live reload")
	fs.BoolVar(&opts.version, "version", false, "Show version")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: bugdash [options] [data files...]")
		fmt.Fprintln(stderr, "\nA terminal dashboard for bug reports. Data files may be JSON, JSONL, YAML or SQLite.")
		fmt.Fprintln(stderr, "\nOptions:")
		fs.PrintDefaults()
	}
	return fs
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.version {
		fmt.Fprintln(stdout, version.String())
		return exitOK
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	if opts.configure {
		if cfgPath == "" {
			fmt.Fprintln(stderr, "Error: cannot determine config path; set BUGDASH_CONFIG")
			return exitError
		}
		if _, err := config.RunWizard(cfgPath, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		return exitOK
	}

	cfg, err := resolveConfig(cfgPath, &opts, fs, os.Getenv)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	query, err := buildQuery(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	// Records at warn and above also reach the status bar once the
	// program is running.
	status := ui.NewStatusCore(zapcore.WarnLevel)
	logger, cleanup, err := debug.Setup(debug.Options{Extra: []zapcore.Core{status}})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer cleanup()
	defer metrics.LogSummary(logger)

	paths := fs.Args()
	if len(paths) == 0 {
		paths = cfg.Data.Paths
	}

	res, err := datasource.LoadAll(context.Background(), paths, loader.ParseOptions{
		WarningHandler: func(msg string) {
			fmt.Fprintf(stderr, "Warning: %s\n", msg)
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error loading bugs: %v\n", err)
		return exitError
	}
	logger.Debug("data loaded",
		zap.Int("bugs", len(res.Bugs)),
		zap.Int("sources", len(res.Sources)),
		zap.Int("duplicates", len(res.Duplicates)))

	if opts.exportMD != "" {
		if err := exportView(res.Bugs, cfg, query, opts.exportMD); err != nil {
			fmt.Fprintf(stderr, "Error exporting: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stdout, "Exported to %s\n", opts.exportMD)
		return exitOK
	}

	modelOpts := []ui.Option{
		ui.WithConfig(cfg),
		ui.WithQuery(query),
		ui.WithLogger(logger),
	}
	if len(paths) > 0 && cfg.WatchEnabled() {
		w, err := watcher.NewWatcher(paths,
			watcher.WithDebounceDuration(cfg.DebounceDuration()),
			watcher.WithLogger(logger.With(zap.String("component", "watcher"))),
			watcher.WithOnError(func(err error) {
				logger.Warn("watch error", zap.Error(err))
			}),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			// Live reload is optional; the dashboard still works without it.
			fmt.Fprintf(stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer w.Stop()
			modelOpts = append(modelOpts, ui.WithWatcher(w), ui.WithSources(paths))
		}
	}

	m := ui.NewModel(res.Bugs, modelOpts...)
	if err := runTUIProgram(m, status); err != nil {
		fmt.Fprintf(stderr, "Error running bugdash: %v\n", err)
		return exitError
	}
	return exitOK
}

// resolveConfig layers the config file, BUGDASH_* variables and the flags
// that were set explicitly, then validates the result.
func resolveConfig(path string, opts *options, fs *pflag.FlagSet, getenv func(string) string) (config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadFrom(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return cfg, err
	}

	if fs.Changed("role") {
		cfg.UI.DefaultRole = opts.role
	}
	if fs.Changed("theme") {
		cfg.UI.Theme = opts.theme
	}
	if fs.Changed("sort") {
		cfg.UI.DefaultSort = opts.sort
	}
	if fs.Changed("page-size") {
		cfg.UI.PageSize = opts.pageSize
	}
	if opts.noWatch {
		off := false
		cfg.Watch.Enabled = &off
	}
	return cfg, cfg.Validate()
}

// buildQuery checks the categorical filter flags against the known values.
func buildQuery(opts options) (tableview.Query, error) {
	q := tableview.Query{Search: opts.search, Status: opts.status, Severity: opts.severity}
	if q.Status == "" {
		q.Status = tableview.All
	}
	if q.Severity == "" {
		q.Severity = tableview.All
	}
	if q.Status != tableview.All && !model.Status(q.Status).IsValid() {
		return q, fmt.Errorf("unknown status %q", q.Status)
	}
	if q.Severity != tableview.All && !model.Severity(q.Severity).IsValid() {
		return q, fmt.Errorf("unknown severity %q", q.Severity)
	}
	return q, nil
}

// exportView writes what the dashboard would show for cfg and q: the
// role's scope, filtered and sorted, across every page.
func exportView(bugs []model.Bug, cfg config.Config, q tableview.Query, path string) error {
	role, users := cfg.Role(), cfg.ScopeUsers()
	tbl := tableview.New(
		bugs,
		tableview.WithPredicate(func(b *model.Bug) bool { return role.InScope(b, users) }),
		tableview.WithQuery(q),
		tableview.WithSort(cfg.Sort()),
	)
	if err := tbl.Err(); err != nil {
		return err
	}
	rows := tbl.Filtered()
	out := make([]model.Bug, len(rows))
	for i, b := range rows {
		out[i] = *b
	}
	return export.SaveMarkdownToFile(out, role.Title(), path)
}

func runTUIProgram(m ui.Model, status *ui.StatusCore) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)
	status.SetProgram(p)
	defer status.SetProgram(nil)

	runDone := make(chan struct{})
	defer close(runDone)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set BUGDASH_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("BUGDASH_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
