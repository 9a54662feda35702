// Package config handles loading and saving bugdash configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/bugdash/config.yaml
//   - State:   ~/.local/state/bugdash/ (debug log)
//
// Precedence is file < environment (BUGDASH_*) < command-line flags; the
// flag layer lives in cmd/bugdash.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/bugdash/pkg/model"
	"github.com/vanderheijden86/bugdash/pkg/tableview"
)

// Theme names.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Page size bounds enforced by Validate.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// UIConfig holds UI preference settings.
type UIConfig struct {
	PageSize    int    `yaml:"page_size,omitempty"`
	Theme       string `yaml:"theme,omitempty"`        // dark, light
	DefaultRole string `yaml:"default_role,omitempty"` // developer, tester, manager
	DefaultSort string `yaml:"default_sort,omitempty"` // column[:asc|desc], e.g. date:desc
}

// UsersConfig names the people the role views are scoped to.
type UsersConfig struct {
	Developer string `yaml:"developer,omitempty"`
	Tester    string `yaml:"tester,omitempty"`
}

// DataConfig lists the bug sources loaded when none are given on the
// command line. Empty means the embedded sample data.
type DataConfig struct {
	Paths []string `yaml:"paths,omitempty"`
}

// WatchConfig controls live reload.
type WatchConfig struct {
	Enabled    *bool `yaml:"enabled,omitempty"`
	DebounceMS int   `yaml:"debounce_ms,omitempty"`
}

// Config is the top-level configuration for bugdash.
type Config struct {
	UI    UIConfig    `yaml:"ui,omitempty"`
	Users UsersConfig `yaml:"users,omitempty"`
	Data  DataConfig  `yaml:"data,omitempty"`
	Watch WatchConfig `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			PageSize:    tableview.DefaultPageSize,
			Theme:       ThemeDark,
			DefaultRole: string(model.RoleDeveloper),
			DefaultSort: "none",
		},
		Users: UsersConfig{
			Developer: "John Doe",
			Tester:    "Jane Smith",
		},
		Watch: WatchConfig{
			DebounceMS: 200,
		},
	}
}

// ConfigDir returns the XDG config directory for bugdash.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "bugdash")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "bugdash")
}

// ConfigPath returns the full path to config.yaml. BUGDASH_CONFIG
// overrides it.
func ConfigPath() string {
	if p := os.Getenv("BUGDASH_CONFIG"); p != "" {
		return expandHome(p)
	}
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist. Keys missing from the
// file keep their defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Data.Paths {
		cfg.Data.Paths[i] = expandHome(cfg.Data.Paths[i])
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overlays BUGDASH_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("BUGDASH_ROLE"); v != "" {
		c.UI.DefaultRole = v
	}
	if v := getenv("BUGDASH_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := getenv("BUGDASH_SORT"); v != "" {
		c.UI.DefaultSort = v
	}
	if v := getenv("BUGDASH_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BUGDASH_PAGE_SIZE: %w", err)
		}
		c.UI.PageSize = n
	}
	if v := getenv("BUGDASH_DATA"); v != "" {
		c.Data.Paths = nil
		for _, p := range filepath.SplitList(v) {
			if p = strings.TrimSpace(p); p != "" {
				c.Data.Paths = append(c.Data.Paths, expandHome(p))
			}
		}
	}
	if v := getenv("BUGDASH_WATCH"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BUGDASH_WATCH: %w", err)
		}
		c.Watch.Enabled = &on
	}
	return nil
}

// Validate normalizes c in place. Out-of-range page sizes are clamped;
// unknown themes, roles and sort keys are errors wrapping ErrInvalid.
func (c *Config) Validate() error {
	switch {
	case c.UI.PageSize < MinPageSize:
		c.UI.PageSize = MinPageSize
	case c.UI.PageSize > MaxPageSize:
		c.UI.PageSize = MaxPageSize
	}

	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	switch c.UI.Theme {
	case "":
		c.UI.Theme = ThemeDark
	case ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("%w: unknown theme %q (want dark or light)", ErrInvalid, c.UI.Theme)
	}

	if c.UI.DefaultRole == "" {
		c.UI.DefaultRole = string(model.RoleDeveloper)
	}
	role, err := model.ParseRole(c.UI.DefaultRole)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	c.UI.DefaultRole = string(role)

	if c.UI.DefaultSort == "" {
		c.UI.DefaultSort = "none"
	}
	if _, err := tableview.ParseSortKey(c.UI.DefaultSort); err != nil {
		return fmt.Errorf("%w: default_sort: %v", ErrInvalid, err)
	}

	if c.Watch.DebounceMS < 0 {
		c.Watch.DebounceMS = 0
	}
	return nil
}

// Role returns the configured start role, falling back to developer.
func (c Config) Role() model.Role {
	r, err := model.ParseRole(c.UI.DefaultRole)
	if err != nil {
		return model.RoleDeveloper
	}
	return r
}

// Sort returns the configured start sort, falling back to no sort.
func (c Config) Sort() tableview.SortKey {
	k, err := tableview.ParseSortKey(c.UI.DefaultSort)
	if err != nil {
		return tableview.SortKey{}
	}
	return k
}

// ScopeUsers returns the users the role views filter on.
func (c Config) ScopeUsers() model.Users {
	return model.Users{Developer: c.Users.Developer, Tester: c.Users.Tester}
}

// WatchEnabled reports whether live reload is on (default true).
func (c Config) WatchEnabled() bool {
	return c.Watch.Enabled == nil || *c.Watch.Enabled
}

// DebounceDuration returns the watch debounce as a duration.
func (c Config) DebounceDuration() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
