package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// AppName names the config directory and log file
const AppName = "fabric_tui"

// ItemGroup styles workspace items whose names match its patterns
type ItemGroup struct {
	// Name is the display name of this group
	Name string `yaml:"name"`

	// Color is the catppuccin color name (e.g., "red", "yellow", "green", "mauve")
	Color string `yaml:"color"`

	// Bold makes the text bold
	Bold bool `yaml:"bold"`

	// Patterns is a list of item name patterns that belong to this group (supports wildcards)
	Patterns []string `yaml:"patterns"`

	// Exclude if true, matching items are hidden from the item list
	Exclude bool `yaml:"exclude"`
}

// PollConfig controls background job polling
type PollConfig struct {
	// ActiveSeconds is the poll period while jobs are running
	ActiveSeconds int `yaml:"active_seconds"`

	// IdleSeconds is the poll period with no running jobs
	IdleSeconds int `yaml:"idle_seconds"`
}

// Config holds the application configuration
type Config struct {
	// Theme is the color theme to use (mocha, macchiato, frappe, latte)
	Theme string `yaml:"theme"`

	// Tool is the Fabric CLI binary
	Tool string `yaml:"tool"`

	// MaxRetries is how many times a failed read is retried
	MaxRetries int `yaml:"max_retries"`

	// RetryDelayMillis is the base backoff between retries
	RetryDelayMillis int `yaml:"retry_delay_ms"`

	// CacheTimeout is the result cache TTL in seconds; 0 disables caching
	CacheTimeout int `yaml:"cache_timeout"`

	// CommandTimeout bounds ordinary commands, in seconds
	CommandTimeout int `yaml:"command_timeout"`

	// RunTimeout bounds synchronous job runs, in seconds
	RunTimeout int `yaml:"run_timeout"`

	// HistorySize is the number of commands kept in history
	HistorySize int `yaml:"history_size"`

	// DebounceMillis coalesces repeated navigation fetches (200-500)
	DebounceMillis int `yaml:"debounce_ms"`

	// SpawnRate limits subprocess starts per second; 0 means unlimited
	SpawnRate float64 `yaml:"spawn_rate"`

	// SuccessPolicy is "strict" (exit 0 and empty stderr) or "exit_code"
	SuccessPolicy string `yaml:"success_policy"`

	// Poll controls background job polling
	Poll PollConfig `yaml:"poll"`

	// ItemGroups defines styling groups for items (checked in order, first match wins)
	ItemGroups []ItemGroup `yaml:"item_groups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Theme:            "mocha",
		Tool:             "fab",
		MaxRetries:       2,
		RetryDelayMillis: 1000,
		CacheTimeout:     0,
		CommandTimeout:   30,
		RunTimeout:       600,
		HistorySize:      50,
		DebounceMillis:   300,
		SpawnRate:        0,
		SuccessPolicy:    "strict",
		Poll: PollConfig{
			ActiveSeconds: 3,
			IdleSeconds:   10,
		},
		ItemGroups: []ItemGroup{
			{
				Name:     "notebook",
				Color:    "blue",
				Bold:     true,
				Patterns: []string{"*.Notebook"},
			},
			{
				Name:     "pipeline",
				Color:    "mauve",
				Bold:     true,
				Patterns: []string{"*.DataPipeline"},
			},
			{
				Name:     "spark",
				Color:    "peach",
				Bold:     true,
				Patterns: []string{"*.SparkJobDefinition"},
			},
			{
				Name:     "other",
				Color:    "overlay1",
				Patterns: []string{"*"},
			},
		},
	}
}

// Load reads the config from a YAML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) //nolint:gosec // config path from known locations
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	return cfg, nil
}

// Dir returns the per-user config directory
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".config", AppName)
}

// HistoryPath returns where command history is stored
func HistoryPath() string {
	return filepath.Join(Dir(), "history.yaml")
}

// LogPath returns where the log file is written
func LogPath() string {
	return filepath.Join(Dir(), AppName+".log")
}

// DefaultPath returns the config file LoadFromDefaultPath reads.
// When none exists it returns the per-user location.
func DefaultPath() string {
	// Check in order: current dir, per-user config dir
	paths := []string{
		"config.yaml",
		filepath.Join(Dir(), "config.yaml"),
	}

	for _, path := range paths {
		cleanPath := filepath.Clean(path)
		if _, err := os.Stat(cleanPath); err == nil {
			return cleanPath
		}
	}
	return paths[len(paths)-1]
}

// LoadFromDefaultPath attempts to load config from standard locations
func LoadFromDefaultPath() (*Config, error) {
	return Load(DefaultPath())
}

// normalize replaces out-of-range values with defaults
func (c *Config) normalize() {
	def := DefaultConfig()

	if strings.TrimSpace(c.Tool) == "" {
		c.Tool = def.Tool
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelayMillis < 0 {
		c.RetryDelayMillis = def.RetryDelayMillis
	}
	if c.CacheTimeout < 0 {
		c.CacheTimeout = 0
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = def.CommandTimeout
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = def.RunTimeout
	}
	if c.HistorySize <= 0 {
		c.HistorySize = def.HistorySize
	}
	c.DebounceMillis = max(200, min(c.DebounceMillis, 500))
	if c.SpawnRate < 0 {
		c.SpawnRate = 0
	}
	if c.SuccessPolicy != "exit_code" {
		c.SuccessPolicy = "strict"
	}
	if c.Poll.ActiveSeconds <= 0 {
		c.Poll.ActiveSeconds = def.Poll.ActiveSeconds
	}
	if c.Poll.IdleSeconds <= 0 {
		c.Poll.IdleSeconds = def.Poll.IdleSeconds
	}
}

// CacheTTL returns the result cache TTL
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTimeout) * time.Second
}

// CommandTimeoutDuration returns the ordinary command timeout
func (c *Config) CommandTimeoutDuration() time.Duration {
	return time.Duration(c.CommandTimeout) * time.Second
}

// RunTimeoutDuration returns the synchronous job run timeout
func (c *Config) RunTimeoutDuration() time.Duration {
	return time.Duration(c.RunTimeout) * time.Second
}

// RetryDelay returns the base retry backoff
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillis) * time.Millisecond
}

// Debounce returns the navigation debounce window
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// PollIntervals returns the active and idle poll periods
func (c *Config) PollIntervals() (active, idle time.Duration) {
	return time.Duration(c.Poll.ActiveSeconds) * time.Second, time.Duration(c.Poll.IdleSeconds) * time.Second
}

// GetItemGroup returns the first matching item group for a name, or nil
func (c *Config) GetItemGroup(name string) *ItemGroup {
	for i := range c.ItemGroups {
		group := &c.ItemGroups[i]
		if group.Matches(name) {
			return group
		}
	}
	return nil
}

// Matches returns true if the name matches this group
func (g *ItemGroup) Matches(name string) bool {
	for _, p := range g.Patterns {
		if matchPattern(p, name) {
			return true
		}
	}
	return false
}

// ShouldExclude returns true if the item should be hidden from the item list
func (c *Config) ShouldExclude(name string) bool {
	group := c.GetItemGroup(name)
	return group != nil && group.Exclude
}

// matchPattern matches an item name against a glob such as "*.Notebook"
// or "{etl,load}_*". An invalid pattern matches nothing.
func matchPattern(pattern, value string) bool {
	matched, err := doublestar.Match(pattern, value)
	if err != nil {
		return false
	}
	return matched
}
