// Package config loads flattree settings from .flattree/config.yaml and
// discovers outline files in a project.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StateDirName is the default per-project state directory.
const StateDirName = ".flattree"

// ConfigFileName is the config file inside the state directory.
const ConfigFileName = "config.yaml"

// Config represents a flattree configuration file (.flattree/config.yaml)
type Config struct {
	// Files lists outline files to open, relative to the project root.
	// When empty, outlines are discovered.
	Files []string `yaml:"files,omitempty" json:"files,omitempty"`

	Tree      TreeConfig      `yaml:"tree,omitempty" json:"tree,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty" json:"search,omitempty"`
	State     StateConfig     `yaml:"state,omitempty" json:"state,omitempty"`
	Watch     WatchConfig     `yaml:"watch,omitempty" json:"watch,omitempty"`
	Discovery DiscoveryConfig `yaml:"discovery,omitempty" json:"discovery,omitempty"`
}

// TreeConfig controls the initial tree view
type TreeConfig struct {
	// ExpandDepth expands nodes shallower than this depth on first open
	// (default: 2)
	ExpandDepth int `yaml:"expand_depth,omitempty" json:"expand_depth,omitempty"`

	// Sort orders each sibling level, first key first. Empty keeps file order.
	Sort []SortSpec `yaml:"sort,omitempty" json:"sort,omitempty"`
}

// SortSpec is one sort key
type SortSpec struct {
	Field     string `yaml:"field" json:"field"`
	Direction string `yaml:"direction,omitempty" json:"direction,omitempty"`
}

// Sort fields understood by the UI and CLI.
const (
	SortName     = "name"
	SortNatural  = "natural"
	SortID       = "id"
	SortPriority = "priority"
	SortKind     = "kind"
	SortCreated  = "created"
)

// SortFields lists every valid sort field, in picker order.
func SortFields() []string {
	return []string{SortNatural, SortName, SortPriority, SortKind, SortCreated, SortID}
}

// Ascending reports the key direction (default ascending).
func (s SortSpec) Ascending() bool {
	return !strings.EqualFold(s.Direction, "desc")
}

// String renders the spec as "field:dir".
func (s SortSpec) String() string {
	if s.Ascending() {
		return s.Field + ":asc"
	}
	return s.Field + ":desc"
}

// ParseSortSpecs parses "priority:desc,natural" as used by --sort.
func ParseSortSpecs(s string) ([]SortSpec, error) {
	var specs []SortSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		spec := SortSpec{Field: strings.ToLower(field), Direction: strings.ToLower(dir)}
		if err := spec.validate(); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (s SortSpec) validate() error {
	valid := false
	for _, f := range SortFields() {
		if s.Field == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown sort field %q (want one of %s)", s.Field, strings.Join(SortFields(), ", "))
	}
	switch s.Direction {
	case "", "asc", "desc":
		return nil
	}
	return fmt.Errorf("sort field %q: direction must be asc or desc, got %q", s.Field, s.Direction)
}

// SearchConfig controls how search matches names
type SearchConfig struct {
	// Mode is "substring" (default) or "fuzzy"
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// Search modes.
const (
	SearchSubstring = "substring"
	SearchFuzzy     = "fuzzy"
)

// StateConfig controls where per-project state is kept
type StateConfig struct {
	// Dir is the state directory relative to the project root (default: .flattree)
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	// Gitignore adds the state directory to .gitignore (default: true)
	Gitignore *bool `yaml:"gitignore,omitempty" json:"gitignore,omitempty"`
}

// ShouldGitignore returns whether the state directory is added to .gitignore
func (s StateConfig) ShouldGitignore() bool {
	if s.Gitignore == nil {
		return true
	}
	return *s.Gitignore
}

// WatchConfig controls live reloading
type WatchConfig struct {
	Enabled bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// Debounce is how long writes must settle before reloading (default: 200ms)
	Debounce time.Duration `yaml:"debounce,omitempty" json:"debounce,omitempty"`
}

// DiscoveryConfig controls the search for outline files
type DiscoveryConfig struct {
	// MaxDepth limits directory traversal depth (default: 3)
	MaxDepth int `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`

	// Exclude lists directory names to skip
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// DefaultExcludes returns directory names skipped during discovery
func DefaultExcludes() []string {
	return []string{"node_modules", "vendor", "dist", "build", "target"}
}

// Default returns the configuration used when no file exists
func Default() Config {
	return Config{
		Tree:      TreeConfig{ExpandDepth: 2},
		Search:    SearchConfig{Mode: SearchSubstring},
		State:     StateConfig{Dir: StateDirName},
		Watch:     WatchConfig{Debounce: 200 * time.Millisecond},
		Discovery: DiscoveryConfig{MaxDepth: 3, Exclude: DefaultExcludes()},
	}
}

// applyDefaults fills zero values from Default.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Tree.ExpandDepth == 0 {
		c.Tree.ExpandDepth = def.Tree.ExpandDepth
	}
	if c.Search.Mode == "" {
		c.Search.Mode = def.Search.Mode
	}
	if c.State.Dir == "" {
		c.State.Dir = def.State.Dir
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = def.Watch.Debounce
	}
	if c.Discovery.MaxDepth == 0 {
		c.Discovery.MaxDepth = def.Discovery.MaxDepth
	}
	if c.Discovery.Exclude == nil {
		c.Discovery.Exclude = def.Discovery.Exclude
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Tree.ExpandDepth < 0 {
		return fmt.Errorf("tree.expand_depth must not be negative, got %d", c.Tree.ExpandDepth)
	}
	for i, s := range c.Tree.Sort {
		if err := s.validate(); err != nil {
			return fmt.Errorf("tree.sort[%d]: %w", i, err)
		}
	}
	switch c.Search.Mode {
	case SearchSubstring, SearchFuzzy:
	default:
		return fmt.Errorf("search.mode must be %q or %q, got %q", SearchSubstring, SearchFuzzy, c.Search.Mode)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if filepath.IsAbs(c.State.Dir) {
		return fmt.Errorf("state.dir must be relative to the project root, got %q", c.State.Dir)
	}
	return nil
}

// Load reads a configuration file, applies defaults and validates it
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when it does not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		def := Default()
		return &def, nil
	}
	return cfg, err
}

// Save writes the configuration as YAML, creating parent directories
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// StateDir returns the absolute state directory for a project root
func (c *Config) StateDir(projectRoot string) string {
	dir := c.State.Dir
	if dir == "" {
		dir = StateDirName
	}
	return filepath.Join(projectRoot, dir)
}
