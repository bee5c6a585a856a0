package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// StorageDSN selects the document backend: sqlite://, diskv://, postgres:// or memory://.
	// Empty means sqlite in the base directory.
	StorageDSN string `json:"storage_dsn,omitempty"`

	// TabsShownInitially is how many tabs a collapsed card lists.
	TabsShownInitially int `json:"tabs_shown_initially,omitempty"`

	// InternalURLPrefixes are url prefixes never shown in the sidebar or saved.
	InternalURLPrefixes []string `json:"internal_url_prefixes,omitempty"`

	// StatusDurationMS is how long a transient status message stays visible.
	StatusDurationMS int `json:"status_duration_ms,omitempty"`

	// BridgeTimeoutMS bounds a single call to the browser extension.
	BridgeTimeoutMS int `json:"bridge_timeout_ms,omitempty"`

	// Bind and Port are the web server listen address.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// AllowedOrigins are CORS origins allowed to call the JSON API and bridge.
	// The defaults cover chrome-extension:// and moz-extension:// origins.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.tabshelf/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "collection", "tab".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultInternalURLPrefixes lists browser-internal url schemes.
var DefaultInternalURLPrefixes = []string{"chrome://", "about:", "edge://", "chrome-extension://"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TabsShownInitially:  5,
		InternalURLPrefixes: append([]string(nil), DefaultInternalURLPrefixes...),
		StatusDurationMS:    3000,
		BridgeTimeoutMS:     5000,
		Bind:                "127.0.0.1",
		Port:                7717,
		AllowedOrigins:      []string{"chrome-extension://*", "moz-extension://*"},
	}
}

// StatusDuration returns StatusDurationMS as a duration.
func (c *Config) StatusDuration() time.Duration {
	return time.Duration(c.StatusDurationMS) * time.Millisecond
}

// BridgeTimeout returns BridgeTimeoutMS as a duration.
func (c *Config) BridgeTimeout() time.Duration {
	return time.Duration(c.BridgeTimeoutMS) * time.Millisecond
}

// IsInternalURL reports whether url is empty or carries an internal prefix.
func (c *Config) IsInternalURL(url string) bool {
	if url == "" {
		return true
	}
	for _, p := range c.InternalURLPrefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.tabshelf) and repo (.tabshelf) directories.
// Repo config is found by walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .tabshelf/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".tabshelf", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.StorageDSN = firstString(overlay.StorageDSN, base.StorageDSN)
	result.Bind = firstString(overlay.Bind, base.Bind)

	result.TabsShownInitially = firstInt(overlay.TabsShownInitially, base.TabsShownInitially)
	result.StatusDurationMS = firstInt(overlay.StatusDurationMS, base.StatusDurationMS)
	result.BridgeTimeoutMS = firstInt(overlay.BridgeTimeoutMS, base.BridgeTimeoutMS)
	result.Port = firstInt(overlay.Port, base.Port)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.InternalURLPrefixes = mergeStringSlice(base.InternalURLPrefixes, overlay.InternalURLPrefixes)
	result.AllowedOrigins = mergeStringSlice(base.AllowedOrigins, overlay.AllowedOrigins)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
