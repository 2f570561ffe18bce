package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/dshills/covdiff/internal/diff"
	"github.com/joho/godotenv"
)

// Config represents the covdiff configuration.
type Config struct {
	RunCommand         string          `json:"runCommand"`
	AfterSwitchCommand string          `json:"afterSwitchCommand,omitempty"`
	SummaryPath        string          `json:"summaryPath"`
	FullCoverageDiff   bool            `json:"fullCoverageDiff"`
	UseSameComment     bool            `json:"useSameComment"`
	Format             string          `json:"format"`
	Thresholds         diff.Thresholds `json:"thresholds"`
	GitHub             GitHubConfig    `json:"github"`
	Log                LogConfig       `json:"log"`
	Cache              CacheConfig     `json:"cache"`
}

// GitHubConfig holds pull request context. Most of it comes from the Actions
// runner environment.
type GitHubConfig struct {
	Token      string `json:"-"`
	APIURL     string `json:"apiUrl,omitempty"`
	Repository string `json:"repository,omitempty"`
	EventPath  string `json:"-"`
	SHA        string `json:"-"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// CacheConfig controls caching of base-branch coverage summaries.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// Formats lists the supported output formats.
var Formats = []string{"markdown", "text", "json"}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		RunCommand:  "npx jest --coverage --coverageReporters=json-summary --coverageDirectory=.",
		SummaryPath: "coverage-summary.json",
		Format:      "markdown",
		Thresholds: diff.Thresholds{
			Delta: 50,
		},
		GitHub: GitHubConfig{
			APIURL: "https://api.github.com",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			TTLSeconds: 86400,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for covdiff.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "covdiff"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "covdiff"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "covdiff"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "covdiff"), nil
	default:
		return filepath.Join(home, ".config", "covdiff"), nil
	}
}

// ConfigPath returns path if set, otherwise the default config file path.
func ConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile returns the defaults overlaid with the config file at path (or the
// default location). A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	path, err := ConfigPath(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	// Unmarshal over the defaults so keys absent from the file keep them.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path (or the default location).
func Save(cfg Config, path string) error {
	path, err := ConfigPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// A .env file in the working directory is loaded into the environment first.
// The overrides map comes from CLI flags (only explicitly set flags).
func Load(path string, overrides map[string]string) (Config, error) {
	// Optional; a missing .env is fine.
	_ = godotenv.Load(".env")

	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if !isFormat(c.Format) {
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}
	if c.SummaryPath == "" {
		return fmt.Errorf("summaryPath is required")
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache ttlSeconds must not be negative, got %d", c.Cache.TTLSeconds)
	}
	return nil
}

func isFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// envKeys maps config keys to environment variables, most specific first.
// INPUT_* names are how the Actions runner exposes `with:` inputs.
var envKeys = []struct {
	key  string
	vars []string
}{
	{"runCommand", []string{"COVDIFF_RUN_COMMAND", "INPUT_RUNCOMMAND"}},
	{"afterSwitchCommand", []string{"COVDIFF_AFTER_SWITCH_COMMAND", "INPUT_AFTERSWITCHCOMMAND"}},
	{"summaryPath", []string{"COVDIFF_SUMMARY_PATH", "INPUT_SUMMARYPATH"}},
	{"fullCoverageDiff", []string{"COVDIFF_FULL_COVERAGE_DIFF", "INPUT_FULLCOVERAGEDIFF"}},
	{"useSameComment", []string{"COVDIFF_USE_SAME_COMMENT", "INPUT_USESAMECOMMENT"}},
	{"delta", []string{"COVDIFF_DELTA", "INPUT_DELTA"}},
	{"totalDelta", []string{"COVDIFF_TOTAL_DELTA", "INPUT_TOTAL_DELTA"}},
	{"minCoverage", []string{"COVDIFF_MIN_COVERAGE", "INPUT_MINCOVERAGE"}},
	{"minIncrease", []string{"COVDIFF_MIN_INCREASE", "INPUT_MININCREASE"}},
	{"format", []string{"COVDIFF_FORMAT"}},
	{"logLevel", []string{"COVDIFF_LOG_LEVEL"}},
	{"logFormat", []string{"COVDIFF_LOG_FORMAT"}},
	{"cacheEnabled", []string{"COVDIFF_CACHE_ENABLED"}},
	{"cacheDir", []string{"COVDIFF_CACHE_DIR"}},
	{"cacheTtlSeconds", []string{"COVDIFF_CACHE_TTL_SECONDS"}},
	{"apiUrl", []string{"GITHUB_API_URL"}},
	{"repository", []string{"GITHUB_REPOSITORY"}},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v, ok := lookupEnv(e.vars...)
		if !ok {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("environment %s: %w", strings.Join(e.vars, "/"), err)
		}
	}
	if v, ok := lookupEnv("COVDIFF_GITHUB_TOKEN", "INPUT_ACCESSTOKEN", "GITHUB_TOKEN"); ok {
		cfg.GitHub.Token = v
	}
	if v, ok := lookupEnv("GITHUB_EVENT_PATH"); ok {
		cfg.GitHub.EventPath = v
	}
	if v, ok := lookupEnv("GITHUB_SHA"); ok {
		cfg.GitHub.SHA = v
	}
	return nil
}

// lookupEnv returns the first non-empty variable among keys.
func lookupEnv(keys ...string) (string, bool) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v, true
		}
	}
	return "", false
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for k, v := range overrides {
		if err := SetField(cfg, k, v); err != nil {
			return err
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "runCommand":
		cfg.RunCommand = value
	case "afterSwitchCommand":
		cfg.AfterSwitchCommand = value
	case "summaryPath":
		cfg.SummaryPath = value
	case "format":
		cfg.Format = value
	case "logLevel":
		cfg.Log.Level = value
	case "logFormat":
		cfg.Log.Format = value
	case "cacheDir":
		cfg.Cache.Dir = value
	case "apiUrl":
		cfg.GitHub.APIURL = strings.TrimRight(value, "/")
	case "repository":
		cfg.GitHub.Repository = value
	case "fullCoverageDiff", "useSameComment", "cacheEnabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", key, err)
		}
		switch key {
		case "fullCoverageDiff":
			cfg.FullCoverageDiff = b
		case "useSameComment":
			cfg.UseSameComment = b
		default:
			cfg.Cache.Enabled = b
		}
	case "delta", "minCoverage", "minIncrease":
		f, err := parseNumber(value)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
		switch key {
		case "delta":
			cfg.Thresholds.Delta = f
		case "minCoverage":
			cfg.Thresholds.MinCoverage = f
		default:
			cfg.Thresholds.MinIncrease = f
		}
	case "totalDelta":
		// An empty value clears the aggregate tolerance.
		if strings.TrimSpace(value) == "" {
			cfg.Thresholds.TotalDelta = nil
			return nil
		}
		f, err := parseNumber(value)
		if err != nil {
			return fmt.Errorf("totalDelta must be a number: %w", err)
		}
		cfg.Thresholds.TotalDelta = &f
	case "cacheTtlSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cacheTtlSeconds must be an integer: %w", err)
		}
		cfg.Cache.TTLSeconds = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func parseNumber(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not finite", value)
	}
	return f, nil
}

// OwnerRepo splits the "owner/repo" repository setting.
func (g GitHubConfig) OwnerRepo() (owner, repo string, ok bool) {
	owner, repo, ok = strings.Cut(g.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}
