package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hpungsan/remind/internal/timeexpr"
)

// Config holds application configuration.
type Config struct {
	// Locale selects the display label format: "ko" (15:00(1월11일)) or "en" (15:00 (Jan 11)).
	Locale string `json:"locale,omitempty"`

	// SpeechLanguage is the BCP-47 language code sent to the speech recognizer.
	SpeechLanguage string `json:"speech_language,omitempty"`

	// SpeechCredentials is an optional service account file for the speech recognizer.
	// Empty means application default credentials.
	SpeechCredentials string `json:"speech_credentials,omitempty"`

	// SampleRate and BufferSize describe the 16-bit mono PCM recordings.
	SampleRate int `json:"sample_rate,omitempty"`
	BufferSize int `json:"buffer_size,omitempty"`

	// PMUntilHour is the last hour read as PM when an utterance has no AM/PM hint.
	// Pointer so that an explicit 0 (disable the heuristic) survives merging.
	PMUntilHour *int `json:"pm_until_hour,omitempty"`

	// DefaultHour is used when no time of day is mentioned. -1 keeps now's hour and minute.
	DefaultHour *int `json:"default_hour,omitempty"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.remind/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	p := timeexpr.DefaultPolicy()
	return &Config{
		Locale:         string(timeexpr.LocaleKorean),
		SpeechLanguage: "ko-KR",
		SampleRate:     16000,
		BufferSize:     1024,
		PMUntilHour:    intPtr(p.PMUntil),
		DefaultHour:    intPtr(p.DefaultHour),
		LogLevel:       "info",
	}
}

func intPtr(n int) *int { return &n }

// Policy returns the resolver policy described by the config.
func (c *Config) Policy() timeexpr.Policy {
	p := timeexpr.DefaultPolicy()
	if c.PMUntilHour != nil {
		p.PMUntil = *c.PMUntilHour
	}
	if c.DefaultHour != nil {
		p.DefaultHour = *c.DefaultHour
	}
	return p
}

// DisplayLocale returns the configured locale, falling back to Korean.
func (c *Config) DisplayLocale() timeexpr.Locale {
	l := timeexpr.Locale(c.Locale)
	if !timeexpr.ValidLocale(l) {
		return timeexpr.LocaleKorean
	}
	return l
}

// Validate checks value ranges that would otherwise surface as odd resolutions.
func (c *Config) Validate() error {
	if c.Locale != "" && !timeexpr.ValidLocale(timeexpr.Locale(c.Locale)) {
		return fmt.Errorf("locale %q: want ko or en", c.Locale)
	}
	if c.PMUntilHour != nil && (*c.PMUntilHour < 0 || *c.PMUntilHour > 11) {
		return fmt.Errorf("pm_until_hour %d: want 0..11", *c.PMUntilHour)
	}
	if c.DefaultHour != nil && (*c.DefaultHour < -1 || *c.DefaultHour > 23) {
		return fmt.Errorf("default_hour %d: want -1..23", *c.DefaultHour)
	}
	if c.SampleRate < 0 || c.BufferSize < 0 {
		return errors.New("sample_rate and buffer_size must not be negative")
	}
	return nil
}

// Load loads configuration from baseDir/config.json, then applies baseDir/.env
// and REMIND_* environment overrides.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.remind.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	if err := LoadEnvFile(baseDir); err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadWithRepo loads configuration from both global (~/.remind) and repo (.remind) directories.
// Repo config is found by walking upward from startDir to find the nearest .remind/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing. Environment overrides apply last.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	if err := LoadEnvFile(globalDir); err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// FindRepoConfig walks upward from startDir to find the nearest .remind/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".remind", "config.json")
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

// LoadEnvFile loads baseDir/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(baseDir string) error {
	path := filepath.Join(baseDir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with REMIND_* environment variables.
func ApplyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	optNum := func(key string, dst **int) error {
		n := 0
		if *dst != nil {
			n = **dst
		}
		if err := num(key, &n); err != nil {
			return err
		}
		if _, ok := os.LookupEnv(key); ok {
			*dst = &n
		}
		return nil
	}

	str("REMIND_LOCALE", &cfg.Locale)
	str("REMIND_SPEECH_LANGUAGE", &cfg.SpeechLanguage)
	str("REMIND_SPEECH_CREDENTIALS", &cfg.SpeechCredentials)
	str("REMIND_LOG_LEVEL", &cfg.LogLevel)
	if err := num("REMIND_SAMPLE_RATE", &cfg.SampleRate); err != nil {
		return err
	}
	if err := num("REMIND_BUFFER_SIZE", &cfg.BufferSize); err != nil {
		return err
	}
	if err := optNum("REMIND_PM_UNTIL_HOUR", &cfg.PMUntilHour); err != nil {
		return err
	}
	return optNum("REMIND_DEFAULT_HOUR", &cfg.DefaultHour)
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
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

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
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

	// Scalars: overlay wins if non-zero, else base
	result.Locale = firstString(overlay.Locale, base.Locale)
	result.SpeechLanguage = firstString(overlay.SpeechLanguage, base.SpeechLanguage)
	result.SpeechCredentials = firstString(overlay.SpeechCredentials, base.SpeechCredentials)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.SampleRate = firstInt(overlay.SampleRate, base.SampleRate)
	result.BufferSize = firstInt(overlay.BufferSize, base.BufferSize)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Optional ints: overlay wins if set, even to zero
	result.PMUntilHour = base.PMUntilHour
	if overlay.PMUntilHour != nil {
		result.PMUntilHour = overlay.PMUntilHour
	}
	result.DefaultHour = base.DefaultHour
	if overlay.DefaultHour != nil {
		result.DefaultHour = overlay.DefaultHour
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

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

	for _, s := range append(append([]string(nil), a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
