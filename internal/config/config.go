package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"health-insights/internal/analysis"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `json:"database"`
	Cache    CacheConfig    `json:"cache"`
	Logging  LoggingConfig  `json:"logging"`
	Report   ReportConfig   `json:"report"`
	Analysis AnalysisConfig `json:"analysis"`
}

// DatabaseConfig locates the SQLite health database
type DatabaseConfig struct {
	Path string `json:"path"`
}

// CacheConfig holds the optional Redis read-through cache settings
type CacheConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
	TTL      string `json:"ttl"` // Go duration, e.g. "30m"
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json or console
}

// ReportConfig holds report output preferences
type ReportConfig struct {
	OutputDir       string `json:"output_dir"`
	Format          string `json:"format"` // markdown or terminal
	Period          string `json:"period"` // daily, weekly or monthly
	IncludeMetadata bool   `json:"include_metadata"`
}

// AnalysisConfig overrides selected analyzer thresholds
type AnalysisConfig struct {
	SleepMinHours      float64 `json:"sleep_min_hours"`
	SleepMaxHours      float64 `json:"sleep_max_hours"`
	StressBaselineDays int     `json:"stress_baseline_days"`
	RHRBaselineDays    int     `json:"rhr_baseline_days"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("invalid config")

// Environment variables read by ApplyEnv
const (
	EnvDBPath        = "HEALTH_DB_PATH"
	EnvRedisAddr     = "HEALTH_REDIS_ADDR"
	EnvRedisPassword = "HEALTH_REDIS_PASSWORD"
	EnvRedisDB       = "HEALTH_REDIS_DB"
	EnvCacheTTL      = "HEALTH_CACHE_TTL"
	EnvLogLevel      = "HEALTH_LOG_LEVEL"
	EnvLogFormat     = "HEALTH_LOG_FORMAT"
)

const configDirName = ".health-insights"

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	sleep := analysis.DefaultSleepConfig()
	stress := analysis.DefaultStressConfig()
	recovery := analysis.DefaultRecoveryConfig()

	return Config{
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  "30m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Report: ReportConfig{
			OutputDir:       "reports",
			Format:          "markdown",
			Period:          "weekly",
			IncludeMetadata: true,
		},
		Analysis: AnalysisConfig{
			SleepMinHours:      sleep.MinHours,
			SleepMaxHours:      sleep.MaxHours,
			StressBaselineDays: stress.BaselineDays,
			RHRBaselineDays:    recovery.BaselineDays,
		},
	}
}

// Load reads the configuration from ~/.health-insights/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path and applies defaults for
// missing values
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Cache.Addr == "" {
		c.Cache.Addr = defaults.Cache.Addr
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = defaults.Cache.TTL
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = defaults.Report.OutputDir
	}
	if c.Report.Format == "" {
		c.Report.Format = defaults.Report.Format
	}
	if c.Report.Period == "" {
		c.Report.Period = defaults.Report.Period
	}
	if c.Analysis.SleepMinHours == 0 {
		c.Analysis.SleepMinHours = defaults.Analysis.SleepMinHours
	}
	if c.Analysis.SleepMaxHours == 0 {
		c.Analysis.SleepMaxHours = defaults.Analysis.SleepMaxHours
	}
	if c.Analysis.StressBaselineDays == 0 {
		c.Analysis.StressBaselineDays = defaults.Analysis.StressBaselineDays
	}
	if c.Analysis.RHRBaselineDays == 0 {
		c.Analysis.RHRBaselineDays = defaults.Analysis.RHRBaselineDays
	}
}

// ApplyEnv loads envFile when it exists and overrides settings from
// HEALTH_* environment variables. Variables already set in the process
// environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.Addr = v
		c.Cache.Enabled = true
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Cache.Password = v
	}
	if v := os.Getenv(EnvRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvRedisDB, err)
		}
		c.Cache.DB = db
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		c.Cache.TTL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// Save writes the configuration to ~/.health-insights/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the configuration to path
func SaveFile(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	example.Database.Path = filepath.Join(dir, "health.db")

	return Save(&example)
}

// Validate checks that the config values are usable
func (c *Config) Validate() error {
	switch c.Report.Format {
	case "", "markdown", "terminal":
	default:
		return fmt.Errorf("%w: report.format must be \"markdown\" or \"terminal\", got %q", ErrInvalidConfig, c.Report.Format)
	}

	switch c.Report.Period {
	case "", "daily", "weekly", "monthly":
	default:
		return fmt.Errorf("%w: report.period must be daily, weekly or monthly, got %q", ErrInvalidConfig, c.Report.Period)
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: logging.format must be \"json\" or \"console\", got %q", ErrInvalidConfig, c.Logging.Format)
	}

	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return fmt.Errorf("%w: cache.addr is required when the cache is enabled", ErrInvalidConfig)
		}
		if _, err := c.CacheTTL(); err != nil {
			return fmt.Errorf("%w: cache.ttl: %v", ErrInvalidConfig, err)
		}
		if c.Cache.DB < 0 {
			return fmt.Errorf("%w: cache.db must not be negative", ErrInvalidConfig)
		}
	}

	// Validate sleep_min_hours < sleep_max_hours when both are set
	a := c.Analysis
	if a.SleepMinHours > 0 && a.SleepMaxHours > 0 && a.SleepMinHours >= a.SleepMaxHours {
		return fmt.Errorf("%w: analysis.sleep_min_hours (%v) must be less than analysis.sleep_max_hours (%v)",
			ErrInvalidConfig, a.SleepMinHours, a.SleepMaxHours)
	}
	if a.StressBaselineDays < 0 || a.RHRBaselineDays < 0 {
		return fmt.Errorf("%w: baseline windows must not be negative", ErrInvalidConfig)
	}

	return nil
}

// CacheTTL parses the cache TTL, falling back to 30 minutes when unset
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 30 * time.Minute, nil
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", c.Cache.TTL)
	}
	return ttl, nil
}

// AnalyzerConfigs returns the analyzer settings with this config's
// overrides applied
func (c *Config) AnalyzerConfigs() analysis.Configs {
	configs := analysis.DefaultConfigs()
	if c.Analysis.SleepMinHours > 0 {
		configs.Sleep.MinHours = c.Analysis.SleepMinHours
	}
	if c.Analysis.SleepMaxHours > 0 {
		configs.Sleep.MaxHours = c.Analysis.SleepMaxHours
	}
	if c.Analysis.StressBaselineDays > 0 {
		configs.Stress.BaselineDays = c.Analysis.StressBaselineDays
	}
	if c.Analysis.RHRBaselineDays > 0 {
		configs.Recovery.BaselineDays = c.Analysis.RHRBaselineDays
	}
	return configs
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}
