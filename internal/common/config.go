package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // schedule.timezone must resolve on hosts without a zoneinfo database

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/poltrends/internal/models"
)

// DefaultConfigFile is looked up in the working directory and in deployments/local/.
const DefaultConfigFile = "poltrends.toml"

// DefaultTimeframe is used when neither the geography nor its registry file sets one.
const DefaultTimeframe = "today 3-m"

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Provider    ProviderConfig    `toml:"provider"`
	News        NewsConfig        `toml:"news"`
	Schedule    ScheduleConfig    `toml:"schedule"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Geographies []GeographyConfig `toml:"geographies" validate:"required,min=1,dive"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir" validate:"required"` // Root of raw/ and processed/ snapshot directories
}

type LoggingConfig struct {
	Level    string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output   []string `toml:"output" validate:"dive,oneof=stdout console file"`
	FileName string   `toml:"file_name"` // Used when output contains "file"; relative names go under ./logs
}

// ProviderConfig describes the search-trend provider boundary
type ProviderConfig struct {
	MaxEntitiesPerRequest int    `toml:"max_entities_per_request" validate:"gte=2"` // Provider cap per request (K)
	Pacing                string `toml:"pacing"`                                    // Courtesy delay between batch requests, e.g. "2s"; "0s" disables
}

type NewsConfig struct {
	WindowDays      int  `toml:"window_days" validate:"gte=0"`
	MaxPerSpike     int  `toml:"max_per_spike" validate:"gte=1"`
	SortByProximity bool `toml:"sort_by_proximity"` // Default keeps upstream feed order
}

// ScheduleConfig holds the cron expressions for the scheduler command
type ScheduleConfig struct {
	Daily    string `toml:"daily" validate:"required"`
	Weekly   string `toml:"weekly" validate:"required"`
	Timezone string `toml:"timezone"`
}

type MetricsConfig struct {
	Textfile string `toml:"textfile"` // node-exporter textfile path; empty disables metrics
}

// GeographyConfig is one tracked region and its entity registry.
// Entities come from EntitiesFile when set, otherwise from the inline list.
type GeographyConfig struct {
	Name         string          `toml:"name" validate:"required"`
	Geo          string          `toml:"geo"`
	Timeframe    string          `toml:"timeframe"`
	Subdir       string          `toml:"subdir"` // Sub-directory under raw/<date>/ and processed/<date>/; empty for the root
	EntitiesFile string          `toml:"entities_file"`
	Entities     []models.Entity `toml:"entities"`

	dir string
}

// EntitiesPath returns EntitiesFile resolved against the declaring config file's directory
func (g GeographyConfig) EntitiesPath() string {
	if g.EntitiesFile == "" || filepath.IsAbs(g.EntitiesFile) || g.dir == "" {
		return g.EntitiesFile
	}
	return filepath.Join(g.dir, g.EntitiesFile)
}

// Geography is a resolved geography with its immutable registry
type Geography struct {
	Name     string
	Subdir   string
	Registry *models.Registry
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   []string{"stdout"},
			FileName: "poltrends.log",
		},
		Provider: ProviderConfig{
			MaxEntitiesPerRequest: 5,
			Pacing:                "0s",
		},
		News: NewsConfig{
			WindowDays:  2,
			MaxPerSpike: 3,
		},
		Schedule: ScheduleConfig{
			Daily:    "30 6 * * *", // 06:30 every day
			Weekly:   "0 7 * * 1",  // 07:00 Monday
			Timezone: "Australia/Sydney",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards with ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}

		// Registry files are resolved relative to the config file that declared them.
		for g := range config.Geographies {
			if config.Geographies[g].dir == "" {
				config.Geographies[g].dir = filepath.Dir(path)
			}
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// FindConfigFile returns the first default config file that exists, or "".
func FindConfigFile() string {
	for _, candidate := range []string{
		DefaultConfigFile,
		filepath.Join("deployments", "local", DefaultConfigFile),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("POLTRENDS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if dataDir := os.Getenv("POLTRENDS_DATA_DIR"); dataDir != "" {
		config.Storage.DataDir = dataDir
	}

	// Logging configuration
	if level := os.Getenv("POLTRENDS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("POLTRENDS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if fileName := os.Getenv("POLTRENDS_LOG_FILE"); fileName != "" {
		config.Logging.FileName = fileName
	}

	// Provider configuration
	if maxEntities := os.Getenv("POLTRENDS_PROVIDER_MAX_ENTITIES"); maxEntities != "" {
		if k, err := strconv.Atoi(maxEntities); err == nil {
			config.Provider.MaxEntitiesPerRequest = k
		}
	}
	if pacing := os.Getenv("POLTRENDS_PROVIDER_PACING"); pacing != "" {
		config.Provider.Pacing = pacing
	}

	// News configuration
	if windowDays := os.Getenv("POLTRENDS_NEWS_WINDOW_DAYS"); windowDays != "" {
		if d, err := strconv.Atoi(windowDays); err == nil {
			config.News.WindowDays = d
		}
	}
	if maxPerSpike := os.Getenv("POLTRENDS_NEWS_MAX_PER_SPIKE"); maxPerSpike != "" {
		if m, err := strconv.Atoi(maxPerSpike); err == nil {
			config.News.MaxPerSpike = m
		}
	}
	if sortByProximity := os.Getenv("POLTRENDS_NEWS_SORT_BY_PROXIMITY"); sortByProximity != "" {
		if b, err := strconv.ParseBool(sortByProximity); err == nil {
			config.News.SortByProximity = b
		}
	}

	// Schedule configuration
	if daily := os.Getenv("POLTRENDS_SCHEDULE_DAILY"); daily != "" {
		config.Schedule.Daily = daily
	}
	if weekly := os.Getenv("POLTRENDS_SCHEDULE_WEEKLY"); weekly != "" {
		config.Schedule.Weekly = weekly
	}
	if tz := os.Getenv("POLTRENDS_SCHEDULE_TIMEZONE"); tz != "" {
		config.Schedule.Timezone = tz
	}

	// Metrics configuration
	if textfile := os.Getenv("POLTRENDS_METRICS_TEXTFILE"); textfile != "" {
		config.Metrics.Textfile = textfile
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, dataDir, logLevel string) {
	if dataDir != "" {
		config.Storage.DataDir = dataDir
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// Validate checks field constraints, schedules, pacing and geography uniqueness
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := c.PacingInterval(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if err := ValidateSchedule(c.Schedule.Daily); err != nil {
		return fmt.Errorf("schedule.daily: %w", err)
	}
	if err := ValidateSchedule(c.Schedule.Weekly); err != nil {
		return fmt.Errorf("schedule.weekly: %w", err)
	}

	names := make(map[string]bool, len(c.Geographies))
	subdirs := make(map[string]bool, len(c.Geographies))
	for _, g := range c.Geographies {
		if names[g.Name] {
			return fmt.Errorf("duplicate geography name %q", g.Name)
		}
		names[g.Name] = true
		if subdirs[g.Subdir] {
			return fmt.Errorf("geographies share subdir %q", g.Subdir)
		}
		subdirs[g.Subdir] = true
		if g.EntitiesFile == "" && len(g.Entities) == 0 {
			return fmt.Errorf("geography %q has neither entities_file nor entities", g.Name)
		}
	}
	return nil
}

// PacingInterval parses the provider pacing delay
func (c *Config) PacingInterval() (time.Duration, error) {
	if c.Provider.Pacing == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Provider.Pacing)
	if err != nil {
		return 0, fmt.Errorf("invalid provider.pacing %q: %w", c.Provider.Pacing, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("provider.pacing must not be negative, got %s", d)
	}
	return d, nil
}

// Location returns the scheduler time zone, UTC when unset
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// Registries resolves every configured geography into an immutable registry
func (c *Config) Registries() ([]Geography, error) {
	out := make([]Geography, 0, len(c.Geographies))
	for _, g := range c.Geographies {
		geo, timeframe, entities := g.Geo, g.Timeframe, g.Entities

		if g.EntitiesFile != "" {
			rf, err := models.LoadRegistryFile(g.EntitiesPath())
			if err != nil {
				return nil, fmt.Errorf("geography %q: %w", g.Name, err)
			}
			entities = rf.Entities
			if geo == "" {
				geo = rf.Geo
			}
			if timeframe == "" {
				timeframe = rf.Timeframe
			}
		}
		if timeframe == "" {
			timeframe = DefaultTimeframe
		}

		reg, err := models.NewRegistry(geo, timeframe, entities)
		if err != nil {
			return nil, fmt.Errorf("geography %q: %w", g.Name, err)
		}
		out = append(out, Geography{Name: g.Name, Subdir: g.Subdir, Registry: reg})
	}
	return out, nil
}

// ValidateSchedule validates a five-field cron expression
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
