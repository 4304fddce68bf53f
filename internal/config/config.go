// Package config loads application configuration from environment variables
// and an optional YAML file. There are no package-level mutable settings;
// the loaded Config is passed explicitly into the orchestrator and server.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"practicepulse/internal/calendar"
	"practicepulse/internal/pipeline"
	"practicepulse/internal/source"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig   `yaml:"pipeline" envconfig:"PIPELINE"`
	Source    SourceConfig     `yaml:"source" envconfig:"SOURCE"`
	Locations []LocationConfig `yaml:"locations" validate:"required,min=1,dive"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains request rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/practicepulse.log"`
}

// PipelineConfig tunes the KPI pipeline itself.
type PipelineConfig struct {
	// FetchTimeout bounds one location's fetch-and-compute pass; a slow
	// alias degrades to an unavailable response instead of stalling the rest.
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"10s"`

	// HistoryDays is how far back chart series reach.
	HistoryDays int `yaml:"history_days" envconfig:"HISTORY_DAYS" default:"90"`

	// TrendDeadband is the relative deadband for trend classification.
	TrendDeadband float64 `yaml:"trend_deadband" envconfig:"TREND_DEADBAND" default:"0.05"`

	// BusinessDaysOnly excludes closed-day rows from transformation and
	// closed-day points from weekly/monthly rollups.
	BusinessDaysOnly bool `yaml:"business_days_only" envconfig:"BUSINESS_DAYS_ONLY" default:"true"`
}

// SourceConfig selects and configures the fetch collaborator.
type SourceConfig struct {
	// Kind is sheets, excel, or memory.
	Kind            string                        `yaml:"kind" envconfig:"KIND" default:"sheets" validate:"oneof=sheets excel memory"`
	CredentialsFile string                        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	Sheets          map[string]source.SheetRef    `yaml:"sheets"`
	Workbooks       map[string]source.WorkbookRef `yaml:"workbooks"`
}

// LocationConfig describes one practice location.
type LocationConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Alias string `yaml:"alias" validate:"required"`

	// ClosedWeekdays lists weekday names the location is closed, e.g.
	// ["sunday"]. Empty means the six-day default week.
	ClosedWeekdays []string `yaml:"closed_weekdays"`

	// Thresholds overrides the collection-rate quality bands. The zero
	// value means the defaults.
	Thresholds pipeline.CollectionRateThresholds `yaml:"thresholds"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeekPattern converts the closed-weekday names into a calendar pattern.
func (l LocationConfig) WeekPattern() (calendar.WeekPattern, error) {
	if len(l.ClosedWeekdays) == 0 {
		return calendar.DefaultPattern, nil
	}
	days := make([]time.Weekday, 0, len(l.ClosedWeekdays))
	for _, name := range l.ClosedWeekdays {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return calendar.WeekPattern{}, fmt.Errorf("unknown weekday %q for location %q", name, l.Name)
		}
		days = append(days, d)
	}
	p := calendar.ClosedOn(days...)
	if !p.HasOpenDay() {
		return calendar.WeekPattern{}, fmt.Errorf("location %q has no open weekday", l.Name)
	}
	return p, nil
}

// Load loads configuration from environment variables and, when configPath
// is non-empty and the file exists, overlays the YAML file.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PULSE", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	seenNames := make(map[string]bool, len(c.Locations))
	seenAliases := make(map[string]bool, len(c.Locations))
	for _, loc := range c.Locations {
		if seenNames[loc.Name] {
			return fmt.Errorf("validate config: duplicate location name %q", loc.Name)
		}
		if seenAliases[loc.Alias] {
			return fmt.Errorf("validate config: duplicate alias %q", loc.Alias)
		}
		seenNames[loc.Name] = true
		seenAliases[loc.Alias] = true

		if _, err := loc.WeekPattern(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}

	if c.Source.Kind == "sheets" && c.Source.CredentialsFile == "" {
		return fmt.Errorf("validate config: sheets source requires credentials_file")
	}
	if c.Pipeline.FetchTimeout <= 0 {
		return fmt.Errorf("validate config: fetch_timeout must be positive")
	}
	if c.Pipeline.HistoryDays <= 0 {
		return fmt.Errorf("validate config: history_days must be positive")
	}
	return nil
}

// Calendar builds the business calendar from every location's pattern.
// Validate has already rejected unparsable patterns.
func (c *Config) Calendar() *calendar.Calendar {
	patterns := make(map[string]calendar.WeekPattern, len(c.Locations))
	for _, loc := range c.Locations {
		if p, err := loc.WeekPattern(); err == nil {
			patterns[loc.Name] = p
		}
	}
	return calendar.New(patterns)
}

// Location returns the config entry for a location name.
func (c *Config) Location(name string) (LocationConfig, bool) {
	for _, loc := range c.Locations {
		if loc.Name == name {
			return loc, true
		}
	}
	return LocationConfig{}, false
}

// LocationNames returns every configured location name in order.
func (c *Config) LocationNames() []string {
	names := make([]string, 0, len(c.Locations))
	for _, loc := range c.Locations {
		names = append(names, loc.Name)
	}
	return names
}
