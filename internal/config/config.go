// Package config provides the explicit configuration struct passed into the
// pipeline at construction time. No pipeline component reads ambient
// environment state; env lookups happen here, once, at the CLI boundary.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultKeywords is the candidate-filter keyword group ORed into the Gmail
// query ahead of any model call.
var DefaultKeywords = []string{"job", "shutdown", "shutdowns", "fitter", "fitters", "fifo", "shut", "shuts"}

// Config holds everything the scan pipeline needs. Values merge in three
// layers: defaults, then an optional JSON file, then env/flags applied by
// the CLI.
type Config struct {
	// Credentials and external IDs.
	APIKey                 string `json:"api_key,omitempty" validate:"required"`
	TokenBase64            string `json:"-"` // env only, never persisted in a config file
	TokenFile              string `json:"token_file,omitempty"`
	CalendarID             string `json:"calendar_id,omitempty" validate:"required"`
	AvailabilityCalendarID string `json:"availability_calendar_id,omitempty"`
	SpreadsheetID          string `json:"spreadsheet_id,omitempty"`
	SheetName              string `json:"sheet_name,omitempty"`

	// Candidate filter.
	Keywords      string `json:"keywords,omitempty"` // space-separated override of DefaultKeywords
	LookbackHours int    `json:"lookback_hours,omitempty" validate:"gte=1"`
	MaxResults    int64  `json:"max_results,omitempty" validate:"gte=1"`

	// Pipeline behavior.
	Model       string `json:"model,omitempty" validate:"required"`
	TimeZone    string `json:"time_zone,omitempty" validate:"required"`
	Concurrency int    `json:"concurrency,omitempty" validate:"gte=1,lte=64"`
	MaxSpanDays int    `json:"max_span_days,omitempty" validate:"gte=1"`

	// Ambient.
	LogLevel    string `json:"log_level,omitempty"`
	Development bool   `json:"development,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		SheetName:     "Job Offers",
		LookbackHours: 24,
		MaxResults:    500,
		Model:         "gemini-2.5-flash",
		TimeZone:      "Australia/Perth",
		Concurrency:   1,
		MaxSpanDays:   31,
		LogLevel:      "info",
	}
}

// Load reads a JSON config file and merges it over the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv fills still-empty credential fields from the environment. This is
// the single place the process environment is consulted.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.TokenBase64 == "" {
		c.TokenBase64 = os.Getenv("GMAIL_API_TOKEN_BASE64")
	}
	if c.CalendarID == "" {
		c.CalendarID = os.Getenv("CALENDAR_ID")
	}
	if c.AvailabilityCalendarID == "" {
		c.AvailabilityCalendarID = os.Getenv("AVAILABILITY_CALENDAR_ID")
	}
	if c.SpreadsheetID == "" {
		c.SpreadsheetID = os.Getenv("SPREADSHEET_ID")
	}
}

// Validate checks the merged configuration. Field constraints live on the
// struct tags; cross-field rules are checked here.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: field %s failed %q constraint", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("config validation: %w", err)
	}
	if c.TokenBase64 == "" && c.TokenFile == "" {
		return fmt.Errorf("config error: either GMAIL_API_TOKEN_BASE64 or token_file is required")
	}
	return nil
}

// KeywordList splits the keyword override, falling back to the defaults.
func (c *Config) KeywordList() []string {
	if c.Keywords == "" {
		return DefaultKeywords
	}
	return strings.Fields(c.Keywords)
}
