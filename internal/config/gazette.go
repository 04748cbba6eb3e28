// Package config holds the gazette source configuration: where the
// publication lives, how its listing is marked up and how it is fetched.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gazette-tasks/internal/domain/entity"
	pkgconfig "gazette-tasks/internal/pkg/config"
)

// Source types understood by the scraper factory.
const (
	SourceTypeHTML = "html"
	SourceTypeRSS  = "rss"
)

const (
	DefaultBaseURL   = "https://www.gazette.gov.mv"
	DefaultUserAgent = "gazette-tasks/1.0 (+https://www.gazette.gov.mv)"
)

// Selectors are the CSS selectors used to read the listing page.
type Selectors struct {
	Item  string `yaml:"item"`
	Title string `yaml:"title"`
	Link  string `yaml:"link"`
	Date  string `yaml:"date"`
}

// GazetteConfig describes the publication source.
type GazetteConfig struct {
	// BaseURL is prefixed to each entry's relative URL to build the task source.
	BaseURL string `yaml:"base_url"`
	// PageURL is the page that is fetched. Defaults to BaseURL.
	PageURL      string        `yaml:"page_url"`
	SourceType   string        `yaml:"source_type"`
	Selectors    Selectors     `yaml:"selectors"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// DefaultGazetteConfig returns the configuration for the Maldives gazette listing.
func DefaultGazetteConfig() GazetteConfig {
	return GazetteConfig{
		BaseURL:    DefaultBaseURL,
		PageURL:    DefaultBaseURL,
		SourceType: SourceTypeHTML,
		Selectors: Selectors{
			Item:  ".gazette-item",
			Title: ".gazette-title",
			Link:  "a",
			Date:  ".gazette-date",
		},
		UserAgent:    DefaultUserAgent,
		Timeout:      30 * time.Second,
		MaxBodyBytes: 10 * 1024 * 1024,
	}
}

// LoadGazetteConfig starts from the defaults, overlays the YAML file at path
// (skipped when path is empty) and then the GAZETTE_* environment variables.
// A missing or malformed file is an error; invalid environment values fall
// back with a warning.
func LoadGazetteConfig(path string) (GazetteConfig, []string, error) {
	cfg := DefaultGazetteConfig()
	pageSet := false

	if path != "" {
		// #nosec G304 -- path comes from the operator's environment
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, nil, fmt.Errorf("failed to read gazette config: %w", err)
		}
		// page_url follows the file's base_url unless the file sets it.
		cfg.PageURL = ""
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, nil, fmt.Errorf("failed to parse gazette config: %w", err)
		}
		pageSet = cfg.PageURL != ""
		if err := cfg.Validate(); err != nil {
			return cfg, nil, fmt.Errorf("gazette config validation failed: %w", err)
		}
	}

	var warnings []string
	validURL := func(s string) error { return entity.ValidateURL(s) }

	baseRes := pkgconfig.LoadEnvWithFallback("GAZETTE_URL", cfg.BaseURL, validURL)
	warnings = append(warnings, baseRes.Warnings...)
	if !pageSet && os.Getenv("GAZETTE_PAGE_URL") == "" {
		cfg.PageURL = baseRes.Value
	}
	cfg.BaseURL = baseRes.Value

	pageRes := pkgconfig.LoadEnvWithFallback("GAZETTE_PAGE_URL", cfg.PageURL, validURL)
	warnings = append(warnings, pageRes.Warnings...)
	cfg.PageURL = pageRes.Value

	typeRes := pkgconfig.LoadEnvWithFallback("GAZETTE_SOURCE_TYPE", cfg.SourceType,
		pkgconfig.OneOf(SourceTypeHTML, SourceTypeRSS))
	warnings = append(warnings, typeRes.Warnings...)
	cfg.SourceType = typeRes.Value

	timeoutRes := pkgconfig.LoadEnvDuration("GAZETTE_TIMEOUT", cfg.Timeout, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, 5*time.Minute)
	})
	warnings = append(warnings, timeoutRes.Warnings...)
	cfg.Timeout = timeoutRes.Value

	cfg.UserAgent = pkgconfig.GetEnvString("GAZETTE_USER_AGENT", cfg.UserAgent)

	return cfg, warnings, nil
}

// Validate checks the configuration loaded from a file.
func (c *GazetteConfig) Validate() error {
	if err := entity.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if c.PageURL == "" {
		c.PageURL = c.BaseURL
	}
	if err := entity.ValidateURL(c.PageURL); err != nil {
		return fmt.Errorf("page_url: %w", err)
	}
	switch c.SourceType {
	case SourceTypeHTML:
		if c.Selectors.Item == "" || c.Selectors.Title == "" {
			return fmt.Errorf("selectors.item and selectors.title are required for html sources")
		}
	case SourceTypeRSS:
	default:
		return fmt.Errorf("source_type must be %q or %q, got %q", SourceTypeHTML, SourceTypeRSS, c.SourceType)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	return nil
}
