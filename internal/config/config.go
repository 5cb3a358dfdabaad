// Package config holds the immutable audit configuration and its loading
// from viper (file, environment and flags).
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is a snapshot of every check toggle and threshold. It is passed by
// value into each pipeline run and is never mutated by the engine.
type Config struct {
	Checks      Checks     `mapstructure:"checks" json:"checks"`
	Properties  Properties `mapstructure:"properties" json:"properties"`
	Title       Title      `mapstructure:"title" json:"title"`
	Description Bounds     `mapstructure:"description" json:"description"`
	Keyword     Keyword    `mapstructure:"keyword" json:"keyword"`
	Content     Content    `mapstructure:"content" json:"content"`
	Reading     Reading    `mapstructure:"reading" json:"reading"`
	Duplicates  Duplicates `mapstructure:"duplicates" json:"duplicates"`
	Scoring     Scoring    `mapstructure:"scoring" json:"scoring"`
	Scan        Scan       `mapstructure:"scan" json:"scan"`
	Realtime    Realtime   `mapstructure:"realtime" json:"realtime"`
	Cache       Cache      `mapstructure:"cache" json:"cache"`
}

// Checks enables or disables each catalog entry.
type Checks struct {
	TitleLength           bool `mapstructure:"title_length" json:"title_length"`
	DescriptionLength     bool `mapstructure:"description_length" json:"description_length"`
	KeywordDensity        bool `mapstructure:"keyword_density" json:"keyword_density"`
	KeywordInTitle        bool `mapstructure:"keyword_in_title" json:"keyword_in_title"`
	KeywordInDescription  bool `mapstructure:"keyword_in_description" json:"keyword_in_description"`
	HeadingOrder          bool `mapstructure:"heading_order" json:"heading_order"`
	ImageAltText          bool `mapstructure:"image_alt_text" json:"image_alt_text"`
	ImageNaming           bool `mapstructure:"image_naming" json:"image_naming"`
	BrokenLinks           bool `mapstructure:"broken_links" json:"broken_links"`
	ExternalLinks         bool `mapstructure:"external_links" json:"external_links"`
	ContentLength         bool `mapstructure:"content_length" json:"content_length"`
	ReadingLevel          bool `mapstructure:"reading_level" json:"reading_level"`
	DuplicateContent      bool `mapstructure:"duplicate_content" json:"duplicate_content"`
	DuplicateTitles       bool `mapstructure:"duplicate_titles" json:"duplicate_titles"`
	DuplicateDescriptions bool `mapstructure:"duplicate_descriptions" json:"duplicate_descriptions"`
}

// Properties names the frontmatter keys the checks read. An empty name
// means the property is not configured.
type Properties struct {
	Title       string `mapstructure:"title" json:"title"`
	Description string `mapstructure:"description" json:"description"`
	Keyword     string `mapstructure:"keyword" json:"keyword"`
	Ignore      string `mapstructure:"ignore" json:"ignore"`
}

// Bounds is an inclusive character-length band.
type Bounds struct {
	Min int `mapstructure:"min" json:"min"`
	Max int `mapstructure:"max" json:"max"`
}

type Title struct {
	Bounds      `mapstructure:",squash" json:"bounds"`
	UseFilename bool `mapstructure:"use_filename" json:"use_filename"`
}

// Keyword density band, in percent of prose tokens.
type Keyword struct {
	MinDensity float64 `mapstructure:"min_density" json:"min_density"`
	MaxDensity float64 `mapstructure:"max_density" json:"max_density"`
}

type Content struct {
	MinWords int `mapstructure:"min_words" json:"min_words"`
}

type Reading struct {
	MinEase float64 `mapstructure:"min_ease" json:"min_ease"`
}

type Duplicates struct {
	// Threshold is the body similarity in [0,100] at or above which a pair is
	// reported.
	Threshold float64 `mapstructure:"threshold" json:"threshold"`
}

// Scoring penalties subtracted from 100 per finding.
type Scoring struct {
	ErrorPenalty   float64 `mapstructure:"error_penalty" json:"error_penalty"`
	WarningPenalty float64 `mapstructure:"warning_penalty" json:"warning_penalty"`
}

type Scan struct {
	BatchSize  int           `mapstructure:"batch_size" json:"batch_size"`
	BatchPause time.Duration `mapstructure:"batch_pause" json:"batch_pause"`
	Include    []string      `mapstructure:"include" json:"include"`
	Exclude    []string      `mapstructure:"exclude" json:"exclude"`
}

type Realtime struct {
	QuietPeriod time.Duration `mapstructure:"quiet_period" json:"quiet_period"`
}

// Cache selects where the last corpus snapshot is persisted. It does not
// take part in the fingerprint.
type Cache struct {
	Backend   string `mapstructure:"backend" json:"-"`
	Dir       string `mapstructure:"dir" json:"-"`
	RedisAddr string `mapstructure:"redis_addr" json:"-"`
	RedisKey  string `mapstructure:"redis_key" json:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Checks: Checks{
			TitleLength:           true,
			DescriptionLength:     true,
			KeywordDensity:        true,
			KeywordInTitle:        true,
			KeywordInDescription:  true,
			HeadingOrder:          true,
			ImageAltText:          true,
			ImageNaming:           true,
			BrokenLinks:           true,
			ExternalLinks:         false,
			ContentLength:         true,
			ReadingLevel:          true,
			DuplicateContent:      true,
			DuplicateTitles:       true,
			DuplicateDescriptions: true,
		},
		Properties: Properties{
			Title:       "title",
			Description: "description",
			Keyword:     "keyword",
			Ignore:      "audit_ignore",
		},
		Title:       Title{Bounds: Bounds{Min: 30, Max: 60}, UseFilename: true},
		Description: Bounds{Min: 120, Max: 160},
		Keyword:     Keyword{MinDensity: 0.5, MaxDensity: 2.5},
		Content:     Content{MinWords: 300},
		Reading:     Reading{MinEase: 30},
		Duplicates:  Duplicates{Threshold: 80},
		Scoring:     Scoring{ErrorPenalty: 10, WarningPenalty: 5},
		Scan: Scan{
			BatchSize: 20,
			Include:   []string{"**/*.md"},
		},
		Realtime: Realtime{QuietPeriod: 2 * time.Second},
		Cache:    Cache{Backend: "file", RedisKey: "docaudit:snapshot"},
	}
}

// SetDefaults registers every default on v so that config files and
// DOCAUDIT_* environment variables only need to override what they change.
func SetDefaults(v *viper.Viper) {
	d := Default()
	for key, val := range map[string]any{
		"checks.title_length":           d.Checks.TitleLength,
		"checks.description_length":     d.Checks.DescriptionLength,
		"checks.keyword_density":        d.Checks.KeywordDensity,
		"checks.keyword_in_title":       d.Checks.KeywordInTitle,
		"checks.keyword_in_description": d.Checks.KeywordInDescription,
		"checks.heading_order":          d.Checks.HeadingOrder,
		"checks.image_alt_text":         d.Checks.ImageAltText,
		"checks.image_naming":           d.Checks.ImageNaming,
		"checks.broken_links":           d.Checks.BrokenLinks,
		"checks.external_links":         d.Checks.ExternalLinks,
		"checks.content_length":         d.Checks.ContentLength,
		"checks.reading_level":          d.Checks.ReadingLevel,
		"checks.duplicate_content":      d.Checks.DuplicateContent,
		"checks.duplicate_titles":       d.Checks.DuplicateTitles,
		"checks.duplicate_descriptions": d.Checks.DuplicateDescriptions,
		"properties.title":              d.Properties.Title,
		"properties.description":        d.Properties.Description,
		"properties.keyword":            d.Properties.Keyword,
		"properties.ignore":             d.Properties.Ignore,
		"title.min":                     d.Title.Min,
		"title.max":                     d.Title.Max,
		"title.use_filename":            d.Title.UseFilename,
		"description.min":               d.Description.Min,
		"description.max":               d.Description.Max,
		"keyword.min_density":           d.Keyword.MinDensity,
		"keyword.max_density":           d.Keyword.MaxDensity,
		"content.min_words":             d.Content.MinWords,
		"reading.min_ease":              d.Reading.MinEase,
		"duplicates.threshold":          d.Duplicates.Threshold,
		"scoring.error_penalty":         d.Scoring.ErrorPenalty,
		"scoring.warning_penalty":       d.Scoring.WarningPenalty,
		"scan.batch_size":               d.Scan.BatchSize,
		"scan.batch_pause":              d.Scan.BatchPause,
		"scan.include":                  d.Scan.Include,
		"realtime.quiet_period":         d.Realtime.QuietPeriod,
		"cache.backend":                 d.Cache.Backend,
		"cache.dir":                     d.Cache.Dir,
		"cache.redis_addr":              d.Cache.RedisAddr,
		"cache.redis_key":               d.Cache.RedisKey,
	} {
		v.SetDefault(key, val)
	}
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks thresholds for internal consistency.
func (c Config) Validate() error {
	var problems []string
	if c.Title.Min < 0 || c.Title.Max < c.Title.Min {
		problems = append(problems, "title.min/max out of order")
	}
	if c.Description.Min < 0 || c.Description.Max < c.Description.Min {
		problems = append(problems, "description.min/max out of order")
	}
	if c.Keyword.MinDensity < 0 || c.Keyword.MaxDensity < c.Keyword.MinDensity {
		problems = append(problems, "keyword.min_density/max_density out of order")
	}
	if c.Duplicates.Threshold < 0 || c.Duplicates.Threshold > 100 {
		problems = append(problems, "duplicates.threshold must be within [0,100]")
	}
	if c.Scoring.ErrorPenalty < 0 || c.Scoring.WarningPenalty < 0 {
		problems = append(problems, "scoring penalties must not be negative")
	}
	if c.Scan.BatchSize <= 0 {
		problems = append(problems, "scan.batch_size must be positive")
	}
	if c.Realtime.QuietPeriod < 0 {
		problems = append(problems, "realtime.quiet_period must not be negative")
	}
	switch c.Cache.Backend {
	case "", "file", "redis", "memory":
	default:
		problems = append(problems, fmt.Sprintf("unknown cache.backend %q", c.Cache.Backend))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Fingerprint identifies every value that can change a check outcome.
// Two configs with the same fingerprint produce identical results.
func (c Config) Fingerprint() string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
