package detection

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/sellside/matchbox/internal/similarity"
)

// Config holds tuning for the detection engine.
//
// A Config is a plain value: bind it into an Engine once and it never
// changes, so concurrent callers with different tuning needs each get their
// own Engine rather than sharing mutable knobs.
type Config struct {
	// MinMatchThreshold is the minimum confidence (0.0-1.0) for a candidate
	// to appear in a DetectionResult at all
	// Default: 0.85
	MinMatchThreshold float64 `yaml:"min_match_threshold"`

	// AutoMergeThreshold is the confidence at or above which two records are
	// considered safe to merge without human review
	// Default: 0.95
	AutoMergeThreshold float64 `yaml:"auto_merge_threshold"`

	// HighConfidenceThreshold gates the stricter strategies (customer+value,
	// customer+date) and the clustering pass
	// Default: 0.85
	HighConfidenceThreshold float64 `yaml:"high_confidence_threshold"`

	// MediumConfidenceThreshold gates the multi-factor strategy
	// Default: 0.70
	MediumConfidenceThreshold float64 `yaml:"medium_confidence_threshold"`

	// LowConfidenceThreshold is the floor below which a confidence is
	// reported as "low" in summaries
	// Default: 0.50
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold"`

	// Fuzzy ratio thresholds on the raw 0-100 scale. FuzzyHighThreshold and
	// FuzzyMediumThreshold drive the fuzzy-name strategy; the other two are
	// classification bands for reporting.
	// Defaults: 95 / 85 / 70 / 50
	FuzzyExactThreshold  float64 `yaml:"fuzzy_exact_threshold"`
	FuzzyHighThreshold   float64 `yaml:"fuzzy_high_threshold"`
	FuzzyMediumThreshold float64 `yaml:"fuzzy_medium_threshold"`
	FuzzyLowThreshold    float64 `yaml:"fuzzy_low_threshold"`

	// ValueTolerancePct is the percentage difference at which two monetary
	// values stop being considered "close" (see similarity.Value)
	// Default: 10
	ValueTolerancePct float64 `yaml:"value_tolerance_pct"`

	// DateToleranceDays is the day difference at which two dates stop being
	// considered "close" (see similarity.Date)
	// Default: 7
	DateToleranceDays float64 `yaml:"date_tolerance_days"`

	// MaxCandidates bounds the repository candidate query for a single
	// detection. This keeps each detection bounded instead of scanning the
	// full store.
	// Default: 50
	MaxCandidates int `yaml:"max_candidates"`

	// BatchChunkSize is how many entities a batch pass processes per chunk.
	// Chunking only bounds memory and log granularity; it never changes
	// results, since every entity reads the same shared pool.
	// Default: 100
	BatchChunkSize int `yaml:"batch_chunk_size"`

	// MaxConcurrent bounds the worker count for batch and cluster passes.
	// The comparison core is side-effect free, so parallelism is safe.
	// Default: 4
	MaxConcurrent int `yaml:"max_concurrent"`

	// Weights configures the multi-factor scorer
	Weights similarity.Weights `yaml:"weights"`
}

// DefaultConfig returns the default detection configuration
//
// The thresholds are conservative: a record only surfaces as a duplicate at
// 0.85 confidence, and auto-merge is suggested only at 0.95.
func DefaultConfig() Config {
	return Config{
		MinMatchThreshold:         0.85,
		AutoMergeThreshold:        0.95,
		HighConfidenceThreshold:   0.85,
		MediumConfidenceThreshold: 0.70,
		LowConfidenceThreshold:    0.50,
		FuzzyExactThreshold:       95,
		FuzzyHighThreshold:        85,
		FuzzyMediumThreshold:      70,
		FuzzyLowThreshold:         50,
		ValueTolerancePct:         similarity.DefaultValueTolerancePct,
		DateToleranceDays:         similarity.DefaultDateToleranceDays,
		MaxCandidates:             50,
		BatchChunkSize:            100,
		MaxConcurrent:             4,
		Weights:                   similarity.DefaultWeights(),
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	for name, value := range map[string]float64{
		"min_match_threshold":         c.MinMatchThreshold,
		"auto_merge_threshold":        c.AutoMergeThreshold,
		"high_confidence_threshold":   c.HighConfidenceThreshold,
		"medium_confidence_threshold": c.MediumConfidenceThreshold,
		"low_confidence_threshold":    c.LowConfidenceThreshold,
	} {
		if value < 0.0 || value > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0 (got %.2f)", name, value)
		}
	}
	if c.AutoMergeThreshold < c.HighConfidenceThreshold {
		return fmt.Errorf("auto_merge_threshold (%.2f) cannot be below high_confidence_threshold (%.2f)",
			c.AutoMergeThreshold, c.HighConfidenceThreshold)
	}
	if c.HighConfidenceThreshold < c.MediumConfidenceThreshold {
		return fmt.Errorf("high_confidence_threshold (%.2f) cannot be below medium_confidence_threshold (%.2f)",
			c.HighConfidenceThreshold, c.MediumConfidenceThreshold)
	}
	if c.MediumConfidenceThreshold < c.LowConfidenceThreshold {
		return fmt.Errorf("medium_confidence_threshold (%.2f) cannot be below low_confidence_threshold (%.2f)",
			c.MediumConfidenceThreshold, c.LowConfidenceThreshold)
	}
	for name, value := range map[string]float64{
		"fuzzy_exact_threshold":  c.FuzzyExactThreshold,
		"fuzzy_high_threshold":   c.FuzzyHighThreshold,
		"fuzzy_medium_threshold": c.FuzzyMediumThreshold,
		"fuzzy_low_threshold":    c.FuzzyLowThreshold,
	} {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be between 0 and 100 (got %.1f)", name, value)
		}
	}
	if c.ValueTolerancePct <= 0 {
		return fmt.Errorf("value_tolerance_pct must be positive (got %.2f)", c.ValueTolerancePct)
	}
	if c.DateToleranceDays <= 0 {
		return fmt.Errorf("date_tolerance_days must be positive (got %.2f)", c.DateToleranceDays)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be positive (got %d)", c.MaxCandidates)
	}
	if c.MaxCandidates > 500 {
		return fmt.Errorf("max_candidates too large (got %d, max 500)", c.MaxCandidates)
	}
	if c.BatchChunkSize <= 0 {
		return fmt.Errorf("batch_chunk_size must be positive (got %d)", c.BatchChunkSize)
	}
	if c.BatchChunkSize > 10000 {
		return fmt.Errorf("batch_chunk_size too large (got %d, max 10000)", c.BatchChunkSize)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive (got %d)", c.MaxConcurrent)
	}
	if c.MaxConcurrent > 64 {
		return fmt.Errorf("max_concurrent too large (got %d, max 64)", c.MaxConcurrent)
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{MinMatch: %.2f, AutoMerge: %.2f, High: %.2f, Medium: %.2f, Low: %.2f, "+
			"ValueTol: %.1f%%, DateTol: %.1fd, MaxCandidates: %d, ChunkSize: %d, Workers: %d}",
		c.MinMatchThreshold, c.AutoMergeThreshold, c.HighConfidenceThreshold,
		c.MediumConfidenceThreshold, c.LowConfidenceThreshold,
		c.ValueTolerancePct, c.DateToleranceDays, c.MaxCandidates, c.BatchChunkSize, c.MaxConcurrent,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back to
// defaults
//
// Environment variables:
//   - MATCHBOX_MIN_MATCH_THRESHOLD: Minimum confidence to report a match (default: 0.85)
//   - MATCHBOX_AUTO_MERGE_THRESHOLD: Confidence for the auto_merge action (default: 0.95)
//   - MATCHBOX_HIGH_CONFIDENCE_THRESHOLD: High-confidence band floor (default: 0.85)
//   - MATCHBOX_MEDIUM_CONFIDENCE_THRESHOLD: Medium-confidence band floor (default: 0.70)
//   - MATCHBOX_LOW_CONFIDENCE_THRESHOLD: Low-confidence band floor (default: 0.50)
//   - MATCHBOX_VALUE_TOLERANCE_PCT: Value comparison tolerance percent (default: 10)
//   - MATCHBOX_DATE_TOLERANCE_DAYS: Date comparison tolerance in days (default: 7)
//   - MATCHBOX_MAX_CANDIDATES: Repository candidate query bound (default: 50)
//   - MATCHBOX_BATCH_CHUNK_SIZE: Batch pass chunk size (default: 100)
//   - MATCHBOX_MAX_CONCURRENT: Worker bound for batch/cluster passes (default: 4)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("MATCHBOX_MIN_MATCH_THRESHOLD", &cfg.MinMatchThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("MATCHBOX_AUTO_MERGE_THRESHOLD", &cfg.AutoMergeThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("MATCHBOX_HIGH_CONFIDENCE_THRESHOLD", &cfg.HighConfidenceThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("MATCHBOX_MEDIUM_CONFIDENCE_THRESHOLD", &cfg.MediumConfidenceThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("MATCHBOX_LOW_CONFIDENCE_THRESHOLD", &cfg.LowConfidenceThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("MATCHBOX_VALUE_TOLERANCE_PCT", &cfg.ValueTolerancePct); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("MATCHBOX_DATE_TOLERANCE_DAYS", &cfg.DateToleranceDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("MATCHBOX_MAX_CANDIDATES", &cfg.MaxCandidates); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("MATCHBOX_BATCH_CHUNK_SIZE", &cfg.BatchChunkSize); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("MATCHBOX_MAX_CONCURRENT", &cfg.MaxConcurrent); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// LoadConfigFile reads YAML overrides on top of the defaults
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
