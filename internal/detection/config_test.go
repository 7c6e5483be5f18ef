package detection

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MinMatchThreshold != 0.85 {
		t.Errorf("expected MinMatchThreshold 0.85, got %f", cfg.MinMatchThreshold)
	}
	if cfg.AutoMergeThreshold != 0.95 {
		t.Errorf("expected AutoMergeThreshold 0.95, got %f", cfg.AutoMergeThreshold)
	}
	if cfg.HighConfidenceThreshold != 0.85 {
		t.Errorf("expected HighConfidenceThreshold 0.85, got %f", cfg.HighConfidenceThreshold)
	}
	if cfg.MediumConfidenceThreshold != 0.70 {
		t.Errorf("expected MediumConfidenceThreshold 0.70, got %f", cfg.MediumConfidenceThreshold)
	}
	if cfg.ValueTolerancePct != 10 {
		t.Errorf("expected ValueTolerancePct 10, got %f", cfg.ValueTolerancePct)
	}
	if cfg.DateToleranceDays != 7 {
		t.Errorf("expected DateToleranceDays 7, got %f", cfg.DateToleranceDays)
	}
	if cfg.MaxCandidates != 50 {
		t.Errorf("expected MaxCandidates 50, got %d", cfg.MaxCandidates)
	}
	if cfg.BatchChunkSize != 100 {
		t.Errorf("expected BatchChunkSize 100, got %d", cfg.BatchChunkSize)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("expected MaxConcurrent 4, got %d", cfg.MaxConcurrent)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			modify: func(c *Config) {},
		},
		{
			name:    "threshold above one",
			modify:  func(c *Config) { c.MinMatchThreshold = 1.5 },
			wantErr: "min_match_threshold",
		},
		{
			name:    "negative threshold",
			modify:  func(c *Config) { c.AutoMergeThreshold = -0.1 },
			wantErr: "auto_merge_threshold",
		},
		{
			name: "auto merge below high",
			modify: func(c *Config) {
				c.AutoMergeThreshold = 0.80
			},
			wantErr: "cannot be below high_confidence_threshold",
		},
		{
			name: "high below medium",
			modify: func(c *Config) {
				c.HighConfidenceThreshold = 0.60
				c.AutoMergeThreshold = 0.65
			},
			wantErr: "cannot be below medium_confidence_threshold",
		},
		{
			name:    "fuzzy threshold above 100",
			modify:  func(c *Config) { c.FuzzyHighThreshold = 120 },
			wantErr: "fuzzy_high_threshold",
		},
		{
			name:    "zero value tolerance",
			modify:  func(c *Config) { c.ValueTolerancePct = 0 },
			wantErr: "value_tolerance_pct",
		},
		{
			name:    "negative date tolerance",
			modify:  func(c *Config) { c.DateToleranceDays = -1 },
			wantErr: "date_tolerance_days",
		},
		{
			name:    "zero max candidates",
			modify:  func(c *Config) { c.MaxCandidates = 0 },
			wantErr: "max_candidates",
		},
		{
			name:    "max candidates too large",
			modify:  func(c *Config) { c.MaxCandidates = 10000 },
			wantErr: "too large",
		},
		{
			name:    "zero chunk size",
			modify:  func(c *Config) { c.BatchChunkSize = 0 },
			wantErr: "batch_chunk_size",
		},
		{
			name:    "zero workers",
			modify:  func(c *Config) { c.MaxConcurrent = 0 },
			wantErr: "max_concurrent",
		},
		{
			name:    "negative weight",
			modify:  func(c *Config) { c.Weights.Name = -0.5 },
			wantErr: "invalid weights",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MATCHBOX_MIN_MATCH_THRESHOLD", "0.90")
	t.Setenv("MATCHBOX_VALUE_TOLERANCE_PCT", "15")
	t.Setenv("MATCHBOX_MAX_CANDIDATES", "25")
	t.Setenv("MATCHBOX_MAX_CONCURRENT", "8")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.MinMatchThreshold != 0.90 {
		t.Errorf("expected MinMatchThreshold 0.90, got %f", cfg.MinMatchThreshold)
	}
	if cfg.ValueTolerancePct != 15 {
		t.Errorf("expected ValueTolerancePct 15, got %f", cfg.ValueTolerancePct)
	}
	if cfg.MaxCandidates != 25 {
		t.Errorf("expected MaxCandidates 25, got %d", cfg.MaxCandidates)
	}
	if cfg.MaxConcurrent != 8 {
		t.Errorf("expected MaxConcurrent 8, got %d", cfg.MaxConcurrent)
	}

	// Unset values keep their defaults
	if cfg.AutoMergeThreshold != 0.95 {
		t.Errorf("expected default AutoMergeThreshold 0.95, got %f", cfg.AutoMergeThreshold)
	}
}

func TestConfigFromEnvInvalidValue(t *testing.T) {
	t.Setenv("MATCHBOX_MIN_MATCH_THRESHOLD", "not-a-number")

	_, err := ConfigFromEnv()
	if err == nil {
		t.Fatal("expected error for invalid float, got nil")
	}
	if !strings.Contains(err.Error(), "MATCHBOX_MIN_MATCH_THRESHOLD") {
		t.Errorf("error should name the offending variable, got: %v", err)
	}
}

func TestConfigFromEnvInvalidCombination(t *testing.T) {
	t.Setenv("MATCHBOX_AUTO_MERGE_THRESHOLD", "0.50")

	_, err := ConfigFromEnv()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid configuration from environment") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matchbox.yaml")
	content := `
min_match_threshold: 0.80
value_tolerance_pct: 20
max_concurrent: 2
weights:
  name: 0.40
  customer_name: 0.40
  value: 0.20
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.MinMatchThreshold != 0.80 {
		t.Errorf("expected MinMatchThreshold 0.80, got %f", cfg.MinMatchThreshold)
	}
	if cfg.ValueTolerancePct != 20 {
		t.Errorf("expected ValueTolerancePct 20, got %f", cfg.ValueTolerancePct)
	}
	if cfg.MaxConcurrent != 2 {
		t.Errorf("expected MaxConcurrent 2, got %d", cfg.MaxConcurrent)
	}
	if cfg.Weights.Name != 0.40 {
		t.Errorf("expected name weight 0.40, got %f", cfg.Weights.Name)
	}

	// Untouched fields keep their defaults
	if cfg.AutoMergeThreshold != 0.95 {
		t.Errorf("expected default AutoMergeThreshold 0.95, got %f", cfg.AutoMergeThreshold)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matchbox.yaml")
	if err := os.WriteFile(path, []byte("min_match_threshold: 5.0\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := LoadConfigFile(path)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	for _, want := range []string{"MinMatch: 0.85", "AutoMerge: 0.95", "Workers: 4"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}
}
