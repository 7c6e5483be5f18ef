package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sellside/matchbox/internal/detection"
	"github.com/sellside/matchbox/internal/notify"
	"github.com/sellside/matchbox/internal/storage"
	"github.com/sellside/matchbox/internal/storage/sqlite"
	"github.com/sellside/matchbox/internal/types"
)

var (
	dbPath     string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "matchbox",
	Short: "Duplicate detection for deal records",
	Long: `Matchbox detects duplicate deal registrations.

Deals are compared with a set of matching strategies (exact, fuzzy name,
customer+value, customer+date, vendor+customer, weighted multi-factor) and
every detection returns ranked matches with a suggested action.

Configuration comes from defaults, overridden by MATCHBOX_* environment
variables, or by a YAML file when --config is given.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", storage.DefaultConfig().Path, "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
}

// loadConfig resolves the engine configuration: the --config file when given,
// otherwise defaults with MATCHBOX_* environment overrides.
func loadConfig() (detection.Config, error) {
	if configPath != "" {
		return detection.LoadConfigFile(configPath)
	}
	return detection.ConfigFromEnv()
}

func openStore() (*sqlite.SQLiteStorage, error) {
	return sqlite.New(dbPath)
}

func openEngine(store storage.Storage) (*detection.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return detection.New(store, notify.NewLogNotifier(0, 0), cfg)
}

// readDealsFile parses a JSON file holding either one deal object or an array
// of deals.
func readDealsFile(path string) ([]*types.Deal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var deals []*types.Deal
	if err := json.Unmarshal(data, &deals); err == nil {
		return deals, nil
	}

	var deal types.Deal
	if err := json.Unmarshal(data, &deal); err != nil {
		return nil, fmt.Errorf("failed to parse %s: expected a deal object or array: %w", path, err)
	}
	return []*types.Deal{&deal}, nil
}
