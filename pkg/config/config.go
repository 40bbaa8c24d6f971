package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/maw/pkg/view"
)

// CompactionPolicy controls when pkg/view.Compact is invoked.
type CompactionPolicy struct {
	// Mode is "on_demand" (compact only when a caller asks, the current
	// behavior of pkg/view.Compact) or "periodic" (compact automatically
	// every IntervalOps operations, left to the caller to schedule).
	Mode        string `yaml:"mode"`
	IntervalOps int    `yaml:"interval_ops,omitempty"`
}

// ValidationConfig is the merge plan's `validation?` field (spec.md §6):
// post-merge commands and how a non-zero exit should be handled.
type ValidationConfig struct {
	Commands       []string `yaml:"commands"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	// Policy is one of "warn", "block", "quarantine", "block+quarantine".
	Policy string `yaml:"policy"`
}

// DriverConfig matches merge-plan paths against a glob and names the
// driver to run for them (spec.md §6 merge plan `drivers?` field).
type DriverConfig struct {
	PathGlob string `yaml:"path_glob"`
	Kind     string `yaml:"kind"`
	Command  string `yaml:"command,omitempty"`
}

// Config is the engine's full tunable set. Every field has a sensible
// zero-config default (see Default); a loaded file only needs to name the
// fields it wants to override.
type Config struct {
	CheckpointInterval int               `yaml:"checkpoint_interval,omitempty"`
	Compaction         CompactionPolicy  `yaml:"compaction,omitempty"`
	Validation         *ValidationConfig `yaml:"validation,omitempty"`
	Drivers            []DriverConfig    `yaml:"drivers,omitempty"`
}

// Default returns the engine's built-in tunables: a 100-op checkpoint
// interval (pkg/view.DefaultCheckpointInterval) and on-demand compaction,
// with no validation commands or drivers configured.
func Default() Config {
	return Config{
		CheckpointInterval: view.DefaultCheckpointInterval,
		Compaction:         CompactionPolicy{Mode: "on_demand"},
	}
}

// Load reads a YAML config file at path and merges it over Default: any
// field the file sets wins, anything it omits keeps its default. A missing
// file is not an error — it yields the plain default config, the same
// "absence means default" convention pkg/artifact's workspace metadata
// uses.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := mergo.Merge(&cfg, loaded, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("config: merge %s over defaults: %w", path, err)
	}
	return cfg, nil
}
