// Package config loads and validates the TOML run configuration: simulation
// parameters, condition declarations, role overrides, and the categorizer's
// keyword heuristics.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/DeckTuner/internal/condition"
	"github.com/ramonehamilton/DeckTuner/internal/roles"
	"github.com/ramonehamilton/DeckTuner/internal/sim"
)

// Config represents one run's configuration file.
type Config struct {
	// Simulation parameters
	Simulation SimulationConfig `toml:"simulation"`

	// Categorizer heuristics
	Heuristics HeuristicsConfig `toml:"heuristics"`

	// Cards carrying the WinCondition role (never inferred heuristically)
	WinConditions []string `toml:"win_conditions"`

	// Per-card role overrides, replacing derived roles entirely
	Overrides map[string][]string `toml:"overrides"`

	// Conditions to track per turn
	Conditions []ConditionConfig `toml:"conditions"`
}

// SimulationConfig mirrors sim.Params in TOML form.
type SimulationConfig struct {
	Iterations   int   `toml:"iterations"`    // Trial count
	HandSize     int   `toml:"hand_size"`     // Opening hand size
	MinLands     int   `toml:"min_lands"`     // Default keep rule lower bound
	MaxLands     int   `toml:"max_lands"`     // Default keep rule upper bound
	MaxMulligans int   `toml:"max_mulligans"` // Forced keep after this many
	OnThePlay    bool  `toml:"on_the_play"`   // Skip the turn-1 draw
	MaxTurn      int   `toml:"max_turn"`      // Last simulated turn
	Seed         int64 `toml:"seed"`          // 0 = random
	DeckSize     int   `toml:"deck_size"`     // Invariant check target (0 disables)
	Workers      int   `toml:"workers"`       // 0 = NumCPU
	BatchSize    int   `toml:"batch_size"`    // Trials per worker batch
	Strict       bool  `toml:"strict"`        // Unresolved cards are fatal
}

// HeuristicsConfig exposes the categorizer keyword lists. Empty lists fall
// back to the defaults.
type HeuristicsConfig struct {
	ManaKeywords         []string `toml:"mana_keywords"`
	DrawKeywords         []string `toml:"draw_keywords"`
	ArtifactManaValueMax float64  `toml:"artifact_mana_value_max"`
}

// ConditionConfig declares one tracked condition.
type ConditionConfig struct {
	Name     string   `toml:"name"`
	Template string   `toml:"template"`
	Min      int      `toml:"min"`
	Requires []string `toml:"requires"`
	Expr     string   `toml:"expr"`
	Turn     int      `toml:"turn"`
}

// DefaultConfig returns the default configuration: a Commander deck checked
// for mana, draw, and win-condition availability.
func DefaultConfig() *Config {
	p := sim.DefaultParams()
	h := roles.DefaultHeuristics()
	return &Config{
		Simulation: SimulationConfig{
			Iterations:   p.Iterations,
			HandSize:     p.HandSize,
			MinLands:     p.MinLands,
			MaxLands:     p.MaxLands,
			MaxMulligans: p.MaxMulligans,
			MaxTurn:      p.MaxTurn,
			DeckSize:     p.TargetDeckSize,
			BatchSize:    p.BatchSize,
		},
		Heuristics: HeuristicsConfig{
			ManaKeywords:         h.ManaKeywords,
			DrawKeywords:         h.DrawKeywords,
			ArtifactManaValueMax: h.ArtifactManaValueMax,
		},
		Conditions: []ConditionConfig{
			{Name: "mana", Template: condition.TemplateManaOnline, Min: 3, Turn: 3},
			{Name: "draw", Template: condition.TemplateDrawOnline, Min: 1, Turn: 5},
			{Name: "win", Template: condition.TemplateWinOnline, Min: 1, Requires: []string{"mana"}, Turn: 8},
		},
	}
}

// Load loads a configuration file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save writes the configuration to disk.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Params converts the simulation section to sim.Params.
func (c *Config) Params() sim.Params {
	s := c.Simulation
	return sim.Params{
		Iterations:     s.Iterations,
		HandSize:       s.HandSize,
		MinLands:       s.MinLands,
		MaxLands:       s.MaxLands,
		MaxMulligans:   s.MaxMulligans,
		OnThePlay:      s.OnThePlay,
		MaxTurn:        s.MaxTurn,
		Seed:           s.Seed,
		TargetDeckSize: s.DeckSize,
		Workers:        s.Workers,
		BatchSize:      s.BatchSize,
	}
}

// RoleHeuristics converts the heuristics section, filling defaults for
// anything left empty.
func (c *Config) RoleHeuristics() roles.Heuristics {
	h := roles.DefaultHeuristics()
	if len(c.Heuristics.ManaKeywords) > 0 {
		h.ManaKeywords = c.Heuristics.ManaKeywords
	}
	if len(c.Heuristics.DrawKeywords) > 0 {
		h.DrawKeywords = c.Heuristics.DrawKeywords
	}
	if c.Heuristics.ArtifactManaValueMax > 0 {
		h.ArtifactManaValueMax = c.Heuristics.ArtifactManaValueMax
	}
	return h
}

// RoleOverrides parses the override section into role sets.
func (c *Config) RoleOverrides() (map[string]roles.Set, error) {
	if len(c.Overrides) == 0 {
		return nil, nil
	}
	out := make(map[string]roles.Set, len(c.Overrides))
	for name, names := range c.Overrides {
		var set roles.Set
		for _, rn := range names {
			r, err := roles.Parse(rn)
			if err != nil {
				return nil, fmt.Errorf("override for %q: %w", name, err)
			}
			set = set.Add(r)
		}
		out[name] = set
	}
	return out, nil
}

// ConditionSpecs converts the condition section for compilation.
func (c *Config) ConditionSpecs() []condition.Spec {
	specs := make([]condition.Spec, len(c.Conditions))
	for i, cc := range c.Conditions {
		specs[i] = condition.Spec{
			Name:     cc.Name,
			Template: cc.Template,
			Min:      cc.Min,
			Requires: cc.Requires,
			Expr:     cc.Expr,
			Turn:     cc.Turn,
		}
	}
	return specs
}

// Validate checks the configuration values. Condition expressions and
// dependencies are validated separately by condition.Compile.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if len(c.Conditions) == 0 {
		return fmt.Errorf("no conditions configured")
	}
	if _, err := c.RoleOverrides(); err != nil {
		return err
	}
	return nil
}
