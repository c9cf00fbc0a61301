// Package config defines the configuration of an auction experiment and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloudx-io/bayesauction/core"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by AUCTIONLAB_* environment variables.
type Config struct {
	Game     GameConfig    `toml:"game"`
	Solver   SolverConfig  `toml:"solver"`
	Compute  ComputeConfig `toml:"compute"`
	Store    StoreConfig   `toml:"store"`
	Attest   AttestConfig  `toml:"attest"`
	LogLevel string        `toml:"log_level"`
}

// GameConfig describes the auction to build. Player 0 bids over Valuations.
// When OpponentValuations is set, every other seat uses it instead, which
// makes the game asymmetric.
type GameConfig struct {
	Name               string  `toml:"name"`
	NumPlayers         int     `toml:"num_players"`
	Valuations         []int64 `toml:"valuations"`
	OpponentValuations []int64 `toml:"opponent_valuations"`
	// Actions defaults to the non-negative valuations of each player.
	Actions []int64 `toml:"actions"`
	Policy  string  `toml:"policy"`
	// FullRange drops the bid range policy and enumerates every action for
	// every type, optionally filtered to weakly increasing bids.
	FullRange       bool `toml:"full_range"`
	Monotonic       bool `toml:"monotonic"`
	NoJumps         bool `toml:"no_jumps"`
	AllPay          bool `toml:"all_pay"`
	NoTies          bool `toml:"no_ties"`
	AbsentBelowZero bool `toml:"absent_below_zero"`
}

// SolverConfig holds the Gambit command line tools and where NFG files go.
type SolverConfig struct {
	PurePath  string   `toml:"pure_path"`
	MixedPath string   `toml:"mixed_path"`
	OnlyPure  bool     `toml:"only_pure"`
	Timeout   duration `toml:"timeout"`
	OutputDir string   `toml:"output_dir"`
}

// ComputeConfig tunes payoff table construction. Workers <= 0 uses one
// worker per CPU.
type ComputeConfig struct {
	Workers int `toml:"workers"`
}

// StoreConfig holds the run history database.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// AttestConfig controls sealing of equilibrium reports.
type AttestConfig struct {
	Enabled bool   `toml:"enabled"`
	KeyPath string `toml:"key_path"`
}

// duration wraps time.Duration for TOML string decoding.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a two-bidder first-price auction over valuations 0..2.
func Defaults() Config {
	return Config{
		Game: GameConfig{
			NumPlayers: 2,
			Valuations: []int64{0, 1, 2},
			Policy:     core.DefaultPolicyName,
		},
		Solver: SolverConfig{
			PurePath:  "gambit-enumpure",
			MixedPath: "gambit-enummixed",
			OnlyPure:  true,
			Timeout:   duration{10 * time.Minute},
			OutputDir: "games",
		},
		Compute: ComputeConfig{
			Workers: 0,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "auctionlab.db",
		},
		Attest: AttestConfig{
			Enabled: false,
			KeyPath: "auctionlab-key.pem",
		},
		LogLevel: "info",
	}
}

// GameName returns the configured name, or one derived from the auction's
// parameters when none is set.
func (g GameConfig) GameName() string {
	if g.Name != "" {
		return g.Name
	}
	if len(g.OpponentValuations) > 0 {
		return fmt.Sprintf("num_players_%d_allpay_%t_noties_%t_nojumps_%t_%d_strong_%d_weak_auction",
			g.NumPlayers, g.AllPay, g.NoTies, g.NoJumps, len(g.Valuations), len(g.OpponentValuations))
	}
	return fmt.Sprintf("num_players_%d_allpay_%t_noties_%t_nojumps_%t_%d_valuations_auction",
		g.NumPlayers, g.AllPay, g.NoTies, g.NoJumps, len(g.Valuations))
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for missing or inconsistent values. It
// returns an error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[c.LogLevel] {
		errs = append(errs, fmt.Sprintf("log_level must be one of debug|info|warn|error, got %q", c.LogLevel))
	}

	// Game
	if c.Game.NumPlayers < 1 {
		errs = append(errs, fmt.Sprintf("game: num_players must be at least 1, got %d", c.Game.NumPlayers))
	}
	if len(c.Game.Valuations) == 0 {
		errs = append(errs, "game: valuations must not be empty")
	}
	if strings.ContainsAny(c.Game.Name, "/\\\"\n") {
		errs = append(errs, fmt.Sprintf("game: name %q must not contain path separators, quotes or newlines", c.Game.Name))
	}
	if c.Game.FullRange {
		if c.Game.NoJumps {
			errs = append(errs, "game: no_jumps needs a bid range policy and cannot be combined with full_range")
		}
	} else {
		if _, err := core.LookupPolicy(c.Game.Policy); err != nil {
			errs = append(errs, fmt.Sprintf("game: policy must be one of %s, got %q", strings.Join(core.PolicyNames(), "|"), c.Game.Policy))
		}
		if c.Game.Monotonic {
			errs = append(errs, "game: monotonic only applies with full_range")
		}
	}
	if dup := firstDuplicate(c.Game.Valuations); dup != nil {
		errs = append(errs, fmt.Sprintf("game: duplicate valuation %d", *dup))
	}
	if dup := firstDuplicate(c.Game.OpponentValuations); dup != nil {
		errs = append(errs, fmt.Sprintf("game: duplicate opponent valuation %d", *dup))
	}
	if dup := firstDuplicate(c.Game.Actions); dup != nil {
		errs = append(errs, fmt.Sprintf("game: duplicate action %d", *dup))
	}
	if len(c.Game.OpponentValuations) > 0 && c.Game.NumPlayers < 2 {
		errs = append(errs, "game: opponent_valuations needs at least 2 players")
	}
	if !c.Game.AbsentBelowZero {
		for _, v := range append(append([]int64(nil), c.Game.Valuations...), c.Game.OpponentValuations...) {
			if v < 0 {
				errs = append(errs, fmt.Sprintf("game: negative valuation %d needs absent_below_zero", v))
				break
			}
		}
	}

	// Solver
	if c.Solver.Timeout.Duration <= 0 {
		errs = append(errs, "solver: timeout must be > 0")
	}
	if c.Solver.OutputDir == "" {
		errs = append(errs, "solver: output_dir is required")
	}
	if c.Solver.OnlyPure && c.Solver.PurePath == "" {
		errs = append(errs, "solver: pure_path is required when only_pure is set")
	}
	if !c.Solver.OnlyPure && c.Solver.MixedPath == "" {
		errs = append(errs, "solver: mixed_path is required when only_pure is not set")
	}

	// Store
	if c.Store.Enabled && c.Store.Path == "" {
		errs = append(errs, "store: path is required when enabled")
	}

	// Attest
	if c.Attest.Enabled && c.Attest.KeyPath == "" {
		errs = append(errs, "attest: key_path is required when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func firstDuplicate(values []int64) *int64 {
	seen := make(map[int64]bool, len(values))
	for i, v := range values {
		if seen[v] {
			return &values[i]
		}
		seen[v] = true
	}
	return nil
}
