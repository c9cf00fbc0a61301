package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies AUCTIONLAB_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known AUCTIONLAB_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Game ──
	setStr(&cfg.Game.Name, "AUCTIONLAB_GAME_NAME")
	setInt(&cfg.Game.NumPlayers, "AUCTIONLAB_GAME_NUM_PLAYERS")
	setInt64Slice(&cfg.Game.Valuations, "AUCTIONLAB_GAME_VALUATIONS")
	setInt64Slice(&cfg.Game.OpponentValuations, "AUCTIONLAB_GAME_OPPONENT_VALUATIONS")
	setInt64Slice(&cfg.Game.Actions, "AUCTIONLAB_GAME_ACTIONS")
	setStr(&cfg.Game.Policy, "AUCTIONLAB_GAME_POLICY")
	setBool(&cfg.Game.FullRange, "AUCTIONLAB_GAME_FULL_RANGE")
	setBool(&cfg.Game.Monotonic, "AUCTIONLAB_GAME_MONOTONIC")
	setBool(&cfg.Game.NoJumps, "AUCTIONLAB_GAME_NO_JUMPS")
	setBool(&cfg.Game.AllPay, "AUCTIONLAB_GAME_ALL_PAY")
	setBool(&cfg.Game.NoTies, "AUCTIONLAB_GAME_NO_TIES")
	setBool(&cfg.Game.AbsentBelowZero, "AUCTIONLAB_GAME_ABSENT_BELOW_ZERO")

	// ── Solver ──
	setStr(&cfg.Solver.PurePath, "AUCTIONLAB_SOLVER_PURE_PATH")
	setStr(&cfg.Solver.MixedPath, "AUCTIONLAB_SOLVER_MIXED_PATH")
	setBool(&cfg.Solver.OnlyPure, "AUCTIONLAB_SOLVER_ONLY_PURE")
	setDuration(&cfg.Solver.Timeout, "AUCTIONLAB_SOLVER_TIMEOUT")
	setStr(&cfg.Solver.OutputDir, "AUCTIONLAB_SOLVER_OUTPUT_DIR")

	// ── Compute ──
	setInt(&cfg.Compute.Workers, "AUCTIONLAB_COMPUTE_WORKERS")

	// ── Store ──
	setBool(&cfg.Store.Enabled, "AUCTIONLAB_STORE_ENABLED")
	setStr(&cfg.Store.Path, "AUCTIONLAB_STORE_PATH")

	// ── Attest ──
	setBool(&cfg.Attest.Enabled, "AUCTIONLAB_ATTEST_ENABLED")
	setStr(&cfg.Attest.KeyPath, "AUCTIONLAB_ATTEST_KEY_PATH")

	setStr(&cfg.LogLevel, "AUCTIONLAB_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

// setInt64Slice parses a comma separated list. A malformed entry leaves dst
// untouched.
func setInt64Slice(dst *[]int64, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	values := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return
		}
		values = append(values, n)
	}
	if len(values) > 0 {
		*dst = values
	}
}
