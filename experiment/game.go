// Package experiment turns a configuration into an auction, computes its
// payoff table and drives it through the solver.
package experiment

import (
	"fmt"

	"github.com/cloudx-io/bayesauction/config"
	"github.com/cloudx-io/bayesauction/core"
)

// BuildGame assembles the Bayesian game described by cfg. Player 0 bids over
// cfg.Valuations; every other seat is an independent copy of either player 0
// or, when opponent valuations are set, of the opponent specification.
func BuildGame(cfg config.GameConfig) (*core.BayesianGame, error) {
	if cfg.NumPlayers < 1 {
		return nil, fmt.Errorf("game needs at least one player, got %d: %w", cfg.NumPlayers, core.ErrInvalidSpecification)
	}

	bidder, err := buildPlayer(cfg, cfg.Valuations)
	if err != nil {
		return nil, fmt.Errorf("player 0: %w", err)
	}
	opponent := bidder
	if len(cfg.OpponentValuations) > 0 {
		opponent, err = buildPlayer(cfg, cfg.OpponentValuations)
		if err != nil {
			return nil, fmt.Errorf("opponent: %w", err)
		}
	}

	players := make([]*core.PlayerSpecification, cfg.NumPlayers)
	players[0] = bidder
	for i := 1; i < cfg.NumPlayers; i++ {
		players[i] = opponent.Clone()
	}

	var opts []core.GameOption
	if cfg.AllPay {
		opts = append(opts, core.WithAllPay())
	}
	if cfg.NoTies {
		opts = append(opts, core.WithNoTies())
	}
	return core.NewBayesianGame(cfg.GameName(), players, opts...)
}

func buildPlayer(cfg config.GameConfig, valuations []int64) (*core.PlayerSpecification, error) {
	values := toValues(valuations)
	types := core.TypesFromValuations(values, cfg.AbsentBelowZero)
	actions := toValues(cfg.Actions)
	if len(actions) == 0 {
		actions = presentValues(types)
	}

	if cfg.FullRange {
		return core.NewFullRangePlayer(types, actions, cfg.Monotonic)
	}

	policy, err := core.LookupPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	opts := []core.PlayerOption{core.WithBidRange(policy)}
	if cfg.NoJumps {
		opts = append(opts, core.WithNoJumps())
	}
	return core.NewPlayerSpecification(types, actions, opts...)
}

// PolicyLabel names the strategy restriction cfg applies, as recorded in
// run history and reports.
func PolicyLabel(cfg config.GameConfig) string {
	label := cfg.Policy
	if label == "" {
		label = core.DefaultPolicyName
	}
	if cfg.FullRange {
		label = "full-range"
		if cfg.Monotonic {
			label += "+monotonic"
		}
	}
	if cfg.NoJumps {
		label += "+no-jumps"
	}
	return label
}

func toValues(in []int64) []core.Value {
	out := make([]core.Value, len(in))
	for i, v := range in {
		out[i] = core.Value(v)
	}
	return out
}

// presentValues returns the valuations of the present types, which double as
// the default action set.
func presentValues(types []core.Type) []core.Value {
	values := make([]core.Value, 0, len(types))
	for _, t := range types {
		if !t.IsAbsent() {
			values = append(values, t.Valuation)
		}
	}
	return values
}
