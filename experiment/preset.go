package experiment

import (
	"fmt"
	"sort"

	"github.com/cloudx-io/bayesauction/config"
	"github.com/cloudx-io/bayesauction/core"
)

// Preset is a named, ready to run auction.
type Preset struct {
	Name        string
	Description string
	Game        config.GameConfig
	OnlyPure    bool
}

// Apply replaces the game and solver mode of cfg with the preset's.
func (p Preset) Apply(cfg *config.Config) {
	cfg.Game = p.Game
	cfg.Solver.OnlyPure = p.OnlyPure
}

func valueRange(from, to int64) []int64 {
	values := make([]int64, 0, max(to-from, 0))
	for v := from; v < to; v++ {
		values = append(values, v)
	}
	return values
}

var presets = map[string]Preset{
	"first-price": {
		Name:        "first-price",
		Description: "two bidders, valuations 0..8, first-price",
		Game: config.GameConfig{
			NumPlayers: 2,
			Valuations: valueRange(0, 9),
			Policy:     core.DefaultPolicyName,
		},
		OnlyPure: true,
	},
	"all-pay": {
		Name:        "all-pay",
		Description: "two bidders, valuations 0..6, all-pay with shared ties",
		Game: config.GameConfig{
			NumPlayers: 2,
			Valuations: valueRange(0, 7),
			Policy:     core.DefaultPolicyName,
			AllPay:     true,
		},
		OnlyPure: true,
	},
	"all-pay-no-ties": {
		Name:        "all-pay-no-ties",
		Description: "two bidders, valuations 0..6, all-pay where tied bidders win nothing",
		Game: config.GameConfig{
			NumPlayers: 2,
			Valuations: valueRange(0, 7),
			Policy:     core.DefaultPolicyName,
			AllPay:     true,
			NoTies:     true,
		},
		OnlyPure: true,
	},
	"three-bidders": {
		Name:        "three-bidders",
		Description: "three bidders, valuations 0..6, first-price where tied bidders win nothing",
		Game: config.GameConfig{
			NumPlayers: 3,
			Valuations: valueRange(0, 7),
			Policy:     core.DefaultPolicyName,
			NoTies:     true,
		},
		OnlyPure: true,
	},
	"eleven-valuations": {
		Name:        "eleven-valuations",
		Description: "two bidders, valuations 0..10, shaded piecewise bid ranges",
		Game: config.GameConfig{
			NumPlayers: 2,
			Valuations: valueRange(0, 11),
			Policy:     "eleven-valuations",
		},
		OnlyPure: true,
	},
	"pezanis": {
		Name:        "pezanis",
		Description: "strong bidder 0..2 against a weak bidder absent below zero, no jumps",
		Game: config.GameConfig{
			Name:               "pezanis_3_strong_9_weak_auction",
			NumPlayers:         2,
			Valuations:         valueRange(0, 3),
			OpponentValuations: valueRange(-6, 3),
			Policy:             core.DefaultPolicyName,
			NoJumps:            true,
			AbsentBelowZero:    true,
		},
		OnlyPure: false,
	},
	"gnuth": {
		Name:        "gnuth",
		Description: "strong bidder 50..55 against a weak bidder 50..53",
		Game: config.GameConfig{
			Name:               "6_strong_4_weak_auction",
			NumPlayers:         2,
			Valuations:         valueRange(50, 56),
			OpponentValuations: valueRange(50, 54),
			Policy:             core.DefaultPolicyName,
		},
		OnlyPure: false,
	},
}

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	p.Game.Valuations = append([]int64(nil), p.Game.Valuations...)
	p.Game.OpponentValuations = append([]int64(nil), p.Game.OpponentValuations...)
	return p, nil
}

// Presets lists every preset by name.
func Presets() []Preset {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Preset, 0, len(names))
	for _, name := range names {
		p, _ := LookupPreset(name)
		out = append(out, p)
	}
	return out
}
