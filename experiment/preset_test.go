package experiment

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/bayesauction/config"
)

func TestPresets_ValidAndBuildable(t *testing.T) {
	for _, p := range Presets() {
		t.Run(p.Name, func(t *testing.T) {
			cfg := config.Defaults()
			p.Apply(&cfg)
			check.NoError(t, cfg.Validate())
			check.Equal(t, p.OnlyPure, cfg.Solver.OnlyPure)

			g, err := BuildGame(cfg.Game)
			assert.NoError(t, err)
			check.Equal(t, p.Game.NumPlayers, g.NumPlayers())
		})
	}
}

func TestPresets_Sorted(t *testing.T) {
	all := Presets()
	check.Equal(t, len(presets), len(all))
	for i := 1; i < len(all); i++ {
		check.True(t, all[i-1].Name < all[i].Name)
	}
}

func TestLookupPreset(t *testing.T) {
	p, err := LookupPreset("pezanis")
	assert.NoError(t, err)
	check.Equal(t, "pezanis_3_strong_9_weak_auction", p.Game.GameName())
	check.Equal(t, []int64{0, 1, 2}, p.Game.Valuations)
	check.Equal(t, 9, len(p.Game.OpponentValuations))
	check.True(t, p.Game.NoJumps)
	check.True(t, p.Game.AbsentBelowZero)

	// Callers get their own copy of the valuations.
	p.Game.Valuations[0] = 42
	again, err := LookupPreset("pezanis")
	assert.NoError(t, err)
	check.Equal(t, int64(0), again.Game.Valuations[0])

	_, err = LookupPreset("english")
	check.Error(t, err)
}

func TestPreset_ThreeBidders(t *testing.T) {
	p, err := LookupPreset("three-bidders")
	assert.NoError(t, err)
	check.Equal(t, "num_players_3_allpay_false_noties_true_nojumps_false_7_valuations_auction", p.Game.GameName())
}
