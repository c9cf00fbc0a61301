package gambit

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestParseEquilibria(t *testing.T) {
	output := []byte("NE,1,0,0,0,1\n\nNE,1/2,1/2,0,0.25,0.75\n")

	equilibria, err := ParseEquilibria(output, []int{3, 2})
	assert.NoError(t, err)
	check.Equal(t, 2, len(equilibria))

	expected := map[StrategyRef]string{
		{Player: 0, Strategy: 0}: "1",
		{Player: 0, Strategy: 1}: "0",
		{Player: 0, Strategy: 2}: "0",
		{Player: 1, Strategy: 0}: "0",
		{Player: 1, Strategy: 1}: "1",
	}
	check.Equal(t, expected, equilibria[0].Probabilities)

	p, ok := equilibria[1].Probability(StrategyRef{Player: 1, Strategy: 0})
	check.True(t, ok)
	check.Equal(t, "0.25", p)

	_, ok = equilibria[1].Probability(StrategyRef{Player: 2, Strategy: 0})
	check.False(t, ok)

	check.Equal(t, "1/2,1/2,0,0.25,0.75", equilibria[1].String())
}

func TestParseEquilibria_Empty(t *testing.T) {
	equilibria, err := ParseEquilibria(nil, []int{2, 2})
	check.NoError(t, err)
	check.Equal(t, 0, len(equilibria))

	equilibria, err = ParseEquilibria([]byte("\n  \n"), []int{2, 2})
	check.NoError(t, err)
	check.Equal(t, 0, len(equilibria))
}

func TestParseEquilibria_Malformed(t *testing.T) {
	inputs := map[string]string{
		"too few":   "NE,1,0,1\n",
		"too many":  "NE,1,0,1,0,0\n",
		"too short": "NE,\n",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEquilibria([]byte(input), []int{2, 2})
			check.True(t, errors.Is(err, ErrMalformedOutput))
		})
	}
}

func TestEquilibrium_Support(t *testing.T) {
	equilibria, err := ParseEquilibria([]byte("NE,0,1/3,2/3,1,0\nNE,0,1,0,0,1\n"), []int{3, 2})
	assert.NoError(t, err)

	support, err := equilibria[0].Support()
	assert.NoError(t, err)
	check.Equal(t, []StrategyRef{
		{Player: 0, Strategy: 1},
		{Player: 0, Strategy: 2},
		{Player: 1, Strategy: 0},
	}, support)

	_, ok := equilibria[0].PureProfile()
	check.False(t, ok)

	profile, ok := equilibria[1].PureProfile()
	check.True(t, ok)
	check.Equal(t, []int{1, 1}, profile)
}

func TestEquilibrium_SupportRejectsGarbage(t *testing.T) {
	equilibria, err := ParseEquilibria([]byte("NE,x,1\n"), []int{2})
	assert.NoError(t, err)

	_, err = equilibria[0].Support()
	check.True(t, errors.Is(err, ErrMalformedOutput))
}

func TestParseProbability(t *testing.T) {
	tests := []struct {
		input    string
		positive bool
	}{
		{"0", false},
		{"0.000", false},
		{"1", true},
		{"0.5", true},
		{"1/3", true},
		{"0/7", false},
		{" 2/3 ", true},
		{"1e-12", true},
	}

	for _, tt := range tests {
		d, err := ParseProbability(tt.input)
		assert.NoError(t, err)
		check.Equal(t, tt.positive, d.IsPositive())
	}

	for _, bad := range []string{"", "abc", "1/0", "1/x", "x/2"} {
		_, err := ParseProbability(bad)
		check.True(t, errors.Is(err, ErrMalformedOutput))
	}
}
