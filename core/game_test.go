package core

import (
	"errors"
	"math/big"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func mustGame(t *testing.T, name string, players []*PlayerSpecification, opts ...GameOption) *BayesianGame {
	t.Helper()
	g, err := NewBayesianGame(name, players, opts...)
	assert.NoError(t, err)
	return g
}

func symmetricGame(t *testing.T, valuations []Value, numPlayers int, opts ...GameOption) *BayesianGame {
	t.Helper()
	bidder := mustAuctionPlayer(t, valuations)
	players := make([]*PlayerSpecification, numPlayers)
	for i := range players {
		players[i] = bidder.Clone()
	}
	return mustGame(t, "symmetric", players, opts...)
}

func expectedStrings(t *testing.T, g *BayesianGame, profile ...Strategy) []string {
	t.Helper()
	u, err := g.ExpectedUtilities(profile)
	assert.NoError(t, err)
	return u.Strings()
}

func TestNewBayesianGame_Invalid(t *testing.T) {
	_, err := NewBayesianGame("empty", nil)
	check.True(t, errors.Is(err, ErrInvalidSpecification))

	bidder := mustAuctionPlayer(t, []Value{0, 1})
	_, err = NewBayesianGame("nil_player", []*PlayerSpecification{bidder, nil})
	check.True(t, errors.Is(err, ErrInvalidSpecification))

	// A typeless player still has one empty strategy, but no type tuple exists.
	typeless, err := NewPlayerSpecification(nil, []Value{0, 1})
	assert.NoError(t, err)
	check.Equal(t, 1, typeless.NumStrategies())
	_, err = NewBayesianGame("typeless", []*PlayerSpecification{bidder, typeless})
	check.True(t, errors.Is(err, ErrInvalidSpecification))
}

func TestBayesianGame_Accessors(t *testing.T) {
	g := symmetricGame(t, []Value{0, 1, 2}, 2, WithAllPay())

	check.Equal(t, "symmetric", g.Name())
	check.Equal(t, 2, g.NumPlayers())
	check.True(t, g.AllPay())
	check.False(t, g.NoTies())
	check.Equal(t, AllocationRule{AllPay: true}, g.Rule())

	_, err := g.Player(2)
	check.True(t, errors.Is(err, ErrIndexOutOfRange))

	p, err := g.Player(1)
	check.NoError(t, err)
	check.Equal(t, 5, p.NumStrategies())
}

func TestTypesProbability_SumsToOne(t *testing.T) {
	games := map[string]*BayesianGame{
		"two symmetric":   symmetricGame(t, []Value{0, 1, 2}, 2),
		"three symmetric": symmetricGame(t, []Value{0, 1, 2, 3}, 3),
		"asymmetric": mustGame(t, "asymmetric", []*PlayerSpecification{
			mustAuctionPlayer(t, []Value{0, 1, 2}),
			mustAuctionPlayer(t, []Value{0, 1}),
		}),
	}

	for name, g := range games {
		t.Run(name, func(t *testing.T) {
			sum := new(big.Rat)
			for _, tuple := range g.TypeTuples() {
				p, err := g.TypesProbability(tuple)
				assert.NoError(t, err)
				check.True(t, p.Sign() > 0)
				sum.Add(sum, p)
			}
			check.Equal(t, "1", sum.RatString())
		})
	}
}

func TestTypesProbability_Uniform(t *testing.T) {
	g := mustGame(t, "asymmetric", []*PlayerSpecification{
		mustAuctionPlayer(t, []Value{0, 1, 2}),
		mustAuctionPlayer(t, []Value{0, 1}),
	})

	tuples := g.TypeTuples()
	check.Equal(t, 6, len(tuples))
	check.Equal(t, "[0 0]", tuples[0].String())
	check.Equal(t, "[0 1]", tuples[1].String())
	check.Equal(t, "[2 1]", tuples[5].String())

	p, err := g.TypesProbability(tuples[3])
	check.NoError(t, err)
	check.Equal(t, "1/6", p.RatString())

	_, err = g.TypesProbability(TypeTuple{Present(0)})
	check.True(t, errors.Is(err, ErrProfileSizeMismatch))
}

func TestExpectedUtilities_SymmetricTie(t *testing.T) {
	for _, opts := range [][]GameOption{nil, {WithAllPay()}} {
		g := symmetricGame(t, []Value{0, 1, 2}, 2, opts...)
		zero := Strategy{0, 0, 0}
		check.Equal(t, []string{"1/2", "1/2"}, expectedStrings(t, g, zero, zero))
	}
}

func TestExpectedUtilities_Asymmetric(t *testing.T) {
	g := mustGame(t, "asymmetric", []*PlayerSpecification{
		mustAuctionPlayer(t, []Value{0, 1, 2}),
		mustAuctionPlayer(t, []Value{0, 1}),
	})

	check.Equal(t, []string{"1/2", "1/4"}, expectedStrings(t, g, Strategy{0, 0, 0}, Strategy{0, 0}))
	check.Equal(t, []string{"1/12", "0"}, expectedStrings(t, g, Strategy{0, 0, 2}, Strategy{0, 1}))
}

func TestExpectedUtilities_ThreePlayers(t *testing.T) {
	g := symmetricGame(t, []Value{0, 1, 2}, 3)
	zero := Strategy{0, 0, 0}
	check.Equal(t, []string{"1/3", "1/3", "1/3"}, expectedStrings(t, g, zero, zero, zero))
}

func TestExpectedUtilities_NoTies(t *testing.T) {
	g := symmetricGame(t, []Value{0, 1, 2}, 2, WithNoTies())
	zero := Strategy{0, 0, 0}
	check.Equal(t, []string{"0", "0"}, expectedStrings(t, g, zero, zero))

	// Tied bidders pay their bid and never share the prize.
	g = symmetricGame(t, []Value{0, 1, 2}, 2, WithAllPay(), WithNoTies())
	shaded := Strategy{0, 1, 1}
	check.Equal(t, []string{"-1/3", "-1/3"}, expectedStrings(t, g, shaded, shaded))
}

func TestExpectedUtilities_ConstantBidTies(t *testing.T) {
	types := TypesFromValuations([]Value{1, 2}, false)
	newBidder := func() *PlayerSpecification {
		p, err := NewFullRangePlayer(types, []Value{1}, false)
		assert.NoError(t, err)
		return p
	}
	one := Strategy{1, 1}

	tests := []struct {
		name     string
		opts     []GameOption
		expected []string
	}{
		{"first price split", nil, []string{"1/4", "1/4"}},
		{"all pay split", []GameOption{WithAllPay()}, []string{"-1/4", "-1/4"}},
		{"first price no ties", []GameOption{WithNoTies()}, []string{"0", "0"}},
		{"all pay no ties", []GameOption{WithAllPay(), WithNoTies()}, []string{"-1", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGame(t, tt.name, []*PlayerSpecification{newBidder(), newBidder()}, tt.opts...)
			check.Equal(t, tt.expected, expectedStrings(t, g, one, one))
		})
	}
}

func TestExpectedUtilities_AbsentOpponent(t *testing.T) {
	bidder := mustAuctionPlayer(t, []Value{0, 1, 2})
	opponent, err := NewPlayerSpecification(
		TypesFromValuations([]Value{-1, 0, 1}, true),
		[]Value{0, 1},
		WithBidRange(ValuationCap),
	)
	assert.NoError(t, err)
	g := mustGame(t, "pezanis", []*PlayerSpecification{bidder, opponent})

	check.Equal(t, []string{"2/3", "1/6"}, expectedStrings(t, g, Strategy{0, 0, 0}, Strategy{0, 0, 0}))

	bids, err := g.PlayerBids(TypeTuple{Present(2), Absent(-1)}, StrategyProfile{{0, 0, 1}, {0, 0, 0}})
	check.NoError(t, err)
	check.Equal(t, []Bid{{Player: 0, Amount: 1, Valuation: 2}}, bids)

	u, err := g.Utility(TypeTuple{Present(2), Absent(-1)}, StrategyProfile{{0, 0, 1}, {0, 0, 0}})
	check.NoError(t, err)
	check.Equal(t, []string{"1", "0"}, u.Strings())
}

func TestUtility(t *testing.T) {
	g := symmetricGame(t, []Value{0, 1, 2}, 2, WithAllPay())
	profile := StrategyProfile{{0, 1, 2}, {0, 0, 1}}

	u, err := g.Utility(TypeTuple{Present(2), Present(2)}, profile)
	check.NoError(t, err)
	check.Equal(t, []string{"0", "-1"}, u.Strings())

	_, err = g.Utility(TypeTuple{Present(2), Present(5)}, profile)
	check.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = g.Utility(TypeTuple{Present(2)}, profile)
	check.True(t, errors.Is(err, ErrProfileSizeMismatch))
}

func TestExpectedUtilities_InvalidProfile(t *testing.T) {
	g := symmetricGame(t, []Value{0, 1, 2}, 2)

	_, err := g.ExpectedUtilities(StrategyProfile{{0, 0, 0}})
	check.True(t, errors.Is(err, ErrProfileSizeMismatch))

	_, err = g.ExpectedUtilities(StrategyProfile{{0, 0, 0}, {0, 0}})
	check.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = g.ExpectedUtilities(StrategyProfile{{0, 0, 0}, {0, 0, 7}})
	check.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestExpectedUtilities_ProbabilityWeighted(t *testing.T) {
	g := symmetricGame(t, []Value{0, 1, 2}, 2)
	profile, err := g.ProfileAt([]int{4, 0})
	assert.NoError(t, err)
	check.Equal(t, Strategy{0, 1, 2}, profile[0])

	// Sum utility * probability by hand and compare.
	manual := NewUtilities(2)
	for _, tuple := range g.TypeTuples() {
		u, err := g.Utility(tuple, profile)
		assert.NoError(t, err)
		p, err := g.TypesProbability(tuple)
		assert.NoError(t, err)
		manual.AddScaled(p, u)
	}

	got, err := g.ExpectedUtilities(profile)
	check.NoError(t, err)
	check.Equal(t, manual.Strings(), got.Strings())

	_, err = g.ProfileAt([]int{5, 0})
	check.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = g.ProfileAt([]int{0})
	check.True(t, errors.Is(err, ErrProfileSizeMismatch))
}

// cycleRandSource repeats its sequence forever.
type cycleRandSource struct {
	sequence []int
	index    int
}

func (c *cycleRandSource) Intn(n int) int {
	val := c.sequence[c.index%len(c.sequence)] % n
	c.index++
	return val
}

func TestSampleUtilities_MatchesExpectation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []GameOption
		profile []int
	}{
		{"first price ties", nil, []int{0, 0}},
		{"all pay ties", []GameOption{WithAllPay()}, []int{4, 2}},
		{"all pay no ties", []GameOption{WithAllPay(), WithNoTies()}, []int{3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := symmetricGame(t, []Value{0, 1, 2}, 2, tt.opts...)
			profile, err := g.ProfileAt(tt.profile)
			assert.NoError(t, err)

			// Two draws per tuple alternate the winner of every two-way tie.
			sampled, err := g.SampleUtilities(profile, 2, &cycleRandSource{sequence: []int{0, 1}})
			assert.NoError(t, err)

			expected, err := g.ExpectedUtilities(profile)
			assert.NoError(t, err)
			check.Equal(t, expected.Strings(), sampled.Strings())
		})
	}
}

func TestSampleUtilities_ScriptedTieBreak(t *testing.T) {
	g := symmetricGame(t, []Value{0, 1, 2}, 2)
	// Always pick the second bidder of a tie.
	sampled, err := g.SampleUtilities(StrategyProfile{{0, 0, 0}, {0, 0, 0}}, 3, &cycleRandSource{sequence: []int{0}})
	assert.NoError(t, err)
	check.Equal(t, []string{"0", "1"}, sampled.Strings())
}

func TestSampleUtilities_Invalid(t *testing.T) {
	g := symmetricGame(t, []Value{0, 1, 2}, 2)
	zero := Strategy{0, 0, 0}

	_, err := g.SampleUtilities(StrategyProfile{zero, zero}, 0, nil)
	check.True(t, errors.Is(err, ErrInvalidSpecification))

	_, err = g.SampleUtilities(StrategyProfile{zero}, 10, nil)
	check.True(t, errors.Is(err, ErrProfileSizeMismatch))

	sampled, err := g.SampleUtilities(StrategyProfile{zero, zero}, 10, nil)
	assert.NoError(t, err)
	check.Equal(t, 2, len(sampled))
}
