package core

import (
	"fmt"
	"math/big"
)

// Prior assigns a probability to every type tuple of a game. The
// probabilities of all tuples must sum to exactly one.
type Prior interface {
	Probability(players []*PlayerSpecification, tuple TypeTuple) *big.Rat
}

// UniformPrior draws every player's type independently and uniformly.
type UniformPrior struct{}

// Probability returns 1 / prod(|types_i|).
func (UniformPrior) Probability(players []*PlayerSpecification, _ TypeTuple) *big.Rat {
	denominator := big.NewInt(1)
	for _, p := range players {
		denominator.Mul(denominator, big.NewInt(int64(p.NumTypes())))
	}
	if denominator.Sign() == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(big.NewInt(1), denominator)
}

// BayesianGame is a sealed-bid auction among players with private types.
// Expected utilities are a pure function of the game and a strategy profile.
type BayesianGame struct {
	name    string
	players []*PlayerSpecification
	rule    AllocationRule
	prior   Prior
}

// GameOption configures a BayesianGame.
type GameOption func(*BayesianGame)

// WithAllPay charges losers their bid.
func WithAllPay() GameOption {
	return func(g *BayesianGame) {
		g.rule.AllPay = true
	}
}

// WithNoTies disqualifies every bidder tied at the top.
func WithNoTies() GameOption {
	return func(g *BayesianGame) {
		g.rule.NoTies = true
	}
}

// WithAllocationRule replaces the whole allocation rule.
func WithAllocationRule(rule AllocationRule) GameOption {
	return func(g *BayesianGame) {
		g.rule = rule
	}
}

// WithPrior replaces the uniform prior over type tuples.
func WithPrior(prior Prior) GameOption {
	return func(g *BayesianGame) {
		g.prior = prior
	}
}

// NewBayesianGame builds a game over players, in seat order. Every player must
// have at least one type and at least one admissible strategy.
func NewBayesianGame(name string, players []*PlayerSpecification, opts ...GameOption) (*BayesianGame, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("game %q has no players: %w", name, ErrInvalidSpecification)
	}
	for i, p := range players {
		if p == nil {
			return nil, fmt.Errorf("game %q: player %d is nil: %w", name, i, ErrInvalidSpecification)
		}
		if p.NumTypes() == 0 {
			return nil, fmt.Errorf("game %q: player %d has no types: %w", name, i, ErrInvalidSpecification)
		}
		if p.NumStrategies() == 0 {
			return nil, fmt.Errorf("game %q: player %d has no admissible strategy: %w", name, i, ErrInvalidSpecification)
		}
	}

	g := &BayesianGame{
		name:    name,
		players: append([]*PlayerSpecification(nil), players...),
		prior:   UniformPrior{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Name returns the game name used for the NFG file.
func (g *BayesianGame) Name() string {
	return g.name
}

// NumPlayers returns the number of seats.
func (g *BayesianGame) NumPlayers() int {
	return len(g.players)
}

// Players returns the player specifications in seat order.
func (g *BayesianGame) Players() []*PlayerSpecification {
	return append([]*PlayerSpecification(nil), g.players...)
}

// Player returns the specification seated at index i.
func (g *BayesianGame) Player(i int) (*PlayerSpecification, error) {
	if i < 0 || i >= len(g.players) {
		return nil, fmt.Errorf("player %d of %d: %w", i, len(g.players), ErrIndexOutOfRange)
	}
	return g.players[i], nil
}

// Rule returns the allocation rule applied to every type tuple.
func (g *BayesianGame) Rule() AllocationRule {
	return g.rule
}

// AllPay reports whether losers pay their bid.
func (g *BayesianGame) AllPay() bool {
	return g.rule.AllPay
}

// NoTies reports whether a tie at the top disqualifies the tied bidders.
func (g *BayesianGame) NoTies() bool {
	return g.rule.NoTies
}

// TypesProbability returns the prior probability of tuple.
func (g *BayesianGame) TypesProbability(tuple TypeTuple) (*big.Rat, error) {
	if len(tuple) != len(g.players) {
		return nil, fmt.Errorf("type tuple has %d entries for %d players: %w", len(tuple), len(g.players), ErrProfileSizeMismatch)
	}
	return g.prior.Probability(g.players, tuple), nil
}

// TypeTuples enumerates the Cartesian product of the players' types, last
// player fastest.
func (g *BayesianGame) TypeTuples() []TypeTuple {
	tuples := make([]TypeTuple, 0)
	g.forEachTypeTuple(func(_ []int, tuple TypeTuple) {
		tuples = append(tuples, append(TypeTuple(nil), tuple...))
	})
	return tuples
}

func (g *BayesianGame) forEachTypeTuple(fn func(indices []int, tuple TypeTuple)) {
	for _, p := range g.players {
		if p.NumTypes() == 0 {
			return
		}
	}

	indices := make([]int, len(g.players))
	tuple := make(TypeTuple, len(g.players))
	for {
		for i, p := range g.players {
			tuple[i] = p.types[indices[i]]
		}
		fn(indices, tuple)

		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < g.players[pos].NumTypes() {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return
		}
	}
}

// PlayerBids returns the bids of the players present in tuple under profile.
func (g *BayesianGame) PlayerBids(tuple TypeTuple, profile StrategyProfile) ([]Bid, error) {
	if err := g.validateProfile(profile); err != nil {
		return nil, err
	}
	if len(tuple) != len(g.players) {
		return nil, fmt.Errorf("type tuple has %d entries for %d players: %w", len(tuple), len(g.players), ErrProfileSizeMismatch)
	}

	bids := make([]Bid, 0, len(g.players))
	for i, t := range tuple {
		if t.IsAbsent() {
			if _, err := g.players[i].TypeIndex(t); err != nil {
				return nil, fmt.Errorf("player %d: %w", i, err)
			}
			continue
		}
		amount, err := g.players[i].Action(profile[i], t)
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", i, err)
		}
		bids = append(bids, Bid{Player: i, Amount: amount, Valuation: t.Valuation})
	}
	return bids, nil
}

// Utility returns the realized utility vector for tuple under profile.
func (g *BayesianGame) Utility(tuple TypeTuple, profile StrategyProfile) (Utilities, error) {
	bids, err := g.PlayerBids(tuple, profile)
	if err != nil {
		return nil, err
	}
	return g.rule.Allocate(len(g.players), bids), nil
}

// ExpectedUtilities sums probability * utility over every type tuple.
func (g *BayesianGame) ExpectedUtilities(profile StrategyProfile) (Utilities, error) {
	if err := g.validateProfile(profile); err != nil {
		return nil, err
	}
	return g.expectedUtilities(profile), nil
}

// expectedUtilities assumes profile has been validated.
func (g *BayesianGame) expectedUtilities(profile StrategyProfile) Utilities {
	expected := NewUtilities(len(g.players))
	bids := make([]Bid, 0, len(g.players))

	g.forEachTypeTuple(func(indices []int, tuple TypeTuple) {
		bids = presentBids(bids[:0], indices, tuple, profile)
		probability := g.prior.Probability(g.players, tuple)
		expected.AddScaled(probability, g.rule.Allocate(len(g.players), bids))
	})
	return expected
}

// SampleUtilities weights every type tuple by its prior probability like
// ExpectedUtilities, but plays each tuple out draws times with ties broken by
// randSource and averages the realized utilities. A nil randSource draws from
// crypto/rand.
func (g *BayesianGame) SampleUtilities(profile StrategyProfile, draws int, randSource RandSource) (Utilities, error) {
	if err := g.validateProfile(profile); err != nil {
		return nil, err
	}
	if draws <= 0 {
		return nil, fmt.Errorf("draws must be positive, got %d: %w", draws, ErrInvalidSpecification)
	}

	sampled := NewUtilities(len(g.players))
	bids := make([]Bid, 0, len(g.players))
	perDraw := big.NewRat(1, int64(draws))

	g.forEachTypeTuple(func(indices []int, tuple TypeTuple) {
		bids = presentBids(bids[:0], indices, tuple, profile)
		weight := new(big.Rat).Mul(g.prior.Probability(g.players, tuple), perDraw)
		for range draws {
			sampled.AddScaled(weight, g.rule.Realize(len(g.players), bids, randSource))
		}
	})
	return sampled, nil
}

// presentBids appends the bid of every present player in tuple to bids.
func presentBids(bids []Bid, indices []int, tuple TypeTuple, profile StrategyProfile) []Bid {
	for i, t := range tuple {
		if t.IsAbsent() {
			continue
		}
		bids = append(bids, Bid{Player: i, Amount: profile[i][indices[i]], Valuation: t.Valuation})
	}
	return bids
}

// ProfileAt resolves one catalogue index per player into a strategy profile.
func (g *BayesianGame) ProfileAt(indices []int) (StrategyProfile, error) {
	if len(indices) != len(g.players) {
		return nil, fmt.Errorf("profile has %d indices for %d players: %w", len(indices), len(g.players), ErrProfileSizeMismatch)
	}
	profile := make(StrategyProfile, len(indices))
	for i, idx := range indices {
		s, err := g.players[i].Strategy(idx)
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", i, err)
		}
		profile[i] = s
	}
	return profile, nil
}

func (g *BayesianGame) validateProfile(profile StrategyProfile) error {
	if len(profile) != len(g.players) {
		return fmt.Errorf("profile has %d strategies for %d players: %w", len(profile), len(g.players), ErrProfileSizeMismatch)
	}
	for i, s := range profile {
		if err := g.players[i].validateStrategy(s); err != nil {
			return fmt.Errorf("player %d: %w", i, err)
		}
	}
	return nil
}
