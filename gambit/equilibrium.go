package gambit

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// outputPrefixLen is the width of the tag ("NE,") preceding every
// equilibrium line of the solver output.
const outputPrefixLen = 3

// ErrMalformedOutput is returned when solver output does not match the
// catalogues of the game it was run on.
var ErrMalformedOutput = errors.New("malformed solver output")

// StrategyRef addresses one strategy of one player's catalogue.
type StrategyRef struct {
	Player   int
	Strategy int
}

// Equilibrium maps every strategy of every player to the probability the
// solver assigned it. Probabilities keep the solver's own notation.
type Equilibrium struct {
	Probabilities  map[StrategyRef]string
	CatalogueSizes []int
}

// Probability returns the probability string of ref.
func (e Equilibrium) Probability(ref StrategyRef) (string, bool) {
	p, ok := e.Probabilities[ref]
	return p, ok
}

// Support lists the strategies played with positive probability, by player
// then catalogue order.
func (e Equilibrium) Support() ([]StrategyRef, error) {
	refs := make([]StrategyRef, 0)
	for ref, p := range e.Probabilities {
		d, err := ParseProbability(p)
		if err != nil {
			return nil, fmt.Errorf("player %d strategy %d: %w", ref.Player, ref.Strategy, err)
		}
		if d.IsPositive() {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Player != refs[j].Player {
			return refs[i].Player < refs[j].Player
		}
		return refs[i].Strategy < refs[j].Strategy
	})
	return refs, nil
}

// PureProfile returns the strategy index of each player when every player
// puts all mass on a single strategy.
func (e Equilibrium) PureProfile() ([]int, bool) {
	support, err := e.Support()
	if err != nil || len(support) != len(e.CatalogueSizes) {
		return nil, false
	}
	profile := make([]int, len(e.CatalogueSizes))
	for i, ref := range support {
		if ref.Player != i {
			return nil, false
		}
		profile[i] = ref.Strategy
	}
	return profile, true
}

// String renders the probabilities in solver order.
func (e Equilibrium) String() string {
	parts := make([]string, 0, len(e.Probabilities))
	for player, size := range e.CatalogueSizes {
		for strategy := range size {
			parts = append(parts, e.Probabilities[StrategyRef{Player: player, Strategy: strategy}])
		}
	}
	return strings.Join(parts, ",")
}

// ParseProbability reads a solver probability, either decimal ("0.5") or
// fractional ("1/2"), without going through floating point.
func ParseProbability(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	num, den, isFraction := strings.Cut(s, "/")
	if !isFraction {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("probability %q: %w", s, ErrMalformedOutput)
		}
		return d, nil
	}

	n, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, fmt.Errorf("probability %q: %w", s, ErrMalformedOutput)
	}
	d, err := decimal.NewFromString(den)
	if err != nil || d.IsZero() {
		return decimal.Zero, fmt.Errorf("probability %q: %w", s, ErrMalformedOutput)
	}
	return n.Div(d), nil
}

// ParseEquilibria decodes solver output, one equilibrium per non-empty line.
// Each line drops its prefix and splits on commas; values are assigned to
// players by walking catalogueSizes in order.
func ParseEquilibria(output []byte, catalogueSizes []int) ([]Equilibrium, error) {
	total := 0
	for _, size := range catalogueSizes {
		total += size
	}

	equilibria := make([]Equilibrium, 0)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if len(text) <= outputPrefixLen {
			return nil, fmt.Errorf("line %d %q is too short: %w", line, text, ErrMalformedOutput)
		}

		values := strings.Split(text[outputPrefixLen:], ",")
		if len(values) != total {
			return nil, fmt.Errorf("line %d has %d probabilities for %d strategies: %w", line, len(values), total, ErrMalformedOutput)
		}

		eq := Equilibrium{
			Probabilities:  make(map[StrategyRef]string, total),
			CatalogueSizes: append([]int(nil), catalogueSizes...),
		}
		player, strategy := 0, 0
		for _, v := range values {
			for catalogueSizes[player] == 0 {
				player++
			}
			eq.Probabilities[StrategyRef{Player: player, Strategy: strategy}] = strings.TrimSpace(v)
			strategy++
			if strategy == catalogueSizes[player] {
				player++
				strategy = 0
			}
		}
		equilibria = append(equilibria, eq)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read solver output: %w", err)
	}
	return equilibria, nil
}
