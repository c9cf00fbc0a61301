package core

import (
	"math/big"
	"strings"
)

// Utilities is a payoff vector with one exact rational entry per player.
type Utilities []*big.Rat

// NewUtilities returns a zero vector for n players.
func NewUtilities(n int) Utilities {
	u := make(Utilities, n)
	for i := range u {
		u[i] = new(big.Rat)
	}
	return u
}

// AddScaled accumulates weight*other into u componentwise.
func (u Utilities) AddScaled(weight *big.Rat, other Utilities) {
	term := new(big.Rat)
	for i := range u {
		term.Mul(weight, other[i])
		u[i].Add(u[i], term)
	}
}

// Strings renders every entry as a reduced fraction ("1/2", "0", "-3").
func (u Utilities) Strings() []string {
	out := make([]string, len(u))
	for i, r := range u {
		out[i] = r.RatString()
	}
	return out
}

func (u Utilities) String() string {
	return "(" + strings.Join(u.Strings(), ", ") + ")"
}

func ratFromValue(v Value) *big.Rat {
	return new(big.Rat).SetInt64(int64(v))
}
