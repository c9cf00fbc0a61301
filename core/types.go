package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a valuation or a bid amount. Valuations and bids are integral so
// that every payoff is an exact rational.
type Value int64

// Type is a player's private information: a valuation, or the player's
// absence from the auction. Absent types are kept distinct by their slot
// value so that several absent types can carry separate prior mass.
type Type struct {
	Valuation Value
	absent    bool
}

// Present returns the type of a bidder holding valuation v.
func Present(v Value) Type {
	return Type{Valuation: v}
}

// Absent returns a type under which the player does not take part in the
// auction. slot only distinguishes absent types from one another.
func Absent(slot Value) Type {
	return Type{Valuation: slot, absent: true}
}

// IsAbsent reports whether the player sits out the auction under this type.
func (t Type) IsAbsent() bool {
	return t.absent
}

func (t Type) String() string {
	if t.absent {
		return "absent" + strconv.FormatInt(int64(t.Valuation), 10)
	}
	return strconv.FormatInt(int64(t.Valuation), 10)
}

// TypesFromValuations converts raw valuations to types. When absentBelowZero
// is set, negative valuations become absent types.
func TypesFromValuations(valuations []Value, absentBelowZero bool) []Type {
	types := make([]Type, len(valuations))
	for i, v := range valuations {
		if absentBelowZero && v < 0 {
			types[i] = Absent(v)
			continue
		}
		types[i] = Present(v)
	}
	return types
}

// ValueRange returns the integers in [from, to).
func ValueRange(from, to Value) []Value {
	if to <= from {
		return []Value{}
	}
	values := make([]Value, 0, to-from)
	for v := from; v < to; v++ {
		values = append(values, v)
	}
	return values
}

// Strategy maps every type index of a player to the bid played under it.
type Strategy []Value

// Key returns a comparable encoding of the strategy, used for deduplication
// and catalogue lookups.
func (s Strategy) Key() string {
	var sb strings.Builder
	for i, bid := range s {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(int64(bid), 10))
	}
	return sb.String()
}

func (s Strategy) String() string {
	return "(" + s.Key() + ")"
}

// Equal reports whether both strategies prescribe the same bids.
func (s Strategy) Equal(other Strategy) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// StrategyProfile holds one strategy per player, in player order.
type StrategyProfile []Strategy

// TypeTuple holds one realized type per player, in player order.
type TypeTuple []Type

func (tt TypeTuple) String() string {
	parts := make([]string, len(tt))
	for i, t := range tt {
		parts[i] = t.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}

// Bid is the bid a player submits for a realized type tuple. Bids of absent
// players are never built.
type Bid struct {
	Player    int
	Amount    Value
	Valuation Value
}
