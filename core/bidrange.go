package core

import (
	"fmt"
	"sort"
)

// BidRangePolicy decides which bids a player may submit for a valuation given
// the bid submitted for the previous type. A range with minBid > maxBid admits
// nothing and silently prunes that branch of the bidding graph.
type BidRangePolicy interface {
	BidRange(valuation, previousBid Value) (minBid, maxBid Value)
}

// BidRangeFunc adapts an ordinary function to a BidRangePolicy.
type BidRangeFunc func(valuation, previousBid Value) (minBid, maxBid Value)

// BidRange calls f(valuation, previousBid).
func (f BidRangeFunc) BidRange(valuation, previousBid Value) (Value, Value) {
	return f(valuation, previousBid)
}

// ValuationCap is the default rule: bids are weakly increasing in the type and
// never exceed the valuation.
var ValuationCap BidRangePolicy = BidRangeFunc(func(valuation, previousBid Value) (Value, Value) {
	return previousBid, valuation
})

type noJumps struct {
	inner BidRangePolicy
}

func (n noJumps) BidRange(valuation, previousBid Value) (Value, Value) {
	minBid, maxBid := n.inner.BidRange(valuation, previousBid)
	if limit := previousBid + 1; maxBid > limit {
		maxBid = limit
	}
	return minBid, maxBid
}

// NoJumps restricts policy so that consecutive types raise the bid by at most
// one unit.
func NoJumps(policy BidRangePolicy) BidRangePolicy {
	return noJumps{inner: policy}
}

func shadedMax(valuation Value) Value {
	return max(valuation-1, 0)
}

var namedPolicies = map[string]BidRangePolicy{
	"valuation-cap": ValuationCap,

	"shaded": BidRangeFunc(func(valuation, previousBid Value) (Value, Value) {
		return previousBid, shadedMax(valuation)
	}),

	"shaded-min-one": BidRangeFunc(func(valuation, previousBid Value) (Value, Value) {
		minBid := previousBid
		if valuation >= 2 && minBid == 0 {
			minBid = 1
		}
		return minBid, shadedMax(valuation)
	}),

	"three-players-ties": BidRangeFunc(func(valuation, previousBid Value) (Value, Value) {
		minBid := previousBid
		switch {
		case valuation >= 2 && valuation <= 4:
			minBid = 1
		case valuation >= 5:
			minBid = 2
		}
		return minBid, shadedMax(valuation)
	}),

	"eleven-valuations": BidRangeFunc(func(valuation, previousBid Value) (Value, Value) {
		minBid := previousBid
		maxBid := min(valuation-1, 6)
		if valuation >= 3 && minBid == 0 {
			minBid = 1
		}
		switch {
		case valuation == 5:
			maxBid = 3
		case valuation == 6:
			maxBid = 4
		case valuation >= 7 && valuation <= 8:
			maxBid = 5
		}
		return minBid, maxBid
	}),

	"thirteen-valuations": BidRangeFunc(func(valuation, previousBid Value) (Value, Value) {
		minBid := previousBid
		maxBid := valuation - 1
		if valuation >= 3 && minBid == 0 {
			minBid = 1
		}
		switch {
		case valuation >= 6 && valuation <= 8:
			maxBid = valuation - 2
		case valuation >= 9 && valuation <= 10:
			maxBid = valuation - 3
		case valuation >= 11 && valuation <= 12:
			maxBid = valuation - 4
		}
		return minBid, maxBid
	}),
}

// DefaultPolicyName names the policy used when none is configured.
const DefaultPolicyName = "valuation-cap"

// LookupPolicy returns the named bid-range policy.
func LookupPolicy(name string) (BidRangePolicy, error) {
	if name == "" {
		name = DefaultPolicyName
	}
	policy, ok := namedPolicies[name]
	if !ok {
		return nil, fmt.Errorf("unknown bid range policy %q: %w", name, ErrInvalidSpecification)
	}
	return policy, nil
}

// PolicyNames lists the registered policies in alphabetical order.
func PolicyNames() []string {
	names := make([]string, 0, len(namedPolicies))
	for name := range namedPolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
