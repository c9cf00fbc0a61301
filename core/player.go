package core

import (
	"fmt"
	"strings"
	"sync"
)

// PlayerSpecification describes one player's strategic environment: its
// types, its actions and the rule deciding which bids are admissible. The
// pure-strategy catalogue is computed on first use and never changes after.
//
// A specification with no types has exactly one, empty, strategy. A
// specification with types but no actions has none, and a game built from it
// is rejected with ErrInvalidSpecification.
type PlayerSpecification struct {
	types   []Type
	actions []Value

	// policy drives the bidding graph. When nil, strategies are the full
	// Cartesian product of actions, optionally kept weakly increasing.
	policy    BidRangePolicy
	noJumps   bool
	monotonic bool

	typeIndex   map[Type]int
	actionIndex map[Value]int

	once          sync.Once
	strategies    []Strategy
	strategyIndex map[string]int
}

// PlayerOption configures a PlayerSpecification.
type PlayerOption func(*PlayerSpecification)

// WithBidRange enumerates strategies through the bidding graph driven by policy.
func WithBidRange(policy BidRangePolicy) PlayerOption {
	return func(p *PlayerSpecification) {
		p.policy = policy
	}
}

// WithNoJumps caps every bid at the previous type's bid plus one.
func WithNoJumps() PlayerOption {
	return func(p *PlayerSpecification) {
		p.noJumps = true
	}
}

// WithMonotonic keeps only weakly increasing bid sequences when strategies
// are the full Cartesian product.
func WithMonotonic() PlayerOption {
	return func(p *PlayerSpecification) {
		p.monotonic = true
	}
}

// NewPlayerSpecification validates types and actions and returns the
// specification. Types and actions must be free of duplicates.
func NewPlayerSpecification(types []Type, actions []Value, opts ...PlayerOption) (*PlayerSpecification, error) {
	p := &PlayerSpecification{
		types:       append([]Type(nil), types...),
		actions:     append([]Value(nil), actions...),
		typeIndex:   make(map[Type]int, len(types)),
		actionIndex: make(map[Value]int, len(actions)),
	}

	for i, t := range p.types {
		if _, dup := p.typeIndex[t]; dup {
			return nil, fmt.Errorf("duplicate type %s: %w", t, ErrInvalidSpecification)
		}
		p.typeIndex[t] = i
	}
	for i, a := range p.actions {
		if _, dup := p.actionIndex[a]; dup {
			return nil, fmt.Errorf("duplicate action %d: %w", a, ErrInvalidSpecification)
		}
		p.actionIndex[a] = i
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.noJumps && p.policy == nil {
		return nil, fmt.Errorf("no-jump restriction needs a bid range policy: %w", ErrInvalidSpecification)
	}
	if p.noJumps {
		p.policy = NoJumps(p.policy)
	}

	return p, nil
}

// NewAuctionPlayer returns a bidder whose types and actions are both
// valuations and whose bids are weakly increasing and never above valuation,
// unless opts override the policy.
func NewAuctionPlayer(valuations []Value, opts ...PlayerOption) (*PlayerSpecification, error) {
	opts = append([]PlayerOption{WithBidRange(ValuationCap)}, opts...)
	return NewPlayerSpecification(TypesFromValuations(valuations, false), valuations, opts...)
}

// NewFullRangePlayer returns a player who may play any action under any type.
func NewFullRangePlayer(types []Type, actions []Value, monotonic bool) (*PlayerSpecification, error) {
	if monotonic {
		return NewPlayerSpecification(types, actions, WithMonotonic())
	}
	return NewPlayerSpecification(types, actions)
}

// Clone returns an independent specification with the same types, actions
// and rules. Symmetric games clone one bidder per seat.
func (p *PlayerSpecification) Clone() *PlayerSpecification {
	clone := &PlayerSpecification{
		types:       append([]Type(nil), p.types...),
		actions:     append([]Value(nil), p.actions...),
		policy:      p.policy,
		noJumps:     p.noJumps,
		monotonic:   p.monotonic,
		typeIndex:   make(map[Type]int, len(p.typeIndex)),
		actionIndex: make(map[Value]int, len(p.actionIndex)),
	}
	for k, v := range p.typeIndex {
		clone.typeIndex[k] = v
	}
	for k, v := range p.actionIndex {
		clone.actionIndex[k] = v
	}
	return clone
}

// Types returns a copy of the player's types.
func (p *PlayerSpecification) Types() []Type {
	return append([]Type(nil), p.types...)
}

// Actions returns a copy of the player's actions.
func (p *PlayerSpecification) Actions() []Value {
	return append([]Value(nil), p.actions...)
}

// NumTypes returns the number of private types.
func (p *PlayerSpecification) NumTypes() int {
	return len(p.types)
}

// TypeIndex returns the position of t among the player's types.
func (p *PlayerSpecification) TypeIndex(t Type) (int, error) {
	i, ok := p.typeIndex[t]
	if !ok {
		return -1, fmt.Errorf("type %s: %w", t, ErrIndexOutOfRange)
	}
	return i, nil
}

// ActionIndex returns the position of a among the player's actions.
func (p *PlayerSpecification) ActionIndex(a Value) (int, error) {
	i, ok := p.actionIndex[a]
	if !ok {
		return -1, fmt.Errorf("action %d: %w", a, ErrIndexOutOfRange)
	}
	return i, nil
}

// BidRange returns the admissible bids for t after previousBid. Players
// without a policy use ValuationCap.
func (p *PlayerSpecification) BidRange(t Type, previousBid Value) (Value, Value) {
	policy := p.policy
	if policy == nil {
		policy = ValuationCap
	}
	return policy.BidRange(t.Valuation, previousBid)
}

// PureStrategies returns the strategy catalogue in its stable order.
func (p *PlayerSpecification) PureStrategies() []Strategy {
	p.once.Do(p.initStrategies)
	return append([]Strategy(nil), p.strategies...)
}

// NumStrategies returns the size of the strategy catalogue.
func (p *PlayerSpecification) NumStrategies() int {
	p.once.Do(p.initStrategies)
	return len(p.strategies)
}

// Strategy returns the i-th strategy of the catalogue.
func (p *PlayerSpecification) Strategy(i int) (Strategy, error) {
	p.once.Do(p.initStrategies)
	if i < 0 || i >= len(p.strategies) {
		return nil, fmt.Errorf("strategy %d of %d: %w", i, len(p.strategies), ErrIndexOutOfRange)
	}
	return p.strategies[i], nil
}

// StrategyIndex returns the catalogue position of s.
func (p *PlayerSpecification) StrategyIndex(s Strategy) (int, error) {
	p.once.Do(p.initStrategies)
	i, ok := p.strategyIndex[s.Key()]
	if !ok {
		return -1, fmt.Errorf("strategy %s: %w", s, ErrIndexOutOfRange)
	}
	return i, nil
}

// Action returns the bid s prescribes for t.
func (p *PlayerSpecification) Action(s Strategy, t Type) (Value, error) {
	i, err := p.TypeIndex(t)
	if err != nil {
		return 0, err
	}
	if i >= len(s) {
		return 0, fmt.Errorf("strategy %s has no bid for type %s: %w", s, t, ErrIndexOutOfRange)
	}
	return s[i], nil
}

// StrategyDescription renders s as Type_<t>_action_<a>_Type_<t>_action_<a>...
func (p *PlayerSpecification) StrategyDescription(s Strategy) string {
	parts := make([]string, 0, len(s))
	for i, action := range s {
		label := fmt.Sprint(i)
		if i < len(p.types) {
			label = p.types[i].String()
		}
		parts = append(parts, fmt.Sprintf("Type_%s_action_%d", label, action))
	}
	return strings.Join(parts, "_")
}

// validateStrategy checks s has one bid per type, all drawn from the actions.
func (p *PlayerSpecification) validateStrategy(s Strategy) error {
	if len(s) != len(p.types) {
		return fmt.Errorf("strategy %s has %d bids for %d types: %w", s, len(s), len(p.types), ErrIndexOutOfRange)
	}
	for _, bid := range s {
		if _, ok := p.actionIndex[bid]; !ok {
			return fmt.Errorf("strategy %s bids %d outside the action set: %w", s, bid, ErrIndexOutOfRange)
		}
	}
	return nil
}

func (p *PlayerSpecification) initStrategies() {
	switch {
	case len(p.types) == 0:
		p.strategies = []Strategy{{}}
	case p.policy != nil:
		p.strategies = buildBiddingGraph(p.types, p.actions, p.policy).strategies(len(p.types))
	default:
		p.strategies = p.cartesianStrategies()
	}

	p.strategyIndex = make(map[string]int, len(p.strategies))
	for i, s := range p.strategies {
		p.strategyIndex[s.Key()] = i
	}
}

// cartesianStrategies walks actions^|types| in lexicographic order, last
// type fastest. Absent types stay on the first action.
func (p *PlayerSpecification) cartesianStrategies() []Strategy {
	if len(p.actions) == 0 {
		return []Strategy{}
	}

	result := make([]Strategy, 0)
	digits := make([]int, len(p.types))
	for {
		strategy := make(Strategy, len(p.types))
		for i, d := range digits {
			strategy[i] = p.actions[d]
		}
		if !p.monotonic || weaklyIncreasing(strategy, p.types) {
			result = append(result, strategy)
		}

		pos := len(digits) - 1
		for pos >= 0 {
			if p.types[pos].IsAbsent() {
				pos--
				continue
			}
			digits[pos]++
			if digits[pos] < len(p.actions) {
				break
			}
			digits[pos] = 0
			pos--
		}
		if pos < 0 {
			return result
		}
	}
}

func weaklyIncreasing(s Strategy, types []Type) bool {
	started := false
	var previous Value
	for i, bid := range s {
		if types[i].IsAbsent() {
			continue
		}
		if started && bid < previous {
			return false
		}
		previous, started = bid, true
	}
	return true
}
