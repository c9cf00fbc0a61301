package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestLookupPolicy(t *testing.T) {
	policy, err := LookupPolicy("")
	check.NoError(t, err)
	minBid, maxBid := policy.BidRange(4, 1)
	check.Equal(t, Value(1), minBid)
	check.Equal(t, Value(4), maxBid)

	_, err = LookupPolicy("second-price")
	check.True(t, errors.Is(err, ErrInvalidSpecification))
}

func TestPolicyNames(t *testing.T) {
	expected := []string{
		"eleven-valuations",
		"shaded",
		"shaded-min-one",
		"thirteen-valuations",
		"three-players-ties",
		"valuation-cap",
	}
	check.Equal(t, expected, PolicyNames())
}

func TestNamedPolicies(t *testing.T) {
	tests := []struct {
		policy    string
		valuation Value
		previous  Value
		minBid    Value
		maxBid    Value
	}{
		{"shaded", 0, 0, 0, 0},
		{"shaded", 5, 2, 2, 4},
		{"shaded-min-one", 1, 0, 0, 0},
		{"shaded-min-one", 3, 0, 1, 2},
		{"shaded-min-one", 3, 2, 2, 2},
		{"three-players-ties", 1, 0, 0, 0},
		{"three-players-ties", 3, 0, 1, 2},
		{"three-players-ties", 6, 1, 2, 5},
		{"eleven-valuations", 2, 0, 0, 1},
		{"eleven-valuations", 5, 0, 1, 3},
		{"eleven-valuations", 8, 3, 3, 5},
		{"eleven-valuations", 10, 4, 4, 6},
		{"thirteen-valuations", 4, 0, 1, 3},
		{"thirteen-valuations", 7, 2, 2, 5},
		{"thirteen-valuations", 10, 3, 3, 7},
		{"thirteen-valuations", 12, 5, 5, 8},
	}

	for _, tt := range tests {
		policy, err := LookupPolicy(tt.policy)
		assert.NoError(t, err)

		minBid, maxBid := policy.BidRange(tt.valuation, tt.previous)
		check.Equal(t, tt.minBid, minBid)
		check.Equal(t, tt.maxBid, maxBid)
	}
}

func TestNoJumps(t *testing.T) {
	policy := NoJumps(ValuationCap)

	minBid, maxBid := policy.BidRange(10, 3)
	check.Equal(t, Value(3), minBid)
	check.Equal(t, Value(4), maxBid)

	// Below the jump limit the inner policy decides.
	minBid, maxBid = policy.BidRange(3, 3)
	check.Equal(t, Value(3), minBid)
	check.Equal(t, Value(3), maxBid)
}
