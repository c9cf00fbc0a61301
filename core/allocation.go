package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
)

// RandSource breaks ties when an auction is played out instead of split in
// expectation. Tests pass a scripted source to pin the winner.
type RandSource interface {
	// Intn returns an integer in [0, n). n must be positive.
	Intn(n int) int
}

// cryptoRandSource draws tie-breaks from crypto/rand.
type cryptoRandSource struct{}

func (cryptoRandSource) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("cryptoRandSource.Intn: n must be positive, got %d", n))
	}
	// Reading from rand.Reader never fails.
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(nBig.Int64())
}

var defaultRandSource RandSource = cryptoRandSource{}

// AllocationRule turns the bids of the present players into utilities.
//
// A single highest bidder wins and earns valuation minus bid. Losers earn
// nothing, or lose their bid when AllPay is set. A tie at the top either
// disqualifies every tied bidder (NoTies) or splits the prize uniformly:
// each tied bidder earns ((k-1)*loser + winner) / k for k tied bidders.
type AllocationRule struct {
	AllPay bool
	NoTies bool
}

// HighestBidders returns the top bid and the positions in bids holding it.
func HighestBidders(bids []Bid) (Value, []int) {
	if len(bids) == 0 {
		return 0, nil
	}

	top := bids[0].Amount
	for _, bid := range bids[1:] {
		if bid.Amount > top {
			top = bid.Amount
		}
	}

	winners := make([]int, 0, 1)
	for i, bid := range bids {
		if bid.Amount == top {
			winners = append(winners, i)
		}
	}
	return top, winners
}

func (r AllocationRule) loserUtility(bid Bid) *big.Rat {
	if r.AllPay {
		return ratFromValue(-bid.Amount)
	}
	return new(big.Rat)
}

func winnerUtility(bid Bid) *big.Rat {
	return ratFromValue(bid.Valuation - bid.Amount)
}

// Allocate returns the utility vector of a numPlayers game for the given bids.
// Players without a bid (absent) keep a zero entry.
func (r AllocationRule) Allocate(numPlayers int, bids []Bid) Utilities {
	utilities := NewUtilities(numPlayers)
	if len(bids) == 0 {
		return utilities
	}

	_, winners := HighestBidders(bids)
	tied := make(map[int]bool, len(winners))
	for _, w := range winners {
		tied[w] = true
	}

	for i, bid := range bids {
		loser := r.loserUtility(bid)

		switch {
		case !tied[i]:
			utilities[bid.Player] = loser
		case len(winners) == 1:
			utilities[bid.Player] = winnerUtility(bid)
		case r.NoTies:
			utilities[bid.Player] = loser
		default:
			k := int64(len(winners))
			blended := new(big.Rat).Mul(loser, big.NewRat(k-1, 1))
			blended.Add(blended, winnerUtility(bid))
			blended.Quo(blended, big.NewRat(k, 1))
			utilities[bid.Player] = blended
		}
	}
	return utilities
}

// RankBids orders bids by amount, highest first, breaking ties with a
// Fisher-Yates shuffle of each group of equal bids.
func RankBids(bids []Bid, randSource RandSource) []Bid {
	ranked := append([]Bid(nil), bids...)
	if len(ranked) == 0 {
		return ranked
	}

	// Highest bid first, seat order within equal amounts.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount > ranked[j].Amount
	})

	if randSource == nil {
		randSource = defaultRandSource
	}

	i := 0
	for i < len(ranked) {
		amount := ranked[i].Amount
		j := i + 1
		for j < len(ranked) && ranked[j].Amount == amount {
			j++
		}

		if j-i > 1 {
			for k := j - 1; k > i; k-- {
				randIdx := i + randSource.Intn(k-i+1)
				ranked[k], ranked[randIdx] = ranked[randIdx], ranked[k]
			}
		}

		i = j
	}
	return ranked
}

// Realize plays out one auction: ties are broken by randSource instead of
// being split in expectation. Under NoTies a tie still leaves every tied
// bidder a loser. Averaged over all tie-breaks, Realize equals Allocate.
func (r AllocationRule) Realize(numPlayers int, bids []Bid, randSource RandSource) Utilities {
	utilities := NewUtilities(numPlayers)
	if len(bids) == 0 {
		return utilities
	}

	_, winners := HighestBidders(bids)
	ranked := RankBids(bids, randSource)
	winner := ranked[0].Player
	if len(winners) > 1 && r.NoTies {
		winner = -1
	}

	for _, bid := range bids {
		if bid.Player == winner {
			utilities[bid.Player] = winnerUtility(bid)
			continue
		}
		utilities[bid.Player] = r.loserUtility(bid)
	}
	return utilities
}
