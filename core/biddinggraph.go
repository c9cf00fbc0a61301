package core

// graphNode is a (type index, bid) vertex of the bidding graph. carry is the
// bid the next type chains from; absent types pass their parent's carry on.
type graphNode struct {
	typeIndex int
	bid       Value
	carry     Value
	parent    int
}

// biddingGraph is an arena of nodes whose root-to-leaf paths are the
// admissible strategies. Every path starts at (types[0], actions[0]).
type biddingGraph struct {
	nodes  []graphNode
	leaves []int
}

// buildBiddingGraph expands the graph one type index at a time from an
// explicit frontier, so depth never grows the call stack.
func buildBiddingGraph(types []Type, actions []Value, policy BidRangePolicy) *biddingGraph {
	g := &biddingGraph{}
	if len(types) == 0 || len(actions) == 0 {
		return g
	}

	g.nodes = append(g.nodes, graphNode{typeIndex: 0, bid: actions[0], carry: actions[0], parent: -1})
	frontier := []int{0}

	for typeIndex := 1; typeIndex < len(types); typeIndex++ {
		playerType := types[typeIndex]
		next := make([]int, 0, len(frontier))

		for _, id := range frontier {
			previous := g.nodes[id].carry

			if playerType.IsAbsent() {
				g.nodes = append(g.nodes, graphNode{typeIndex: typeIndex, bid: actions[0], carry: previous, parent: id})
				next = append(next, len(g.nodes)-1)
				continue
			}

			minBid, maxBid := policy.BidRange(playerType.Valuation, previous)
			for _, action := range actions {
				if action < minBid || action > maxBid {
					continue
				}
				g.nodes = append(g.nodes, graphNode{typeIndex: typeIndex, bid: action, carry: action, parent: id})
				next = append(next, len(g.nodes)-1)
			}
		}

		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	// Branches that died before the last type index are not leaves.
	for _, id := range frontier {
		if g.nodes[id].typeIndex == len(types)-1 {
			g.leaves = append(g.leaves, id)
		}
	}
	return g
}

// strategies projects every root-to-leaf path onto its bids, dropping
// duplicate bid sequences while keeping first-seen order.
func (g *biddingGraph) strategies(numTypes int) []Strategy {
	result := make([]Strategy, 0, len(g.leaves))
	seen := make(map[string]struct{}, len(g.leaves))

	for _, leaf := range g.leaves {
		strategy := make(Strategy, numTypes)
		for id := leaf; id >= 0; id = g.nodes[id].parent {
			node := g.nodes[id]
			strategy[node.typeIndex] = node.bid
		}

		key := strategy.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, strategy)
	}
	return result
}
