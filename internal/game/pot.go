package game

import "sort"

// Layer is one slice of the pot. Layers are ordered from the bottom up:
// layer 0 is the main pot every contributor fed, later layers arise when
// players are all-in for unequal amounts. Eligible lists the seats, in seat
// order, that can win the layer; folded players feed layers but are never
// eligible.
type Layer struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// PotAward records the distribution of one layer: who won it, how much, and
// the winning hand when the layer was contested at showdown.
type PotAward struct {
	Amount      int    `json:"amount"`
	Winners     []int  `json:"winners"`
	WinningRank string `json:"winning_rank,omitempty"`
}

// buildLayers partitions the hand's total contributions into pot layers.
// Tiers are the distinct total contributions of live players, ascending;
// each layer holds every player's contribution between the previous tier
// and its own, so a live player is eligible for exactly the layers they
// fully funded. Chips from folded players sit in the layers their
// contribution reaches and are won by whoever takes those layers.
func buildLayers(players []*Player) []Layer {
	var tiers []int
	seen := make(map[int]bool)
	for _, p := range players {
		if p.Live() && p.TotalContributed > 0 && !seen[p.TotalContributed] {
			seen[p.TotalContributed] = true
			tiers = append(tiers, p.TotalContributed)
		}
	}
	sort.Ints(tiers)

	var layers []Layer
	prev := 0
	for _, tier := range tiers {
		layer := Layer{}
		for _, p := range players {
			span := min(p.TotalContributed, tier) - min(p.TotalContributed, prev)
			if span > 0 {
				layer.Amount += span
			}
			if p.Live() && p.TotalContributed >= tier {
				layer.Eligible = append(layer.Eligible, p.Seat)
			}
		}
		if layer.Amount > 0 {
			layers = append(layers, layer)
		}
		prev = tier
	}

	// Contributions above the top live tier cannot occur in a reachable
	// hand, but conservation must hold regardless: sweep any residual into
	// the top layer.
	total := 0
	for _, p := range players {
		total += p.TotalContributed
	}
	collected := 0
	for _, l := range layers {
		collected += l.Amount
	}
	if rest := total - collected; rest > 0 && len(layers) > 0 {
		layers[len(layers)-1].Amount += rest
	}
	return layers
}

// splitLayer divides a layer among its winners. An indivisible remainder
// goes to the winner in the lowest seat; the rule is fixed so identical
// hands always settle identically. Winners must be in seat order.
func splitLayer(amount int, winners []int, credit func(seat, chips int)) {
	share := amount / len(winners)
	remainder := amount % len(winners)
	for i, seat := range winners {
		chips := share
		if i == 0 {
			chips += remainder
		}
		credit(seat, chips)
	}
}
