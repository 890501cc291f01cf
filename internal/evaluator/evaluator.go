// Package evaluator ranks poker hands. Evaluate folds the best five-card
// hand out of 5-7 cards into a single HandRank whose integer order is the
// hand order, so showdown comparison is one comparison and exact ties are
// exact equals.
package evaluator

import (
	"fmt"
	"math/bits"

	"github.com/chipbench/chipbench/internal/deck"
)

// HandRank represents the strength of a poker hand.
//
// The high 4 bits are the hand category, the remaining bits are category
// specific tie-break packing (rank masks or packed ranks). A higher value is
// always a stronger hand, and equal values are exact ties.
type HandRank uint32

const (
	HighCard HandRank = iota << 28
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// Category returns the category bits of the rank (Pair, Flush, etc).
func (hr HandRank) Category() HandRank {
	return hr & 0xF0000000
}

// String returns a human-readable hand description
func (hr HandRank) String() string {
	switch hr.Category() {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Compare returns 1 if a is stronger, -1 if b is stronger, 0 for an exact tie.
func Compare(a, b HandRank) int {
	if a > b {
		return 1
	} else if a < b {
		return -1
	}
	return 0
}

// Evaluate ranks the best five-card hand available in cards (5 to 7 of
// them). It is a pure function; the input is never modified.
func Evaluate(cards []deck.Card) (HandRank, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("evaluate: need 5-7 cards, got %d", len(cards))
	}

	var suits [4]uint16 // 13-bit rank mask per suit
	var counts [13]uint8
	for _, c := range cards {
		ri := rankIndex(c.Rank)
		suits[c.Suit] |= 1 << ri
		counts[ri]++
	}
	rankMask := suits[0] | suits[1] | suits[2] | suits[3]

	// Flush first: within seven cards a flush rules out quads and a full
	// house, so the answer is either a straight flush or a flush.
	for _, suitMask := range suits {
		if bits.OnesCount16(suitMask) >= 5 {
			if high := straightHigh(suitMask); high >= 0 {
				return StraightFlush | HandRank(high), nil
			}
			return Flush | HandRank(topRanks(suitMask, 5)), nil
		}
	}

	if quad := highestWithCount(counts, 4); quad >= 0 {
		kicker := highestExcept(counts, quad, -1)
		return FourOfAKind | HandRank(quad)<<4 | HandRank(kicker), nil
	}

	if trips := highestWithCount(counts, 3); trips >= 0 {
		// A second set counts as the pair, so >= 2 here, not == 2.
		if pair := highestPairExcept(counts, trips, -1); pair >= 0 {
			return FullHouse | HandRank(trips)<<4 | HandRank(pair), nil
		}
		if high := straightHigh(rankMask); high >= 0 {
			return Straight | HandRank(high), nil
		}
		kickers := topRanksExcluding(rankMask, 2, trips, -1)
		return ThreeOfAKind | HandRank(trips)<<13 | HandRank(kickers), nil
	}

	if high := straightHigh(rankMask); high >= 0 {
		return Straight | HandRank(high), nil
	}

	if hiPair := highestPairExcept(counts, -1, -1); hiPair >= 0 {
		if loPair := highestPairExcept(counts, hiPair, -1); loPair >= 0 {
			// Seven cards can hold three pairs; the spare pair rank is
			// still a kicker candidate.
			kicker := highestExcept(counts, hiPair, loPair)
			return TwoPair | HandRank(hiPair)<<8 | HandRank(loPair)<<4 | HandRank(kicker), nil
		}
		kickers := topRanksExcluding(rankMask, 3, hiPair, -1)
		return Pair | HandRank(hiPair)<<13 | HandRank(kickers), nil
	}

	return HighCard | HandRank(topRanks(rankMask, 5)), nil
}

// MustEvaluate is Evaluate for callers that guarantee the card count, such
// as the showdown path, which always holds seven cards.
func MustEvaluate(cards []deck.Card) HandRank {
	hr, err := Evaluate(cards)
	if err != nil {
		panic(err)
	}
	return hr
}

// rankIndex maps deck ranks (2..14) onto 0..12 bit positions.
func rankIndex(r deck.Rank) int {
	return int(r) - 2
}

// straightHigh returns the high-card index of the best straight in the rank
// mask, or -1. The wheel (A-2-3-4-5) reports the five as its high card.
func straightHigh(rankMask uint16) int {
	for high := 12; high >= 4; high-- {
		run := uint16(0x1F) << (high - 4)
		if rankMask&run == run {
			return high
		}
	}
	// Ace plays low: A + 2-3-4-5.
	if rankMask&0x100F == 0x100F {
		return 3
	}
	return -1
}

// highestWithCount returns the highest rank index held exactly n times, or -1.
func highestWithCount(counts [13]uint8, n uint8) int {
	for ri := 12; ri >= 0; ri-- {
		if counts[ri] == n {
			return ri
		}
	}
	return -1
}

// highestPairExcept returns the highest rank index held at least twice,
// skipping the excluded indexes, or -1.
func highestPairExcept(counts [13]uint8, except1, except2 int) int {
	for ri := 12; ri >= 0; ri-- {
		if ri == except1 || ri == except2 {
			continue
		}
		if counts[ri] >= 2 {
			return ri
		}
	}
	return -1
}

// highestExcept returns the highest held rank index, skipping the excluded
// indexes. Callers guarantee at least one candidate exists.
func highestExcept(counts [13]uint8, except1, except2 int) int {
	for ri := 12; ri >= 0; ri-- {
		if ri == except1 || ri == except2 {
			continue
		}
		if counts[ri] > 0 {
			return ri
		}
	}
	return 0
}

// topRanks returns a mask of the n highest set bits.
func topRanks(rankMask uint16, n int) uint16 {
	var out uint16
	found := 0
	for ri := 12; ri >= 0 && found < n; ri-- {
		if rankMask&(1<<ri) != 0 {
			out |= 1 << ri
			found++
		}
	}
	return out
}

// topRanksExcluding returns a mask of the n highest set bits outside the
// excluded indexes.
func topRanksExcluding(rankMask uint16, n, except1, except2 int) uint16 {
	if except1 >= 0 {
		rankMask &^= 1 << except1
	}
	if except2 >= 0 {
		rankMask &^= 1 << except2
	}
	return topRanks(rankMask, n)
}
