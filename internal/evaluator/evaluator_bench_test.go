package evaluator

import (
	"testing"

	"github.com/chipbench/chipbench/internal/deck"
	"github.com/chipbench/chipbench/internal/randutil"
)

// sevenCardHands deals n random 7-card boards from a seeded deck so runs
// are comparable across changes.
func sevenCardHands(b *testing.B, n int) [][]deck.Card {
	b.Helper()
	hands := make([][]deck.Card, n)
	for i := range hands {
		d := deck.New(randutil.New(int64(i)))
		cards, err := d.Deal(7)
		if err != nil {
			b.Fatalf("dealing hand %d: %v", i, err)
		}
		hands[i] = cards
	}
	return hands
}

func BenchmarkEvaluate7(b *testing.B) {
	hands := sevenCardHands(b, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MustEvaluate(hands[i%len(hands)])
	}
}

func BenchmarkEvaluate5(b *testing.B) {
	hands := sevenCardHands(b, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MustEvaluate(hands[i%len(hands)][:5])
	}
}
