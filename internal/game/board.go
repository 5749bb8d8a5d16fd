package game

import "math/rand/v2"

// Item is one creature drawn from the catalog. Two cards share each item.
type Item struct {
	Name  string
	Image string
}

// Card is a single board slot.
type Card struct {
	Item     Item
	FaceUp   bool
	Matched  bool
	Position int
}

// BuildBoard emits every item twice and applies a uniform permutation.
// Positions match the final index and every card starts face down.
func BuildBoard(items []Item, rng *rand.Rand) []Card {
	if rng == nil {
		rng = newRand()
	}
	cards := make([]Card, 0, len(items)*2)
	for _, item := range items {
		cards = append(cards, Card{Item: item}, Card{Item: item})
	}
	// rand.Shuffle is Fisher-Yates.
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	for i := range cards {
		cards[i].Position = i
	}
	return cards
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
