package game

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			Name:  fmt.Sprintf("creature-%d", i),
			Image: fmt.Sprintf("https://img.example/%d.png", i),
		}
	}
	return items
}

func TestBuildBoard_EachItemTwice(t *testing.T) {
	for _, n := range []int{0, 1, 3, 5, 8} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			items := testItems(n)
			cards := BuildBoard(items, rand.New(rand.NewPCG(1, uint64(n))))
			require.Len(t, cards, 2*n)

			counts := make(map[string]int)
			for i, c := range cards {
				assert.Equal(t, i, c.Position)
				assert.False(t, c.FaceUp)
				assert.False(t, c.Matched)
				counts[c.Item.Name]++
			}
			for _, item := range items {
				assert.Equal(t, 2, counts[item.Name], item.Name)
			}
		})
	}
}

func TestBuildBoard_Permutes(t *testing.T) {
	items := testItems(8)
	cards := BuildBoard(items, rand.New(rand.NewPCG(42, 7)))

	inPairOrder := true
	for i, c := range cards {
		if c.Item.Name != items[i/2].Name {
			inPairOrder = false
			break
		}
	}
	assert.False(t, inPairOrder, "board should not keep input pairing order")
}

func TestBuildBoard_Uniform(t *testing.T) {
	items := testItems(3)
	rng := rand.New(rand.NewPCG(2026, 10))
	const trials = 3000
	first := 0
	for i := 0; i < trials; i++ {
		cards := BuildBoard(items, rng)
		if cards[0].Item.Name == items[0].Name {
			first++
		}
	}
	// Each item owns a third of the slots.
	assert.InDelta(t, trials/3, first, 150)
}

func TestBuildBoard_NilRand(t *testing.T) {
	cards := BuildBoard(testItems(2), nil)
	assert.Len(t, cards, 4)
}
