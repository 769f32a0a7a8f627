package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDealCardsCoversEveryCategory(t *testing.T) {
	assert := assert.New(t)

	players := make([]*Player, MaxPlayers)
	for i := range players {
		players[i] = NewPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("t%d", i), fmt.Sprintf("player%d", i), nil)
	}

	DealCards(players)

	for category, count := range CardCategories {
		seen := make(map[int]bool)
		for _, p := range players {
			idx, ok := p.AssignedCards[category]
			assert.True(ok)
			assert.GreaterOrEqual(idx, 0)
			assert.Less(idx, count)
			assert.False(seen[idx], "category %s dealt index %d twice", category, idx)
			seen[idx] = true
		}
	}
}

func TestDrawEventIndexAvoidsUsedIndices(t *testing.T) {
	history := map[int]int{}
	for round := 1; round <= 15; round++ {
		history[round] = round - 1 // indices 0-14 used
	}

	for i := 0; i < 50; i++ {
		idx := DrawEventIndex(history)
		assert.GreaterOrEqual(t, idx, 15, "drew an already-used event index")
		assert.Less(t, idx, BunkerEventCount)
	}
}

func TestDrawEventIndexFallsBackToRepeat(t *testing.T) {
	history := map[int]int{}
	for round := 1; round <= BunkerEventCount; round++ {
		history[round] = round - 1 // every index used
	}

	idx := DrawEventIndex(history)
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, BunkerEventCount)
}
