package game

import "math/rand"

// CardCategories maps every character card category to the number of distinct
// card indices available in that category. The client owns the actual card
// texts; the server only ever deals indices.
var CardCategories = map[string]int{
	"profession": 19,
	"health":     10,
	"age":        10,
	"gender":     6,
	"hobby":      10,
	"phobia":     7,
	"item":       9,
}

const (
	// TotalCardKeys is the number of categories dealt to every player. A
	// player is finished once they have revealed a card in each of them.
	TotalCardKeys = 7

	// BunkerEventCount is the size of the per-round event deck.
	BunkerEventCount = 30

	// maxEventAttempts bounds the search for an event index that has not
	// appeared in an earlier round. Once exhausted, a repeat is accepted.
	maxEventAttempts = 100
)

// DealCards assigns one card index per category to every player, with no two
// players sharing an index within the same category. The player order is
// shuffled first so assignments do not correlate with join order.
func DealCards(players []*Player) {
	shuffled := make([]*Player, len(players))
	copy(shuffled, players)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for category, count := range CardCategories {
		indices := rand.Perm(count)
		for i, p := range shuffled {
			p.AssignedCards[category] = indices[i]
		}
	}
}

// DrawEventIndex picks a random event index in [0, BunkerEventCount) that is
// not already present in history. The retry count is bounded; if every
// attempt collides the last draw is returned even though it repeats.
func DrawEventIndex(history map[int]int) int {
	used := make(map[int]bool, len(history))
	for _, idx := range history {
		used[idx] = true
	}

	idx := rand.Intn(BunkerEventCount)
	for attempts := 1; used[idx] && attempts < maxEventAttempts; attempts++ {
		idx = rand.Intn(BunkerEventCount)
	}

	return idx
}
