package game

import "math/rand/v2"

type itemCountGen struct{}

// Generate draws the sweet count for a match, uniform over [5, 12].
func (g *itemCountGen) Generate() int {
	return minItemCount + rand.IntN(maxItemCount-minItemCount+1)
}

func NewItemCountGen() itemCountGen {
	return itemCountGen{}
}
