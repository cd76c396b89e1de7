package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManhattanDistance(t *testing.T) {
	assert.Equal(t, 0, ManhattanDistance(Position{X: 2, Y: 2}, Position{X: 2, Y: 2}))
	assert.Equal(t, 5, ManhattanDistance(Position{X: 0, Y: 0}, Position{X: 2, Y: 3}))
	assert.Equal(t, 5, ManhattanDistance(Position{X: 2, Y: 3}, Position{X: 0, Y: 0}))
}

func TestReachableCells(t *testing.T) {
	b := mustParse(t,
		"#####",
		"#@$ #",
		"# # #",
		"#  .#",
		"#####",
	)

	reached := ReachableCells(b)
	assert.True(t, reached.Has(Position{X: 1, Y: 1}))
	assert.True(t, reached.Has(Position{X: 3, Y: 3}), "reachable around the wall")
	assert.True(t, reached.Has(Position{X: 3, Y: 1}))
	assert.False(t, reached.Has(Position{X: 2, Y: 1}), "blocks are obstacles")
	assert.Equal(t, 7, reached.Size())
}

func TestDeadSquares(t *testing.T) {
	b := mustParse(t,
		"#####",
		"#@$ #",
		"#  .#",
		"#####",
	)

	dead := DeadSquares(b)
	assert.ElementsMatch(t, []Position{
		{X: 1, Y: 1},
		{X: 3, Y: 1},
		{X: 1, Y: 2},
	}, dead)
	assert.False(t, HasDeadBlock(b))

	stuck := mustParse(t,
		"####",
		"#$@#",
		"# .#",
		"####",
	)
	assert.True(t, HasDeadBlock(stuck))
}

func TestPushLowerBound(t *testing.T) {
	assert.Equal(t, 1, PushLowerBound(mustParse(t, "@$.")))
	assert.Equal(t, 0, PushLowerBound(mustParse(t, "@*")))
	assert.Equal(t, 4, PushLowerBound(mustParse(t, twoBlockBoard...)))
}
