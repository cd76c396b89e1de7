package engine

import (
	"math"

	"github.com/zyedidia/generic/mapset"
)

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// ReachableCells flood-fills from the player without pushing any block
func ReachableCells(b *Board) mapset.Set[Position] {
	reached := mapset.New[Position]()
	queue := []Position{b.Player}
	reached.Put(b.Player)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range Directions {
			next := current.Add(d.Delta())
			if !InBounds(next, b.Size) || b.HasWall(next) || b.HasBlock(next) || reached.Has(next) {
				continue
			}
			reached.Put(next)
			queue = append(queue, next)
		}
	}
	return reached
}

// DeadSquares returns the floor cells that are corners without a target.
// A block pushed onto one of them can never move again.
func DeadSquares(b *Board) []Position {
	var dead []Position
	for y := 0; y < b.Size.Y; y++ {
		for x := 0; x < b.Size.X; x++ {
			p := Position{X: x, Y: y}
			if b.HasWall(p) || b.HasTarget(p) {
				continue
			}
			blocked := func(d Direction) bool {
				n := p.Add(d.Delta())
				return !InBounds(n, b.Size) || b.HasWall(n)
			}
			vertical := blocked(Up) || blocked(Down)
			horizontal := blocked(Left) || blocked(Right)
			if vertical && horizontal {
				dead = append(dead, p)
			}
		}
	}
	return dead
}

// PushLowerBound sums, over all blocks, the distance to the nearest target.
// No solution can use fewer pushes.
func PushLowerBound(b *Board) int {
	total := 0
	targets := b.TargetList()
	for _, block := range b.Blocks {
		nearest := math.MaxInt
		for _, t := range targets {
			if d := ManhattanDistance(block, t); d < nearest {
				nearest = d
			}
		}
		if nearest != math.MaxInt {
			total += nearest
		}
	}
	return total
}

// HasDeadBlock reports whether a block already rests on a dead square
func HasDeadBlock(b *Board) bool {
	dead := mapset.New[Position]()
	for _, p := range DeadSquares(b) {
		dead.Put(p)
	}
	for _, p := range b.Blocks {
		if dead.Has(p) {
			return true
		}
	}
	return false
}
