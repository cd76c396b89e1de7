package engine

import (
	"fmt"
	"slices"
	"time"
)

// Apply moves the player one step in direction d, pushing a block if one is
// in the way. It returns a fresh board, or false when the move is illegal.
// The input board is never modified.
func Apply(b *Board, d Direction) (*Board, bool) {
	delta := d.Delta()
	newPlayer := b.Player.Add(delta)

	// Player cannot leave the grid or walk into a wall
	if !InBounds(newPlayer, b.Size) || b.Walls.Has(newPlayer) {
		return nil, false
	}

	i := b.blockIndex(newPlayer)
	if i < 0 {
		next := b.Clone()
		next.Player = newPlayer
		return next, true
	}

	// Pushing a block
	newBlock := newPlayer.Add(delta)
	if !InBounds(newBlock, b.Size) || b.Walls.Has(newBlock) || b.HasBlock(newBlock) {
		return nil, false
	}

	next := b.Clone()
	next.Blocks[i] = newBlock
	slices.SortFunc(next.Blocks, comparePositions)
	next.Player = newPlayer
	return next, true
}

// IsPush reports whether a legal move in direction d would push a block
func IsPush(b *Board, d Direction) bool {
	if _, ok := Apply(b, d); !ok {
		return false
	}
	return b.HasBlock(b.Player.Add(d.Delta()))
}

// Replay applies moves in order starting from b. It fails on the first
// rejected move.
func Replay(b *Board, moves []Direction) (*Board, error) {
	current := b
	for i, d := range moves {
		if !d.Valid() {
			return nil, fmt.Errorf("move %d: %w: %q", i+1, ErrInvalidDirection, d)
		}
		next, ok := Apply(current, d)
		if !ok {
			return nil, fmt.Errorf("%w: move %d (%s) from %s", ErrIllegalMove, i+1, d, current.Player)
		}
		current = next
	}
	return current, nil
}

// MovePlayer attempts to move the player in the specified direction
func (gs *GameState) MovePlayer(direction string) bool {
	if gs.Solved {
		gs.Message = "Puzzle already solved"
		return false
	}

	d, err := ParseDirection(direction)
	if err != nil {
		gs.Message = fmt.Sprintf("Unknown direction %q", direction)
		return false
	}

	push := IsPush(gs.Board, d)
	next, ok := Apply(gs.Board, d)
	if !ok {
		target := gs.Board.Player.Add(d.Delta())
		obstacle := "boundary"
		switch {
		case gs.Board.HasWall(target):
			obstacle = "wall"
		case gs.Board.HasBlock(target):
			obstacle = "blocked block"
		}
		gs.Message = fmt.Sprintf("Can't move %s: %s at %s", d, obstacle, target)
		return false
	}

	gs.Board = next
	gs.PlayerPos = next.Player
	gs.Layout = Render(next)
	gs.BlocksOnTarget = next.BlocksOnTarget()
	if push {
		gs.Pushes++
	}

	if next.IsSolved() {
		gs.Solved = true
		gs.Message = fmt.Sprintf("Solved! All %d blocks are on targets", len(next.Blocks))
	} else {
		gs.Message = fmt.Sprintf("Blocks on target: %d/%d", gs.BlocksOnTarget, gs.TotalBlocks)
	}
	return true
}

// AddMoveToHistory adds a move to the session's move history
func (gs *GameState) AddMoveToHistory(action string, fromPos, toPos Position, push, success bool) {
	entry := MoveHistoryEntry{
		Action:       action,
		FromPosition: fromPos,
		ToPosition:   toPos,
		Push:         push,
		Timestamp:    time.Now().Unix(),
		Success:      success,
		MoveNumber:   gs.TotalMoves + 1,
	}
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++
}
