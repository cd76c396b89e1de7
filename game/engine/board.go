package engine

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zyedidia/generic/mapset"
)

// Board is one puzzle configuration. Size, Walls and Targets never change
// during a search and are shared between boards; Blocks and Player are the
// per-state content.
type Board struct {
	Size    Position
	Walls   mapset.Set[Position]
	Targets mapset.Set[Position]
	// Blocks is kept sorted row-major so that two boards holding the same
	// set of blocks always compare equal.
	Blocks []Position
	Player Position
}

// Parse builds a board from equal-length text lines. The target set is
// available as b.Targets (or b.TargetList()).
func Parse(lines []string) (*Board, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBoard, ErrEmptyBoard)
	}

	b := &Board{
		Walls:   mapset.New[Position](),
		Targets: mapset.New[Position](),
	}
	width := utf8.RuneCountInString(lines[0])
	players := 0

	pos := Position{}
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrMalformedBoard, pos.Y+1, n, width)
		}
		for _, c := range line {
			switch c {
			case WallChar:
				b.Walls.Put(pos)
			case BlockChar:
				b.Blocks = append(b.Blocks, pos)
			case BlockOnTarget:
				b.Blocks = append(b.Blocks, pos)
				b.Targets.Put(pos)
			case TargetChar:
				b.Targets.Put(pos)
			case PlayerOnTarget:
				b.Player = pos
				b.Targets.Put(pos)
				players++
			case PlayerChar:
				b.Player = pos
				players++
			}
			pos.X++
		}
		pos.Y++
		pos.X = 0
	}

	b.Size = Position{X: width, Y: len(lines)}

	if players == 0 {
		return nil, fmt.Errorf("%w: no player on the board", ErrMalformedBoard)
	}
	if players > 1 {
		return nil, fmt.Errorf("%w: %d players on the board, expected 1", ErrMalformedBoard, players)
	}
	if len(b.Blocks) != b.Targets.Size() {
		return nil, fmt.Errorf("%w: the number of targets (%d) is not the same as the number of blocks (%d)",
			ErrMalformedBoard, b.Targets.Size(), len(b.Blocks))
	}

	slices.SortFunc(b.Blocks, comparePositions)
	return b, nil
}

func comparePositions(a, b Position) int {
	switch {
	case a.less(b):
		return -1
	case b.less(a):
		return 1
	}
	return 0
}

// Clone copies the per-state content; the invariant sets are shared
func (b *Board) Clone() *Board {
	return &Board{
		Size:    b.Size,
		Walls:   b.Walls,
		Targets: b.Targets,
		Blocks:  slices.Clone(b.Blocks),
		Player:  b.Player,
	}
}

// HasWall reports whether p is a wall
func (b *Board) HasWall(p Position) bool {
	return b.Walls.Has(p)
}

// HasTarget reports whether p is a target cell
func (b *Board) HasTarget(p Position) bool {
	return b.Targets.Has(p)
}

// HasBlock reports whether a block occupies p
func (b *Board) HasBlock(p Position) bool {
	return b.blockIndex(p) >= 0
}

func (b *Board) blockIndex(p Position) int {
	i, found := slices.BinarySearchFunc(b.Blocks, p, comparePositions)
	if !found {
		return -1
	}
	return i
}

// IsSolved reports whether the block set equals the target set
func (b *Board) IsSolved() bool {
	if len(b.Blocks) != b.Targets.Size() {
		return false
	}
	for _, p := range b.Blocks {
		if !b.Targets.Has(p) {
			return false
		}
	}
	return true
}

// BlocksOnTarget counts blocks currently resting on a target
func (b *Board) BlocksOnTarget() int {
	n := 0
	for _, p := range b.Blocks {
		if b.Targets.Has(p) {
			n++
		}
	}
	return n
}

// Equal reports whether both boards describe the same configuration
func (b *Board) Equal(o *Board) bool {
	if b == o {
		return true
	}
	if b == nil || o == nil {
		return false
	}
	return b.Size == o.Size &&
		b.Player == o.Player &&
		slices.Equal(b.sortedBlocks(), o.sortedBlocks()) &&
		setsEqual(b.Walls, o.Walls) &&
		setsEqual(b.Targets, o.Targets)
}

// sortedBlocks returns the blocks in row-major order. Boards built by Parse
// and Apply are already sorted; hand-built ones may not be.
func (b *Board) sortedBlocks() []Position {
	if slices.IsSortedFunc(b.Blocks, comparePositions) {
		return b.Blocks
	}
	blocks := slices.Clone(b.Blocks)
	slices.SortFunc(blocks, comparePositions)
	return blocks
}

func setsEqual(a, b mapset.Set[Position]) bool {
	if a.Size() != b.Size() {
		return false
	}
	equal := true
	a.Each(func(p Position) {
		if equal && !b.Has(p) {
			equal = false
		}
	})
	return equal
}

// Key encodes the variable part of the board (player and blocks). Walls and
// targets are fixed within a search, so equal keys mean equal boards there.
func (b *Board) Key() string {
	blocks := b.sortedBlocks()
	buf := make([]byte, 0, 8+len(blocks)*8)
	buf = strconv.AppendInt(buf, int64(b.Player.X), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(b.Player.Y), 10)
	buf = append(buf, '|')
	for i, p := range blocks {
		if i > 0 {
			buf = append(buf, ';')
		}
		buf = strconv.AppendInt(buf, int64(p.X), 10)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, int64(p.Y), 10)
	}
	return string(buf)
}

// TargetList returns the target set in row-major order
func (b *Board) TargetList() []Position {
	return sortedPositions(b.Targets)
}

// WallList returns the walls in row-major order
func (b *Board) WallList() []Position {
	return sortedPositions(b.Walls)
}

func sortedPositions(s mapset.Set[Position]) []Position {
	out := make([]Position, 0, s.Size())
	s.Each(func(p Position) {
		out = append(out, p)
	})
	slices.SortFunc(out, comparePositions)
	return out
}

type boardJSON struct {
	Size    Position   `json:"size"`
	Walls   []Position `json:"walls"`
	Targets []Position `json:"targets"`
	Blocks  []Position `json:"blocks"`
	Player  Position   `json:"player"`
}

// MarshalJSON encodes the board with its sets as position arrays
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{
		Size:    b.Size,
		Walls:   b.WallList(),
		Targets: b.TargetList(),
		Blocks:  b.Blocks,
		Player:  b.Player,
	})
}

// UnmarshalJSON restores a board encoded by MarshalJSON
func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Size = raw.Size
	b.Player = raw.Player
	b.Walls = mapset.New[Position]()
	for _, p := range raw.Walls {
		b.Walls.Put(p)
	}
	b.Targets = mapset.New[Position]()
	for _, p := range raw.Targets {
		b.Targets.Put(p)
	}
	b.Blocks = slices.Clone(raw.Blocks)
	slices.SortFunc(b.Blocks, comparePositions)
	return nil
}

// Render draws the board back into the text alphabet accepted by Parse
func Render(b *Board) []string {
	lines := make([]string, b.Size.Y)
	var sb strings.Builder
	for y := 0; y < b.Size.Y; y++ {
		sb.Reset()
		for x := 0; x < b.Size.X; x++ {
			p := Position{X: x, Y: y}
			target := b.HasTarget(p)
			switch {
			case b.HasWall(p):
				sb.WriteRune(WallChar)
			case b.HasBlock(p) && target:
				sb.WriteRune(BlockOnTarget)
			case b.HasBlock(p):
				sb.WriteRune(BlockChar)
			case b.Player == p && target:
				sb.WriteRune(PlayerOnTarget)
			case b.Player == p:
				sb.WriteRune(PlayerChar)
			case target:
				sb.WriteRune(TargetChar)
			default:
				sb.WriteRune(FloorChar)
			}
		}
		lines[y] = sb.String()
	}
	return lines
}
