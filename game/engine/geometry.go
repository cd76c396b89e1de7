package engine

import (
	"fmt"
	"strings"
)

// Position represents x,y coordinates. It doubles as a unit displacement
// when paired with a Direction.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the component-wise sum of p and o
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// less orders positions row-major
func (p Position) less(o Position) bool {
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	return p.X < o.X
}

// InBounds reports whether p lies inside a grid of the given size.
// Bounds are exclusive: valid columns are 0..size.X-1 and rows 0..size.Y-1.
func InBounds(p, size Position) bool {
	return p.X >= 0 && p.X < size.X && p.Y >= 0 && p.Y < size.Y
}

// Direction is one of the four player moves
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Directions is the fixed order in which the solver tries moves. It decides
// which of several equally short solutions is reported.
var Directions = [4]Direction{Down, Right, Up, Left}

// Delta returns the unit displacement for the direction
func (d Direction) Delta() Position {
	switch d {
	case Left:
		return Position{X: -1, Y: 0}
	case Right:
		return Position{X: 1, Y: 0}
	case Up:
		return Position{X: 0, Y: -1}
	case Down:
		return Position{X: 0, Y: 1}
	}
	return Position{}
}

// Arrow returns the arrow glyph used when printing solutions
func (d Direction) Arrow() string {
	switch d {
	case Left:
		return "←"
	case Right:
		return "→"
	case Up:
		return "↑"
	case Down:
		return "↓"
	}
	return "?"
}

// Valid reports whether d is one of the four known directions
func (d Direction) Valid() bool {
	switch d {
	case Left, Right, Up, Down:
		return true
	}
	return false
}

// ParseDirection accepts direction names, single letters and arrow glyphs
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l", "←":
		return Left, nil
	case "right", "r", "→":
		return Right, nil
	case "up", "u", "↑":
		return Up, nil
	case "down", "d", "↓":
		return Down, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}
