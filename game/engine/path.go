package engine

import (
	"slices"
	"strconv"
	"strings"
)

// reconstruct walks parent links from idx back to the root and returns the
// moves in the order they were played.
func reconstruct(nodes []node, idx int) []Direction {
	var moves []Direction
	for i := idx; nodes[i].parent >= 0; i = nodes[i].parent {
		moves = append(moves, nodes[i].move)
	}
	slices.Reverse(moves)
	return moves
}

// Names returns the moves as direction names
func (s *Solution) Names() []string {
	names := make([]string, len(s.Moves))
	for i, d := range s.Moves {
		names[i] = string(d)
	}
	return names
}

// Arrows renders the moves as space separated arrows
func (s *Solution) Arrows() string {
	arrows := make([]string, len(s.Moves))
	for i, d := range s.Moves {
		arrows[i] = d.Arrow()
	}
	return strings.Join(arrows, " ")
}

// String formats the solution as "length: N moves: [ → ↓ ]"
func (s *Solution) String() string {
	var sb strings.Builder
	sb.WriteString("length: ")
	sb.WriteString(strconv.Itoa(s.MoveCount))
	sb.WriteString(" moves: [")
	for _, d := range s.Moves {
		sb.WriteByte(' ')
		sb.WriteString(d.Arrow())
	}
	sb.WriteString(" ]")
	return sb.String()
}
