package engine

import (
	"errors"
	"slices"
)

// Board symbols
const (
	WallChar         = '#'
	BlockChar        = '$'
	TargetChar       = '.'
	BlockOnTarget    = '*'
	PlayerChar       = '@'
	PlayerOnTarget   = '+'
	FloorChar        = ' '
	ValidBoardChars  = "$#@.*+ "
	MaxBulkMoves     = 500
	MaxLayoutRows    = 64
	MaxLayoutColumns = 64
)

var (
	ErrMalformedBoard   = errors.New("malformed board")
	ErrEmptyBoard       = errors.New("no lines in board")
	ErrInvalidCharacter = errors.New("line contained a character that wasn't valid")
	ErrNotRectangular   = errors.New("board must be rectangular (each line must be the same size)")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrIllegalMove      = errors.New("illegal move")
	ErrSearchLimit      = errors.New("search state limit reached")
	ErrLayoutTooLarge   = errors.New("layout too large")
)

// PuzzleConfig represents a puzzle document loaded from JSON or plain text
type PuzzleConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Layout      []string `json:"layout"`
}

// GameState represents the complete state of an interactive play session
type GameState struct {
	Board       *Board             `json:"board"`
	Layout      []string           `json:"layout"`
	PlayerPos   Position           `json:"player_pos"`
	Solved      bool               `json:"solved"`
	Message     string             `json:"message"`
	ConfigName  string             `json:"config_name"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`
	Pushes      int                `json:"pushes"`

	// BlocksOnTarget is a computed view of progress
	BlocksOnTarget int `json:"blocks_on_target"`
	TotalBlocks    int `json:"total_blocks"`
}

// Snapshot returns a copy of the state that later moves do not modify.
// Boards are immutable and are shared.
func (gs *GameState) Snapshot() *GameState {
	cp := *gs
	cp.Layout = slices.Clone(gs.Layout)
	cp.MoveHistory = slices.Clone(gs.MoveHistory)
	return &cp
}

// MoveHistoryEntry represents a single move in the session history
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Push         bool     `json:"push"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
}
