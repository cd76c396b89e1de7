package engine

import (
	"context"
	"fmt"
	"slices"
)

// Engine provides the main interface for play operations
type Engine interface {
	// State management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsSolved() bool
	GetPlayerPosition() Position

	// Movement operations
	Move(direction string) bool
	Undo() bool
	CanMove(direction string) bool
	GetPossibleMoves() []string

	// Configuration
	GetConfig() *PuzzleConfig
	SetConfig(config *PuzzleConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Solver
	Solve(ctx context.Context, opts ...SolveOption) (*Solution, error)
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state  *GameState
	config *PuzzleConfig
	// boards holds the board before each successful move, for Undo
	boards []*Board
	// path is the list of moves that leads from the initial board to the current one
	path []Direction
}

// NewEngine creates a new engine for the provided puzzle
func NewEngine(config *PuzzleConfig) (*GameEngine, error) {
	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}

	state, err := InitGameStateFromConfig(config)
	if err != nil {
		return nil, err
	}

	return &GameEngine{
		config: config,
		state:  state,
	}, nil
}

// GetState returns the current play state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the play state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Board == nil {
		return fmt.Errorf("state board cannot be nil")
	}
	e.state = state
	e.boards = nil
	e.path = nil
	return nil
}

// Reset restores the initial board, keeping the cumulative history
func (e *GameEngine) Reset() *GameState {
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	state, err := InitGameStateFromConfig(e.config)
	if err != nil {
		// The config was validated when the engine was built
		panic(fmt.Sprintf("reset: %v", err))
	}
	e.state = state
	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.Message = "Puzzle reset to initial state"
	e.boards = nil
	e.path = nil

	return e.state
}

// IsSolved returns whether every block is on a target
func (e *GameEngine) IsSolved() bool {
	return e.state.Solved
}

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() Position {
	return e.state.PlayerPos
}

// Move attempts to move the player in the specified direction
func (e *GameEngine) Move(direction string) bool {
	prevBoard := e.state.Board
	prevPos := e.state.PlayerPos
	push := false
	d, err := ParseDirection(direction)
	if err == nil {
		push = IsPush(prevBoard, d)
	}

	success := e.state.MovePlayer(direction)
	if success {
		e.boards = append(e.boards, prevBoard)
		e.path = append(e.path, d)
	}

	e.state.AddMoveToHistory(direction, prevPos, e.state.PlayerPos, push && success, success)
	return success
}

// Undo reverts the last successful move since the last reset
func (e *GameEngine) Undo() bool {
	if len(e.boards) == 0 {
		e.state.Message = "Nothing to undo"
		return false
	}

	prev := e.boards[len(e.boards)-1]
	e.boards = e.boards[:len(e.boards)-1]
	e.path = e.path[:len(e.path)-1]

	// Count back the push that produced the current board
	if !slices.Equal(prev.Blocks, e.state.Board.Blocks) && e.state.Pushes > 0 {
		e.state.Pushes--
	}

	from := e.state.PlayerPos
	e.state.Board = prev
	e.state.PlayerPos = prev.Player
	e.state.Layout = Render(prev)
	e.state.Solved = prev.IsSolved()
	e.state.BlocksOnTarget = prev.BlocksOnTarget()
	e.state.Message = "Move undone"
	e.state.AddMoveToHistory("undo", from, prev.Player, false, true)
	return true
}

// CanMove checks if the player can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	if e.state.Solved {
		return false
	}
	d, err := ParseDirection(direction)
	if err != nil {
		return false
	}
	_, ok := Apply(e.state.Board, d)
	return ok
}

// GetPossibleMoves returns all valid directions in solver order
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, d := range Directions {
		if e.CanMove(string(d)) {
			possible = append(possible, string(d))
		}
	}
	return possible
}

// GetConfig returns the current puzzle
func (e *GameEngine) GetConfig() *PuzzleConfig {
	return e.config
}

// SetConfig switches to a new puzzle and resets the state
func (e *GameEngine) SetConfig(config *PuzzleConfig) error {
	if err := ValidatePuzzleConfig(config); err != nil {
		return err
	}

	state, err := InitGameStateFromConfig(config)
	if err != nil {
		return err
	}
	e.config = config
	e.state = state
	e.boards = nil
	e.path = nil
	return nil
}

// Path returns the moves leading from the initial board to the current one
func (e *GameEngine) Path() []Direction {
	return slices.Clone(e.path)
}

// Restore rebuilds a persisted session: the path is replayed from the
// initial board, then the recorded history replaces the replay history.
func (e *GameEngine) Restore(path []Direction, history []MoveHistoryEntry, pushes int) error {
	e.Reset()
	for i, d := range path {
		if !e.Move(string(d)) {
			return fmt.Errorf("%w: restoring move %d (%s)", ErrIllegalMove, i+1, d)
		}
	}
	if history != nil {
		e.state.MoveHistory = history
		e.state.TotalMoves = len(history)
	}
	e.state.Pushes = pushes
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// BulkMove executes multiple moves in sequence, returning success status for each
func (e *GameEngine) BulkMove(moves []string) []bool {
	results := make([]bool, 0, len(moves))

	for _, direction := range moves {
		if e.IsSolved() {
			break
		}
		results = append(results, e.Move(direction))
	}

	return results
}

// Solve searches for a shortest solution from the current board
func (e *GameEngine) Solve(ctx context.Context, opts ...SolveOption) (*Solution, error) {
	return SolveContext(ctx, e.state.Board, opts...)
}

// Hint returns the first move of a shortest solution from the current
// board, or false if the current board cannot be solved.
func (e *GameEngine) Hint(ctx context.Context, opts ...SolveOption) (Direction, bool, error) {
	return Hint(ctx, e.state.Board, opts...)
}

// Hint returns the first move of a shortest solution for b. Boards with a
// block stuck on a dead square are reported unsolvable without searching.
func Hint(ctx context.Context, b *Board, opts ...SolveOption) (Direction, bool, error) {
	if HasDeadBlock(b) {
		return "", false, nil
	}
	sol, err := SolveContext(ctx, b, opts...)
	if err != nil {
		return "", false, err
	}
	if sol == nil || len(sol.Moves) == 0 {
		return "", false, nil
	}
	return sol.Moves[0], true, nil
}
