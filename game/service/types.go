package service

import (
	"time"

	"github.com/wricardo/sokoban/game/engine"
)

// SessionInfo provides information about a play session
type SessionInfo struct {
	ID             string               `json:"id"`
	ConfigName     string               `json:"config_name"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	GameState      *engine.GameState    `json:"game_state"`
	PuzzleConfig   *engine.PuzzleConfig `json:"puzzle_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_boundary|blocked_wall|blocked_block|invalid_direction|solved
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos    engine.Position `json:"start_pos"`
	EndPos      engine.Position `json:"end_pos"`
	PushesDelta int             `json:"pushes_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	Solved        bool     `json:"solved"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx            int             `json:"idx"`
	Dir            string          `json:"dir"`
	From           engine.Position `json:"from"`
	To             engine.Position `json:"to"`
	Push           bool            `json:"push,omitempty"`
	BlocksOnTarget int             `json:"blocks_on_target"`
	Success        bool            `json:"success"`
	Solved         bool            `json:"solved,omitempty"`
}

// AttemptInfo details the cell a rejected move tried to enter
type AttemptInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	TileChar string `json:"tile_char"`
	TileType string `json:"tile_type"`
	Passable bool   `json:"passable"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "solved", "reset", "undo"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a puzzle
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Difficulty  string `json:"difficulty,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Blocks      int    `json:"blocks"`
}

// SolveResult is the outcome of a solver run. Solvable is false when the
// search space was exhausted without reaching a solved board.
type SolveResult struct {
	Solvable       bool          `json:"solvable"`
	MoveCount      int           `json:"move_count"`
	Moves          []string      `json:"moves"`
	Arrows         string        `json:"arrows"`
	Notation       string        `json:"notation,omitempty"`
	StatesVisited  int           `json:"states_visited"`
	StatesExpanded int           `json:"states_expanded"`
	Depth          int           `json:"depth"`
	Duration       time.Duration `json:"-"`
	DurationMs     int64         `json:"duration_ms"`
}

// HintResult suggests the next move toward a solution
type HintResult struct {
	Available bool   `json:"available"`
	Direction string `json:"direction,omitempty"`
	Arrow     string `json:"arrow,omitempty"`
	Message   string `json:"message"`
}

// SolverOptions bounds solver runs started by the service
type SolverOptions struct {
	MaxStates int
	Workers   int
	Timeout   time.Duration
}

// DefaultSolverOptions is used when the service is built without options
var DefaultSolverOptions = SolverOptions{
	MaxStates: 2_000_000,
	Workers:   1,
	Timeout:   30 * time.Second,
}
