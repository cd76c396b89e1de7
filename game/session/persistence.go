package session

import (
	"time"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. The board is not
// stored: it is rebuilt by replaying Moves from the puzzle's start.
type PersistedSessionData struct {
	ID             string                    `json:"id"`
	ConfigName     string                    `json:"config_name"`
	CreatedAt      time.Time                 `json:"created_at"`
	LastAccessedAt time.Time                 `json:"last_accessed_at"`
	Moves          []engine.Direction        `json:"moves"`
	History        []engine.MoveHistoryEntry `json:"history,omitempty"`
	Pushes         int                       `json:"pushes"`

	// Puzzle is used when ConfigName no longer resolves
	Puzzle *engine.PuzzleConfig `json:"puzzle,omitempty"`
}
