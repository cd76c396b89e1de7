package engine

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultPuzzle is used when no puzzle is configured
var DefaultPuzzle = PuzzleConfig{
	Name:        "starter",
	Description: "Two blocks, two targets, plenty of room",
	Difficulty:  "easy",
	Layout: []string{
		"######",
		"#    #",
		"# $. #",
		"# @  #",
		"# $. #",
		"#    #",
		"######",
	},
}

// ValidateLine checks a single board line against the board alphabet
func ValidateLine(line string) error {
	for i, c := range line {
		if !strings.ContainsRune(ValidBoardChars, c) {
			return fmt.Errorf("%w: '%c' at column %d", ErrInvalidCharacter, c, i+1)
		}
	}
	return nil
}

// ValidateLayout checks the alphabet, the shape and the board invariants
func ValidateLayout(layout []string) error {
	if len(layout) == 0 {
		return ErrEmptyBoard
	}

	width := utf8.RuneCountInString(layout[0])
	for i, row := range layout {
		if err := ValidateLine(row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if n := utf8.RuneCountInString(row); n != width {
			return fmt.Errorf("row %d: %w: expected %d, got %d", i+1, ErrNotRectangular, width, n)
		}
	}

	_, err := Parse(layout)
	return err
}

// CheckLayoutSize bounds layouts submitted over the network. Boards read
// from files or typed in are not limited.
func CheckLayoutSize(layout []string) error {
	if len(layout) > MaxLayoutRows {
		return fmt.Errorf("%w: %d rows, at most %d allowed", ErrLayoutTooLarge, len(layout), MaxLayoutRows)
	}
	for _, row := range layout {
		if n := utf8.RuneCountInString(row); n > MaxLayoutColumns {
			return fmt.Errorf("%w: %d columns, at most %d allowed", ErrLayoutTooLarge, n, MaxLayoutColumns)
		}
	}
	return nil
}

// ValidatePuzzleConfig validates a puzzle document
func ValidatePuzzleConfig(config *PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if err := ValidateLayout(config.Layout); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// SplitLayout splits puzzle text into rows. Both \r\n and \n line endings
// are accepted; trailing blank lines are dropped.
func SplitLayout(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ReadBoardLines reads a board interactively. An empty line confirms the
// board; a line naming a .txt file loads that file instead. Invalid or
// non-rectangular lines are reported to w and skipped.
func ReadBoardLines(r io.Reader, w io.Writer) ([]string, error) {
	var board []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		content := strings.TrimSuffix(scanner.Text(), "\r")
		if content == "" {
			break
		}
		if strings.Contains(content, ".txt") {
			data, err := os.ReadFile(strings.TrimSpace(content))
			if err != nil {
				return nil, fmt.Errorf("not a valid file: %w", err)
			}
			board = SplitLayout(string(data))
			break
		}
		if err := ValidateLine(content); err != nil {
			fmt.Fprintf(w, "--> [%v]\n", ErrInvalidCharacter)
			continue
		}
		if len(board) > 0 && utf8.RuneCountInString(content) != utf8.RuneCountInString(board[len(board)-1]) {
			fmt.Fprintf(w, "--> [%v]\n", ErrNotRectangular)
			continue
		}
		board = append(board, content)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read board: %w", err)
	}
	if len(board) == 0 {
		return nil, ErrEmptyBoard
	}
	return board, nil
}

// LoadPuzzleConfig loads a puzzle from a JSON document or a plain text layout
func LoadPuzzleConfig(filename string) (*PuzzleConfig, error) {
	// Support PUZZLE_DIR environment variable for alternative puzzle directory
	path := filename
	if dir := os.Getenv("PUZZLE_DIR"); dir != "" {
		if strings.HasPrefix(filename, "puzzles/") {
			path = filepath.Join(dir, strings.TrimPrefix(filename, "puzzles/"))
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config, err := DecodePuzzle(filepath.Base(path), data)
	if err != nil {
		return nil, err
	}

	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// DecodePuzzle decodes file contents according to the file extension.
// Text puzzles take their name from the file name.
func DecodePuzzle(filename string, data []byte) (*PuzzleConfig, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".json" {
		var config PuzzleConfig
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse puzzle '%s': %w", filename, err)
		}
		return &config, nil
	}

	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	return &PuzzleConfig{
		Name:        name,
		Description: fmt.Sprintf("Imported from %s", filename),
		Layout:      SplitLayout(string(data)),
	}, nil
}

// PuzzleExtensions lists the file types recognised as puzzles
var PuzzleExtensions = []string{".json", ".txt", ".sok"}

// LoadConfigByName loads a puzzle by name from the puzzles directory
func LoadConfigByName(name string) (*PuzzleConfig, error) {
	dir := "puzzles"
	if env := os.Getenv("PUZZLE_DIR"); env != "" {
		dir = env
	}

	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range PuzzleExtensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		config, err := LoadPuzzleConfig(path)
		if err != nil {
			return nil, fmt.Errorf("invalid puzzle '%s': %w", name, err)
		}
		return config, nil
	}
	return nil, fmt.Errorf("puzzle '%s' not found: %w", name, os.ErrNotExist)
}

// InitGameStateFromConfig creates a new play state from the puzzle.
// A nil config uses DefaultPuzzle.
func InitGameStateFromConfig(config *PuzzleConfig) (*GameState, error) {
	if config == nil {
		config = &DefaultPuzzle
	}

	board, err := Parse(config.Layout)
	if err != nil {
		return nil, err
	}

	state := &GameState{
		Board:          board,
		Layout:         Render(board),
		PlayerPos:      board.Player,
		Solved:         board.IsSolved(),
		ConfigName:     config.Name,
		MoveHistory:    []MoveHistoryEntry{},
		BlocksOnTarget: board.BlocksOnTarget(),
		TotalBlocks:    len(board.Blocks),
	}
	state.Message = fmt.Sprintf("Push all %d blocks onto targets", state.TotalBlocks)
	if state.Solved {
		state.Message = "Puzzle already solved"
	}
	return state, nil
}

// IsMalformed reports whether err comes from a board that cannot be played
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedBoard) ||
		errors.Is(err, ErrEmptyBoard) ||
		errors.Is(err, ErrInvalidCharacter) ||
		errors.Is(err, ErrNotRectangular)
}
