// Command validate checks every puzzle in a directory. It checks:
//   - the document decodes and carries a name and description
//   - rows are the same width and only use # $ . * @ + and spaces
//   - exactly one player, and as many targets as blocks
//   - every block and target lies in the region the player can walk to
//   - no block starts in a corner without a target
//   - optionally, that a solution exists within a state limit
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/sokoban/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...interface{}) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// options controls the optional solvability check
type options struct {
	solve     bool
	maxStates int
	timeout   time.Duration
}

// validatePuzzle loads and validates a single puzzle file
func validatePuzzle(ctx context.Context, filePath string, opts options) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	puzzle, err := engine.DecodePuzzle(filepath.Base(filePath), data)
	if err != nil {
		result.fail("Invalid document: %v", err)
		return result
	}

	if puzzle.Name == "" {
		result.fail("Name is required")
	}
	if puzzle.Description == "" {
		result.fail("Description is required")
	}
	if len(puzzle.Layout) == 0 {
		result.fail("Layout is empty")
		return result
	}

	checkShape(&result, puzzle.Layout)
	if !result.Valid {
		return result
	}

	board, err := engine.Parse(puzzle.Layout)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	validateConnectivity(&result, board)
	for _, p := range board.Blocks {
		if slices.Contains(engine.DeadSquares(board), p) {
			result.fail("Block at %s sits in a corner without a target", p)
		}
	}

	if result.Valid && opts.solve {
		checkSolvable(ctx, &result, board, opts)
	}

	if result.Valid {
		result.note("✓ Name: %s", puzzle.Name)
		result.note("✓ Board: %dx%d", board.Size.X, board.Size.Y)
		result.note("✓ Blocks: %d (%d on target)", len(board.Blocks), board.BlocksOnTarget())
		result.note("✓ Player: %s", board.Player)
	}

	return result
}

// checkShape reports ragged rows and characters outside the board alphabet
func checkShape(result *ValidationResult, layout []string) {
	width := utf8.RuneCountInString(layout[0])
	for i, row := range layout {
		if n := utf8.RuneCountInString(row); n != width {
			result.fail("Inconsistent row width at row %d: expected %d, got %d", i+1, width, n)
		}
		col := 0
		for _, char := range row {
			col++
			if !strings.ContainsRune(engine.ValidBoardChars, char) {
				result.fail("Invalid character '%c' at position [%d,%d]", char, i+1, col)
			}
		}
	}
}

// validateConnectivity ensures every block and target lies in the region the
// player can walk to when blocks are ignored. Anything outside it can never
// be reached.
func validateConnectivity(result *ValidationResult, board *engine.Board) {
	open := board.Clone()
	open.Blocks = nil
	region := engine.ReachableCells(open)

	var unreachable []string
	for _, p := range board.Blocks {
		if !region.Has(p) {
			unreachable = append(unreachable, fmt.Sprintf("Block at %s", p))
		}
	}
	for _, p := range board.TargetList() {
		if !region.Has(p) {
			unreachable = append(unreachable, fmt.Sprintf("Target at %s", p))
		}
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d cells outside the player's region", len(unreachable))
		for _, cell := range unreachable {
			result.fail("Unreachable: %s", cell)
		}
		return
	}
	result.note("✓ Connectivity: all blocks and targets reachable (%d floor cells)", region.Size())
}

// checkSolvable runs the solver. Hitting the state limit is inconclusive
// and only reported as a note.
func checkSolvable(ctx context.Context, result *ValidationResult, board *engine.Board, opts options) {
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	sol, err := engine.SolveContext(ctx, board, engine.WithMaxStates(opts.maxStates))
	switch {
	case errors.Is(err, engine.ErrSearchLimit), errors.Is(err, context.DeadlineExceeded):
		result.note("? Solvability unknown: %v", err)
	case err != nil:
		result.fail("Solver error: %v", err)
	case sol == nil:
		result.fail("No solution exists")
	default:
		result.note("✓ Solution: %d moves (%d states visited)", sol.MoveCount, sol.Stats.Visited)
	}
}

// puzzleFiles lists the puzzle documents in dir
func puzzleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !entry.IsDir() && slices.Contains(engine.PuzzleExtensions, ext) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// report prints one result and returns whether it was valid
func report(w io.Writer, result ValidationResult) bool {
	fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Fprintln(w, "✅ VALID")
		for _, info := range result.Info {
			fmt.Fprintln(w, "  "+info)
		}
		return true
	}

	fmt.Fprintln(w, "❌ INVALID")
	for _, err := range result.Errors {
		fmt.Fprintln(w, "  ❌ "+err)
	}
	return false
}

// run validates every puzzle in dir and fails if any is invalid
func run(ctx context.Context, w io.Writer, dir string, opts options) error {
	files, err := puzzleFiles(dir)
	if err != nil {
		return fmt.Errorf("error finding puzzle files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no puzzles found in %s", dir)
	}

	invalid := 0
	for _, file := range files {
		result := validatePuzzle(ctx, file, opts)
		log.WithFields(log.Fields{
			"file":  result.File,
			"valid": result.Valid,
		}).Debug("validated puzzle")
		if !report(w, result) {
			invalid++
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if invalid > 0 {
		fmt.Fprintln(w, "❌ Some puzzles have errors")
		return fmt.Errorf("%d of %d puzzles are invalid", invalid, len(files))
	}
	fmt.Fprintln(w, "✅ All puzzles are valid!")
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "validate every puzzle in a directory",
		ArgsUsage: "[DIR]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "solve",
				Usage: "also check that each puzzle has a solution",
			},
			&cli.IntFlag{
				Name:    "max-states",
				Value:   500_000,
				Usage:   "state limit for the solvability check",
				Sources: cli.EnvVars("SOLVER_MAX_STATES"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "time limit per puzzle for the solvability check",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			dir := cmd.Args().First()
			if dir == "" {
				dir = "puzzles"
				if env := os.Getenv("PUZZLE_DIR"); env != "" {
					dir = env
				}
			}
			return run(ctx, os.Stdout, dir, options{
				solve:     cmd.Bool("solve"),
				maxStates: cmd.Int("max-states"),
				timeout:   cmd.Duration("timeout"),
			})
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
