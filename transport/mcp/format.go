package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nPuzzle: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatSessionList(count int, sessions []service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", count)
	for _, s := range sessions {
		status := ""
		if s.GameState != nil {
			status = fmt.Sprintf(", %d/%d on target", s.GameState.BlocksOnTarget, s.GameState.TotalBlocks)
			if s.GameState.Solved {
				status += ", solved"
			}
		}
		fmt.Fprintf(&b, "- %s (Puzzle: %s, Created: %s%s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), status)
	}
	return b.String()
}

// formatGameState renders the counters followed by the board with
// column and row indices
func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Position: (%d,%d) | On target: %d/%d | Moves: %d | Pushes: %d\n\n",
		state.PlayerPos.X, state.PlayerPos.Y,
		state.BlocksOnTarget, state.TotalBlocks, state.TotalMoves, state.Pushes)

	b.WriteString(formatBoard(state.Layout))

	if state.Solved {
		b.WriteString("\nSOLVED!")
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func formatBoard(layout []string) string {
	if len(layout) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("   ")
	for x := range layout[0] {
		b.WriteByte(byte('0' + x%10))
	}
	b.WriteByte('\n')
	for y, row := range layout {
		fmt.Fprintf(&b, "%2d %s\n", y, row)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move failed\n")
	}

	if s := result.Step; s != nil {
		push := ""
		if s.Push {
			push = " push"
		}
		fmt.Fprintf(&b, "Step: %s (%d,%d)→(%d,%d)%s\n", s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y, push)
	}

	if a := result.AttemptedTo; a != nil {
		b.WriteString(formatAttempt(a))
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatAttempt(a *service.AttemptInfo) string {
	pass := "impassable"
	if a.Passable {
		pass = "passable"
	}
	return fmt.Sprintf("Blocked: attempted (%d,%d) tile=%q %s (%s)\n", a.X, a.Y, a.TileChar, a.TileType, pass)
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Puzzle: %s\n", sessionID, configName)
	fmt.Fprintf(&b, "Executed %d/%d moves, pushes +%d\n", result.MovesExecuted, result.RequestedMoves, result.PushesDelta)
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s (%s)\n", result.StoppedOnMove, result.StoppedReason, result.StopReasonCode)
	}
	if result.AttemptedTo != nil {
		b.WriteString(formatAttempt(result.AttemptedTo))
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			push := ""
			if s.Push {
				push = " push"
			}
			fmt.Fprintf(&b, "%d. %s (%d,%d)→(%d,%d)%s\n", s.Idx, s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y, push)
		}
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}
	if len(result.LocalView3x3) == 3 {
		b.WriteString("Local 3x3:\n")
		b.WriteString(strings.Join(result.LocalView3x3, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (page %d/%d, %d total):\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		status := "✓"
		if !m.Success {
			status = "✗"
		}
		push := ""
		if m.Push {
			push = " push"
		}
		fmt.Fprintf(&b, "#%d %s (%d,%d)→(%d,%d)%s %s\n", m.MoveNumber, m.Action,
			m.FromPosition.X, m.FromPosition.Y, m.ToPosition.X, m.ToPosition.Y, push, status)
	}
	if history.HasNext {
		fmt.Fprintf(&b, "More moves on page %d\n", history.Page+1)
	}
	return b.String()
}

func formatSolveResult(result *service.SolveResult) string {
	var b strings.Builder
	if !result.Solvable {
		b.WriteString("no solution found\n")
	} else {
		fmt.Fprintf(&b, "%s\n", result.Notation)
		fmt.Fprintf(&b, "Moves: %s\n", strings.Join(result.Moves, ","))
	}
	fmt.Fprintf(&b, "Search: %d states visited, %d expanded, depth %d, %dms\n",
		result.StatesVisited, result.StatesExpanded, result.Depth, result.DurationMs)
	return b.String()
}

func formatConfigs(configs []service.ConfigInfo) string {
	var b strings.Builder
	b.WriteString("Available Puzzles:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Board: %dx%d, Blocks: %d",
			config.ConfigID, config.Name, config.Description, config.Width, config.Height, config.Blocks)
		if config.Difficulty != "" {
			fmt.Fprintf(&b, ", Difficulty: %s", config.Difficulty)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}
