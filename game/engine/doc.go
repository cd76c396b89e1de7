// Package engine provides the core logic for Sokoban puzzles.
//
// The engine package implements:
//   - Board parsing from the text alphabet (# wall, $ block, . target,
//     * block on target, @ player, + player on target)
//   - The move rule: walk onto free floor, or push exactly one block
//   - A breadth-first solver that returns a shortest move sequence
//   - Interactive play sessions with history, undo and hints
//   - Puzzle loading and validation from JSON documents or text files
//
// Core Types:
//
// Board is one puzzle configuration. Walls and Targets are invariant sets
// shared between all boards derived from the same puzzle; Blocks and Player
// change with every move. Apply produces a new board and never modifies its
// input, which is what lets the solver keep every visited state.
//
// Usage:
//
//	board, err := engine.Parse([]string{
//		"#####",
//		"#@$.#",
//		"#####",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if sol, ok := engine.Solve(board); ok {
//		fmt.Println(sol) // length: 1 moves: [ → ]
//	}
//
// Interactive play goes through GameEngine:
//
//	config, err := engine.LoadConfigByName("starter")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	success := gameEngine.Move("left")
//	state := gameEngine.GetState()
//
// Solver:
//
// The search expands boards in the fixed order Down, Right, Up, Left and
// applies the goal test to a successor before the visited check, so the
// first solution found is shortest in moves. SolveContext adds context
// cancellation, a state limit and parallel expansion of each depth layer.
package engine
