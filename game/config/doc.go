// Package config provides puzzle management for the Sokoban server.
//
// The config package handles:
//   - Loading puzzles from JSON documents and plain text files
//   - Validation through the engine loader rules
//   - Default puzzle selection
//   - Puzzle discovery and listing
//
// Puzzle Format:
//
// JSON puzzles carry a name, a description, an optional difficulty and the
// layout rows:
//
//	{
//	  "name": "starter",
//	  "description": "Two blocks, two targets",
//	  "layout": ["######", "#@$ .#", "######"]
//	}
//
// Text puzzles (.txt or .sok) hold only the rows; the puzzle takes its name
// from the file.
//
// Usage:
//
//	manager, err := config.NewManager("puzzles")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzle, err := manager.LoadConfig("starter")
//	configs, err := manager.ListConfigs()
package config
