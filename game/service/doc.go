// Package service provides the business logic layer for the Sokoban server.
//
// The service package implements:
//   - Multi-session play management
//   - Move, bulk move, undo and reset processing
//   - Paginated move history
//   - Solver runs on a session board or an inline layout
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval and persistence.
// ConfigManager loads puzzles.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Each session owns its own engine instance. Solver runs take a
// snapshot of the session board and search it outside the service lock, so
// a long search never blocks moves in other sessions. Searches are bounded
// by SolverOptions: a state limit, a worker count and a timeout.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("puzzles")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "starter")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "left", false)
//	solution, err := gameService.Solve(ctx, info.ID)
package service
