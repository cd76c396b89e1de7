// Package mcp exposes the Sokoban server to AI agents over the Model
// Context Protocol.
//
// The Client is a thin MCP server: every tool call is forwarded to the
// REST API, and the JSON reply is rendered as text for the agent.
//
// MCP Tools:
//   - create_session, get_session, list_sessions: session management
//   - game_state: counters plus the board with column and row indices
//   - move, bulk_move: play moves, bulk_move stops at the first blocked move
//   - undo_move, reset_game: step back or start over
//   - move_history: paginated move log
//   - solve_session: shortest solution from a session's current board
//   - hint: next move of a shortest solution
//   - solve_layout: shortest solution for an inline board
//   - list_configs: available puzzles
//   - game_instructions: rules and board legend
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: mount the Client itself, it answers JSON-RPC messages posted to it
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	mux.Handle("/mcp", client)
package mcp
