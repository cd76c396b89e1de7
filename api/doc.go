// Package api provides HTTP REST API handlers for the Sokoban server.
//
// Endpoints:
//
// Health:
//   - GET /api, GET /api/health
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "starter"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Several sessions at once (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Session details
//   - DELETE /api/sessions/{id} - Delete a session
//
// Play:
//   - GET /api/sessions/{id}/state - Current board and counters
//   - POST /api/sessions/{id}/move - {"direction": "up", "reset": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["up", "left"], "reset": false}
//   - POST /api/sessions/{id}/undo - Revert the last move
//   - POST /api/sessions/{id}/reset - Back to the initial board
//   - GET /api/sessions/{id}/history - Paginated history (?page=1&limit=20&order=desc)
//
// Solver:
//   - POST /api/sessions/{id}/solve - Shortest solution from the session's current board
//   - GET /api/sessions/{id}/hint - Next move of a shortest solution
//   - POST /api/solve - Solve an inline board ({"layout": [...]} or {"board": "..."})
//
// Puzzles:
//   - GET /api/configs - List puzzles
//   - GET /api/configs/{name} - Fetch a puzzle
//   - POST /api/configs - Save a puzzle
//
// WebSocket:
//   - GET /ws?session={id} - Live state_update and solved events
//
// Errors are returned as {"error": "..."}. Unknown sessions and puzzles
// answer 404; malformed boards and searches that hit the state limit or
// the solver timeout answer 422.
package api
