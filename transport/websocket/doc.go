// Package websocket pushes live session updates to browsers and other
// listeners.
//
// Clients connect to /ws?session=<id> and receive JSON messages for that
// session only:
//
//	{"session_id": "ab12cd34", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12cd34", "event": "solved", "data": {...}}
//
// The connection is listen-only; moves go through the REST or MCP API.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// A client whose send queue fills up is disconnected rather than allowed to
// stall delivery to the rest of the session.
package websocket
