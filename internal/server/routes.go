// Package server wires the realtime endpoint and the REST surface into a
// ServeMux via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes: the websocket endpoint, account and room management, and the
// history endpoints.
func SetupRoutes(api *API, ws *WSHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/ws", ws)
	mux.HandleFunc("GET /health", api.Health)

	mux.HandleFunc("POST /signup", api.Signup)
	mux.HandleFunc("POST /signin", api.Signin)
	mux.HandleFunc("POST /room-id", api.RequireAuth(api.CreateRoom))
	mux.HandleFunc("GET /room/{slug}", api.RoomBySlug)
	mux.HandleFunc("GET /chats/{roomId}", api.ChatHistory)
	mux.HandleFunc("GET /shapes/{roomId}", api.ShapeHistory)

	return mux
}
