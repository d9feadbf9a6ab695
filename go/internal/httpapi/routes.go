package httpapi

import "net/http"

// Routes mounts every API endpoint on a fresh mux.
func Routes(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/rooms", h.ListRooms)
	mux.HandleFunc("POST /api/rooms", h.CreateRoom)
	mux.HandleFunc("POST /api/rooms/{roomID}/join", h.JoinRoom)
	mux.HandleFunc("GET /api/rooms/{roomID}/members", h.ListMembers)
	mux.HandleFunc("POST /api/rooms/{roomID}/rounds", h.IssueRound)
	mux.HandleFunc("POST /api/profile", h.SaveProfile)
	mux.HandleFunc("GET /api/rooms/{roomID}/ws", h.AttachWebSocket)
	return mux
}
