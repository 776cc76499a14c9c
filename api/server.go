// Package api exposes the chat core over HTTP and WebSocket: JSON
// endpoints for auth, contacts and messages, plus a socket pushing live
// timeline snapshots for the open conversation.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"baatchit/services"

	"github.com/gorilla/mux"
)

type Server struct {
	log       *slog.Logger
	auth      services.IAuthService
	chat      services.IChatService
	directory services.IDirectory
}

func NewServer(log *slog.Logger, auth services.IAuthService, chat services.IChatService,
	directory services.IDirectory) *Server {
	return &Server{
		log:       log,
		auth:      auth,
		chat:      chat,
		directory: directory,
	}
}

// Router wires every endpoint. Register and login are public, the rest
// require a valid token.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	router.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(Auth)
	protected.HandleFunc("/users/search", s.handleSearchUsers).Methods(http.MethodGet)
	protected.HandleFunc("/contacts", s.handleContacts).Methods(http.MethodGet)
	protected.HandleFunc("/messages/{userId}", s.handleMessages).Methods(http.MethodGet)
	protected.HandleFunc("/messages", s.handleSend).Methods(http.MethodPost)
	protected.HandleFunc("/messages/{messageId}", s.handleDelete).Methods(http.MethodDelete)
	protected.HandleFunc("/ws/{userId}", s.handleConversationSocket).Methods(http.MethodGet)
	return router
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
