package api

import (
	"net/http"

	"baatchit/domain"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// handleConversationSocket opens the live view of one conversation.
// Each store change touching it pushes a fresh full snapshot, so the
// client renders whatever arrives and never reorders locally. Opening a
// socket for another counterpart detaches the previous one.
func (s *Server) handleConversationSocket(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)
	viewerID := domain.UserID(session.UserID)
	counterpartID := domain.UserID(mux.Vars(r)["userId"])

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// The constructor publishes the initial load through the same
	// callback, so the first frame is queued before the loop starts.
	snapshots := make(chan []domain.Message, 8)
	_, cancel, err := s.chat.OpenConversation(viewerID, counterpartID,
		func(messages []domain.Message) {
			select {
			case snapshots <- messages:
			default:
				// A newer snapshot is already queued behind this one
			}
		})
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}
	defer cancel()

	// Reader goroutine: its only job is to notice the client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case messages := <-snapshots:
			if err := conn.WriteJSON(toMessageDTOs(messages)); err != nil {
				s.log.Debug("WebSocket write failed, closing",
					"viewerId", viewerID, "err", err)
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
