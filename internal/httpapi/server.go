// Package httpapi is the HTTP front door: it upgrades WebSocket
// connections into the room layer and exposes a few read-only admin
// endpoints. Grounded in the teacher's pkg/server/server.go (mux/
// handleSocket/handleStats/ListenAndServe/Shutdown shape), generalized
// from a single always-on document map to registry-backed rooms created
// lazily on join (spec §4.3).
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/rbitr/altdocs/internal/collab"
	"github.com/rbitr/altdocs/internal/room"
	"github.com/rbitr/altdocs/pkg/export"
	"github.com/rbitr/altdocs/pkg/logger"
)

// DocCounter is satisfied by a collab.Storage implementation that can
// also report how many documents it holds (internal/storage.SQLiteStorage
// does; the interface is kept narrow so httpapi doesn't need the
// concrete type).
type DocCounter interface {
	Count(ctx context.Context) (int, error)
}

// Server is the main HTTP server.
type Server struct {
	service *room.Service
	storage collab.Storage
	auth    collab.Auth
	mux     *http.ServeMux
	start   time.Time
}

// New builds a Server wired to the given collaborators.
func New(service *room.Service, storage collab.Storage, auth collab.Auth) *Server {
	s := &Server{service: service, storage: storage, auth: auth, mux: http.NewServeMux(), start: time.Now()}
	s.mux.HandleFunc("/api/socket/", s.handleSocket)
	s.mux.HandleFunc("/api/export/", s.handleExport)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleSocket upgrades the connection and hands it to room.Connection.
// Route: /api/socket/{documentId}. The bearer token is resolved to an
// identity before the upgrade; join-per-document happens afterward, once
// the client sends a "join" message (spec §4.4 Handshake).
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	user, ok := s.auth.GetSessionUser(r.Context(), token)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	shareToken := r.URL.Query().Get("shareToken")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		logger.Error("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	connHandler := room.NewConnection(s.service, conn, user, shareToken)
	if err := connHandler.Handle(r.Context()); err != nil {
		logger.Error("connection %s: %v", user.UserID, err)
	}
}

// handleExport renders a live room's current document as Markdown.
// Route: /api/export/{documentId}
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	docID := strings.TrimPrefix(r.URL.Path, "/api/export/")
	if docID == "" {
		http.Error(w, "document ID required", http.StatusBadRequest)
		return
	}

	rm, ok := s.service.Get(docID)
	if !ok {
		http.Error(w, "document not in an active room", http.StatusNotFound)
		return
	}

	md := export.ToMarkdown(rm.Document())
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}

// handleStats reports basic server-wide counters.
// Route: /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := struct {
		StartTime    int64 `json:"start_time"`
		ActiveRooms  int   `json:"active_rooms"`
		StoredDocs   int   `json:"stored_documents,omitempty"`
	}{
		StartTime:   s.start.Unix(),
		ActiveRooms: s.service.RoomCount(),
	}

	if counter, ok := s.storage.(DocCounter); ok {
		if n, err := counter.Count(r.Context()); err == nil {
			stats.StoredDocs = n
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
