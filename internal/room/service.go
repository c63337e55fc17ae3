package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rbitr/altdocs/internal/collab"
	"github.com/rbitr/altdocs/internal/model"
	"github.com/rbitr/altdocs/internal/protocol"
	"github.com/rbitr/altdocs/internal/registry"
	"github.com/rbitr/altdocs/pkg/logger"
)

// BroadcastBufferSize is the per-connection outbound channel capacity
// (spec §5 "unbounded ... queues are explicitly not a contract" — we pick
// a bounded size and drop rather than block or grow without limit).
const BroadcastBufferSize = 64

// Service wires the room registry to the storage and auth collaborators,
// implementing the message handlers from spec §4.3 independent of any
// particular transport (grounded in the teacher's Server/Rustpad split,
// server.go's getOrCreateDocument + persister wiring).
type Service struct {
	registry *registry.Registry
	storage  collab.Storage
	auth     collab.Auth
}

// NewService builds a Service over a fresh registry.
func NewService(storage collab.Storage, auth collab.Auth) *Service {
	return &Service{registry: registry.New(), storage: storage, auth: auth}
}

// JoinResult is everything a connection needs after a successful join.
type JoinResult struct {
	Room        *Room
	ClientID    string
	UserID      string
	DisplayName string
	Color       string
	Version     uint64
	Users       []protocol.User
}

// Join implements spec §4.3's join handler: it fetches the document on
// first join, runs the permission check, creates the room if necessary,
// admits the participant, and returns what the caller needs to reply
// `joined` and broadcast `user_joined`.
func (s *Service) Join(ctx context.Context, documentID string, user collab.SessionUser, shareToken string) (*JoinResult, error) {
	// A room already live for this document implies the document exists
	// and permission was already established for its first participant;
	// only a brand-new room needs the fetch-then-check sequence below.
	if _, live := s.registry.Get(documentID); !live {
		if _, err := s.storage.FetchDocument(ctx, documentID); err != nil {
			if errors.Is(err, collab.ErrNotFound) {
				return nil, fmt.Errorf("document not found")
			}
			return nil, err
		}
	}

	perm := s.auth.PermissionCheck(ctx, user.UserID, documentID, shareToken)
	if perm == collab.PermissionNone {
		return nil, fmt.Errorf("access denied")
	}

	rm, _, err := s.registry.GetOrCreate(documentID, func() (*Room, error) {
		return s.createRoom(ctx, documentID)
	})
	if err != nil {
		return nil, err
	}

	clientID, version, users := rm.Join(user.UserID, user.DisplayName, user.Color, perm)
	return &JoinResult{
		Room: rm, ClientID: clientID,
		UserID: user.UserID, DisplayName: user.DisplayName, Color: user.Color,
		Version: version, Users: users,
	}, nil
}

// createRoom fetches and parses a document for a brand-new room, falling
// back to a blank one-paragraph document if the persisted content fails
// to parse (spec §4.3 step 4). A failed lookup is returned as an error,
// with no fallback.
func (s *Service) createRoom(ctx context.Context, documentID string) (*Room, error) {
	persisted, err := s.storage.FetchDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	doc, parseErr := decodeDocument(documentID, persisted.Title, persisted.Content)
	if parseErr != nil {
		logger.Error("room %s: persisted content failed to parse, falling back to blank document: %v", documentID, parseErr)
		doc = model.NewDocument(documentID, persisted.Title)
	}
	return New(documentID, doc), nil
}

func decodeDocument(id, title string, content []byte) (model.Document, error) {
	if len(content) == 0 {
		return model.NewDocument(id, title), nil
	}
	var blocks []model.Block
	if err := json.Unmarshal(content, &blocks); err != nil {
		return model.Document{}, err
	}
	return model.Document{ID: id, Title: title, Blocks: blocks}, nil
}

// Leave implements the disconnect path: remove the participant and
// destroy the room if it is now empty (spec §4.3 lifecycle).
func (s *Service) Leave(documentID, clientID string) (userID string, ok bool) {
	rm, found := s.registry.Get(documentID)
	if !found {
		return "", false
	}
	userID, empty, ok := rm.Leave(clientID)
	rm.Unsubscribe(clientID)
	if empty {
		s.registry.Remove(documentID)
	}
	return userID, ok
}

// RoomCount reports the number of live rooms, for status/metrics endpoints.
func (s *Service) RoomCount() int { return s.registry.Count() }

// Get returns the live room for documentID, if any.
func (s *Service) Get(documentID string) (*Room, bool) { return s.registry.Get(documentID) }
