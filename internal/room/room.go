// Package room implements the session server (spec §4.3): for each
// document with at least one live client, it sequences operations,
// transforms them against history, broadcasts to participants, and
// tracks presence.
package room

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/rbitr/altdocs/internal/collab"
	"github.com/rbitr/altdocs/internal/model"
	"github.com/rbitr/altdocs/internal/protocol"
	"github.com/rbitr/altdocs/internal/transform"
	"github.com/rbitr/altdocs/pkg/logger"
)

// historyEntry is one applied operation kept in the ring buffer, in the
// shape the replay step in HandleOperation needs.
type historyEntry struct {
	op       model.Operation
	clientID string
	version  uint64
}

// participant is what the room remembers about one joined connection.
type participant struct {
	userID      string
	displayName string
	color       string
	permission  collab.Permission
}

// Room is the authoritative state for one document while it has at least
// one connected client (spec §4.3 "State (per room)").
type Room struct {
	documentID string

	mu       sync.RWMutex
	version  uint64
	document model.Document
	history  []historyEntry // ring buffer, capped at protocol.MaxHistoryLength
	clients  map[string]*participant

	subscribers map[string]chan protocol.ServerMsg
}

// New creates a room seeded with doc (parsed from persisted content, or a
// blank document if the caller's parse fell back per spec §4.3 step 4).
func New(documentID string, doc model.Document) *Room {
	return &Room{
		documentID:  documentID,
		document:    doc,
		clients:     make(map[string]*participant),
		subscribers: make(map[string]chan protocol.ServerMsg),
	}
}

// DocumentID returns the room's document ID.
func (r *Room) DocumentID() string { return r.documentID }

// Version returns the room's current version (thread-safe).
func (r *Room) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Document returns a deep copy of the room's current document, safe for
// the caller to read or mutate.
func (r *Room) Document() model.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.document.Clone()
}

// newClientID generates a room-unique clientId: userId plus a random
// suffix (spec §4.3 step 5), so the same user joining from two tabs gets
// two distinct participants.
func (r *Room) newClientID(userID string) string {
	return userID + "#" + uuid.NewString()
}

// Join admits a participant, returning their room-local clientId, the
// room's current version, and the other participants present (spec §4.3
// "join" steps 3, 5-7 minus the broadcast, which the caller issues via
// Subscribe + Broadcast once it has wired up the connection).
func (r *Room) Join(userID, displayName, color string, perm collab.Permission) (clientID string, version uint64, users []protocol.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clientID = r.newClientID(userID)
	r.clients[clientID] = &participant{userID: userID, displayName: displayName, color: color, permission: perm}

	users = make([]protocol.User, 0, len(r.clients)-1)
	for id, p := range r.clients {
		if id == clientID {
			continue
		}
		users = append(users, protocol.User{UserID: p.userID, DisplayName: p.displayName, Color: p.color})
	}
	return clientID, r.version, users
}

// Leave removes a participant. ok is false if clientID was never joined.
// empty reports whether the room has no participants left, in which case
// the caller is responsible for destroying it (spec §4.3 lifecycle).
func (r *Room) Leave(clientID string) (userID string, empty bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, present := r.clients[clientID]
	if !present {
		return "", len(r.clients) == 0, false
	}
	delete(r.clients, clientID)
	return p.userID, len(r.clients) == 0, true
}

// ErrNotParticipant is returned when a message names a clientId the room
// doesn't recognize (spec §4.3: "Room must exist and sender must be a
// participant; otherwise error").
var ErrNotParticipant = roomError("not in a document room")

// ErrReadOnly is returned when a view-permission participant submits an
// operation (spec §4.3 step 2, §7 ReadOnlyViolation).
var ErrReadOnly = roomError("read-only access")

type roomError string

func (e roomError) Error() string { return string(e) }

// HandleOperation sequences a client operation: it replays it against any
// history the client hasn't seen, applies the transformed result, and
// appends it to history (spec §4.3 "operation" handler, §8.2 TP1 via
// repeated transformSingle).
func (r *Room) HandleOperation(clientID string, base uint64, op model.Operation) (transformed model.Operation, version uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.clients[clientID]
	if !ok {
		return model.Operation{}, 0, ErrNotParticipant
	}
	if !p.permission.CanEdit() {
		return model.Operation{}, 0, ErrReadOnly
	}

	// StaleBase (spec §7): if base predates the oldest entry still held,
	// replay against whatever tail remains rather than rejecting outright.
	replayFrom := base
	if len(r.history) > 0 && replayFrom < r.history[0].version {
		replayFrom = r.history[0].version - 1
	}

	transformed = op
	for _, entry := range r.history {
		if entry.version <= replayFrom {
			continue
		}
		transformed = transform.TransformSingle(transformed, entry.op)
	}

	if transformed.Type == model.OpMergeBlock {
		transformed.MergeLength = mergeLength(r.document, transformed.BlockIndex)
	}

	r.document = model.Apply(r.document, transformed)
	r.version++
	version = r.version

	r.history = append(r.history, historyEntry{op: transformed, clientID: clientID, version: version})
	if overflow := len(r.history) - protocol.MaxHistoryLength; overflow > 0 {
		r.history = slices.Delete(r.history, 0, overflow)
	}

	logger.Debug("room %s: applied op from %s, version=%d", r.documentID, clientID, version)
	return transformed, version, nil
}

// mergeLength computes the MergeLength stamp a merge_block needs: the
// rune-length of the block immediately preceding blockIndex (spec §3.6,
// internal/transform's TPosVsMerge). Out-of-range indices yield 0, which
// apply() already treats as a no-op merge.
func mergeLength(doc model.Document, blockIndex int) int {
	if blockIndex <= 0 || blockIndex >= len(doc.Blocks) {
		return 0
	}
	return len([]rune(doc.Blocks[blockIndex-1].Text()))
}

// ParticipantInfo returns the (userId, displayName, color) for a client,
// for the cursor broadcast (spec §4.3 "cursor" handler).
func (r *Room) ParticipantInfo(clientID string) (userID, displayName, color string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, present := r.clients[clientID]
	if !present {
		return "", "", "", false
	}
	return p.userID, p.displayName, p.color, true
}

// Subscribe creates a channel the caller's connection goroutine reads
// outbound broadcasts from (grounded in the teacher's per-connection
// subscriber-channel pattern, kolabpad.go Subscribe/broadcast).
func (r *Room) Subscribe(clientID string, bufferSize int) <-chan protocol.ServerMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan protocol.ServerMsg, bufferSize)
	r.subscribers[clientID] = ch
	return ch
}

// Unsubscribe closes and removes clientID's broadcast channel.
func (r *Room) Unsubscribe(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.subscribers[clientID]; ok {
		close(ch)
		delete(r.subscribers, clientID)
	}
}

// Broadcast fans msg out to every subscriber except the one named by
// exceptClientID (use "" to exclude none). Sends are non-blocking: a
// subscriber whose channel is full is simply skipped, per spec §5
// "unbounded per-connection send queues are explicitly not a contract".
func (r *Room) Broadcast(msg protocol.ServerMsg, exceptClientID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, ch := range r.subscribers {
		if id == exceptClientID {
			continue
		}
		select {
		case ch <- msg:
		default:
		}
	}
}

// Empty reports whether the room currently has no participants.
func (r *Room) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0
}
