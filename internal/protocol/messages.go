package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rbitr/altdocs/internal/model"
)

// User is the presence record broadcast for a room participant.
type User struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
}

// JoinMsg is the client's request to join a document room.
type JoinMsg struct {
	DocumentID string `json:"documentId"`
}

// OperationMsg carries an edit, either client→server (no userId, clientId
// optional until the server assigns one) or server→client (fully populated).
type OperationMsg struct {
	DocumentID string          `json:"documentId"`
	ClientID   string          `json:"clientId,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	Version    uint64          `json:"version"`
	Operation  model.Operation `json:"operation"`
}

// CursorMsg carries ephemeral presence data. Cursor/Anchor are nil when the
// sender's selection is collapsed or cleared.
type CursorMsg struct {
	DocumentID  string          `json:"documentId"`
	UserID      string          `json:"userId,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	Color       string          `json:"color,omitempty"`
	Cursor      *model.Position `json:"cursor"`
	Anchor      *model.Position `json:"anchor"`
}

// JoinedMsg acknowledges a successful join with the room's current version
// and the other participants already present.
type JoinedMsg struct {
	DocumentID string `json:"documentId"`
	Version    uint64 `json:"version"`
	Users      []User `json:"users"`
}

// AckMsg confirms a client's own operation was sequenced at Version.
type AckMsg struct {
	DocumentID string `json:"documentId"`
	Version    uint64 `json:"version"`
}

// UserJoinedMsg and UserLeftMsg broadcast presence changes to the rest of a
// room.
type UserJoinedMsg struct {
	DocumentID  string `json:"documentId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
}

type UserLeftMsg struct {
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
}

// ErrorMsg reports a non-fatal protocol or permission failure (§7).
type ErrorMsg struct {
	Message string `json:"message"`
}

// ClientMsg is the tagged union of every message a client may send. Exactly
// one payload field is populated, selected by Type.
type ClientMsg struct {
	Type      MsgType       `json:"type"`
	Join      *JoinMsg      `json:"join,omitempty"`
	Operation *OperationMsg `json:"operation,omitempty"`
	Cursor    *CursorMsg    `json:"cursor,omitempty"`
}

// ServerMsg is the tagged union of every message the server may send.
type ServerMsg struct {
	Type       MsgType        `json:"type"`
	Joined     *JoinedMsg     `json:"joined,omitempty"`
	Operation  *OperationMsg  `json:"operation,omitempty"`
	Ack        *AckMsg        `json:"ack,omitempty"`
	UserJoined *UserJoinedMsg `json:"user_joined,omitempty"`
	UserLeft   *UserLeftMsg   `json:"user_left,omitempty"`
	Cursor     *CursorMsg     `json:"cursor,omitempty"`
	Error      *ErrorMsg      `json:"error,omitempty"`
}

// MarshalJSON flattens the populated payload alongside the type
// discriminant, rather than nesting it one field deeper than the wire
// format names in spec §4.4 (e.g. {"type":"ack","documentId":...} instead
// of {"type":"ack","ack":{"documentId":...}}).
func (m ServerMsg) MarshalJSON() ([]byte, error) {
	flat := map[string]interface{}{"type": m.Type}
	var payload interface{}
	switch m.Type {
	case MsgJoined:
		payload = m.Joined
	case MsgOperation:
		payload = m.Operation
	case MsgAck:
		payload = m.Ack
	case MsgUserJoined:
		payload = m.UserJoined
	case MsgUserLeft:
		payload = m.UserLeft
	case MsgCursor:
		payload = m.Cursor
	case MsgError:
		payload = m.Error
	default:
		return nil, fmt.Errorf("protocol: unknown server message type %q", m.Type)
	}

	merged, err := mergeFlat(flat, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads the type discriminant first, then decodes the rest of
// the object into the matching payload struct. An unknown type decodes
// without error and with no payload set.
func (m *ClientMsg) UnmarshalJSON(data []byte) error {
	var head struct {
		Type MsgType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	m.Type = head.Type

	switch head.Type {
	case MsgJoin:
		var v JoinMsg
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.Join = &v
	case MsgOperation:
		var v OperationMsg
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.Operation = &v
	case MsgCursor:
		var v CursorMsg
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.Cursor = &v
	}
	return nil
}

// mergeFlat JSON-round-trips payload into flat so the discriminant and the
// payload's own fields land in the same top-level object.
func mergeFlat(flat map[string]interface{}, payload interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		flat[k] = v
	}
	return flat, nil
}

// Helper constructors for server messages, matching the teacher's
// NewXxxMsg convention.

func NewJoinedMsg(documentID string, version uint64, users []User) ServerMsg {
	if users == nil {
		users = []User{}
	}
	return ServerMsg{Type: MsgJoined, Joined: &JoinedMsg{DocumentID: documentID, Version: version, Users: users}}
}

func NewOperationMsg(documentID, clientID, userID string, version uint64, op model.Operation) ServerMsg {
	return ServerMsg{Type: MsgOperation, Operation: &OperationMsg{
		DocumentID: documentID,
		ClientID:   clientID,
		UserID:     userID,
		Version:    version,
		Operation:  op,
	}}
}

func NewAckMsg(documentID string, version uint64) ServerMsg {
	return ServerMsg{Type: MsgAck, Ack: &AckMsg{DocumentID: documentID, Version: version}}
}

func NewUserJoinedMsg(documentID, userID, displayName, color string) ServerMsg {
	return ServerMsg{Type: MsgUserJoined, UserJoined: &UserJoinedMsg{
		DocumentID: documentID, UserID: userID, DisplayName: displayName, Color: color,
	}}
}

func NewUserLeftMsg(documentID, userID string) ServerMsg {
	return ServerMsg{Type: MsgUserLeft, UserLeft: &UserLeftMsg{DocumentID: documentID, UserID: userID}}
}

func NewCursorMsg(documentID, userID, displayName, color string, cursor, anchor *model.Position) ServerMsg {
	return ServerMsg{Type: MsgCursor, Cursor: &CursorMsg{
		DocumentID: documentID, UserID: userID, DisplayName: displayName, Color: color,
		Cursor: cursor, Anchor: anchor,
	}}
}

func NewErrorMsg(message string) ServerMsg {
	return ServerMsg{Type: MsgError, Error: &ErrorMsg{Message: message}}
}
