// Package protocol defines the WebSocket message protocol between client and server.
package protocol

const (
	// MaxHistoryLength caps the number of operations a room's ring buffer
	// retains (spec §3.7 / §4.3).
	MaxHistoryLength = 1000

	// HeartbeatInterval is how often the room pings idle connections.
	HeartbeatInterval = 30
)

// MsgType discriminates the client/server message union on the wire.
type MsgType string

const (
	MsgJoin       MsgType = "join"
	MsgOperation  MsgType = "operation"
	MsgCursor     MsgType = "cursor"
	MsgJoined     MsgType = "joined"
	MsgAck        MsgType = "ack"
	MsgUserJoined MsgType = "user_joined"
	MsgUserLeft   MsgType = "user_left"
	MsgError      MsgType = "error"
)
