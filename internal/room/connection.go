package room

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/rbitr/altdocs/internal/collab"
	"github.com/rbitr/altdocs/internal/protocol"
	"github.com/rbitr/altdocs/pkg/logger"
)

// heartbeatInterval matches spec §4.3: "a periodic ping (~30s) is sent to
// every connection; connections not marked alive on the next tick are
// force-terminated."
const heartbeatInterval = 30 * time.Second

// Connection handles one authenticated WebSocket connection across its
// lifetime, including a `join` to a new document implicitly leaving the
// previous one (spec §4.4 Handshake). Grounded in the teacher's
// connection.go Handle/sendInitial/broadcastUpdates/send structure,
// generalized from a single fixed document to join-on-demand rooms.
type Connection struct {
	service *Service
	conn    *websocket.Conn
	user    collab.SessionUser
	shareToken string

	sendMu sync.Mutex
	alive  atomic.Bool

	mu        sync.Mutex
	curRoom   *Room
	curClient string
	curDocID  string
}

// NewConnection wraps an accepted WebSocket connection for user,
// authenticated once at connect time per spec §4.4 "Authentication".
func NewConnection(service *Service, conn *websocket.Conn, user collab.SessionUser, shareToken string) *Connection {
	c := &Connection{service: service, conn: conn, user: user, shareToken: shareToken}
	c.alive.Store(true)
	return c
}

// Handle runs the connection's message loop until the socket closes or ctx
// is canceled.
func (c *Connection) Handle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.leaveCurrent()

	go c.heartbeat(ctx, cancel)

	for {
		var msg protocol.ClientMsg
		err := wsjson.Read(ctx, c.conn, &msg)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		c.alive.Store(true)

		if err := c.handleMessage(ctx, &msg); err != nil {
			logger.Error("connection %s: %v", c.user.UserID, err)
		}
	}
}

func (c *Connection) heartbeat(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.alive.Swap(false) {
				logger.Info("connection %s: missed heartbeat, closing", c.user.UserID)
				cancel()
				return
			}
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.conn.Ping(pingCtx)
			pingCancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}

func (c *Connection) handleMessage(ctx context.Context, msg *protocol.ClientMsg) error {
	switch msg.Type {
	case protocol.MsgJoin:
		if msg.Join == nil {
			return c.send(ctx, protocol.NewErrorMsg("invalid message format"))
		}
		return c.handleJoin(ctx, msg.Join.DocumentID)
	case protocol.MsgOperation:
		if msg.Operation == nil {
			return c.send(ctx, protocol.NewErrorMsg("invalid message format"))
		}
		return c.handleOperation(ctx, msg.Operation)
	case protocol.MsgCursor:
		if msg.Cursor == nil {
			return c.send(ctx, protocol.NewErrorMsg("invalid message format"))
		}
		return c.handleCursor(ctx, msg.Cursor)
	default:
		// Unknown message type: silently ignored (spec §4.3 Failure semantics).
		return nil
	}
}

func (c *Connection) handleJoin(ctx context.Context, documentID string) error {
	c.leaveCurrent()

	result, err := c.service.Join(ctx, documentID, c.user, c.shareToken)
	if err != nil {
		return c.send(ctx, protocol.NewErrorMsg(err.Error()))
	}

	ch := result.Room.Subscribe(result.ClientID, BroadcastBufferSize)

	c.mu.Lock()
	c.curRoom = result.Room
	c.curClient = result.ClientID
	c.curDocID = documentID
	c.mu.Unlock()

	go c.forward(ctx, ch)

	if err := c.send(ctx, protocol.NewJoinedMsg(documentID, result.Version, result.Users)); err != nil {
		return err
	}
	result.Room.Broadcast(protocol.NewUserJoinedMsg(documentID, c.user.UserID, c.user.DisplayName, c.user.Color), result.ClientID)
	return nil
}

func (c *Connection) handleOperation(ctx context.Context, m *protocol.OperationMsg) error {
	rm, clientID, ok := c.current(m.DocumentID)
	if !ok {
		return c.send(ctx, protocol.NewErrorMsg("not in a document room"))
	}

	transformed, version, err := rm.HandleOperation(clientID, m.Version, m.Operation)
	if err != nil {
		return c.send(ctx, protocol.NewErrorMsg(err.Error()))
	}

	if err := c.send(ctx, protocol.NewAckMsg(m.DocumentID, version)); err != nil {
		return err
	}
	rm.Broadcast(protocol.NewOperationMsg(m.DocumentID, clientID, c.user.UserID, version, transformed), clientID)
	return nil
}

func (c *Connection) handleCursor(ctx context.Context, m *protocol.CursorMsg) error {
	rm, clientID, ok := c.current(m.DocumentID)
	if !ok {
		return c.send(ctx, protocol.NewErrorMsg("not in a document room"))
	}
	userID, displayName, color, ok := rm.ParticipantInfo(clientID)
	if !ok {
		return nil
	}
	rm.Broadcast(protocol.NewCursorMsg(m.DocumentID, userID, displayName, color, m.Cursor, m.Anchor), clientID)
	return nil
}

func (c *Connection) current(documentID string) (*Room, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.curRoom == nil || c.curDocID != documentID {
		return nil, "", false
	}
	return c.curRoom, c.curClient, true
}

func (c *Connection) leaveCurrent() {
	c.mu.Lock()
	rm, clientID, docID := c.curRoom, c.curClient, c.curDocID
	c.curRoom, c.curClient, c.curDocID = nil, "", ""
	c.mu.Unlock()

	if rm == nil {
		return
	}
	userID, ok := c.service.Leave(docID, clientID)
	if !ok {
		return
	}
	rm.Broadcast(protocol.NewUserLeftMsg(docID, userID), clientID)
}

func (c *Connection) forward(ctx context.Context, ch <-chan protocol.ServerMsg) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := c.send(ctx, msg); err != nil {
				logger.Error("connection %s: broadcast send failed: %v", c.user.UserID, err)
				return
			}
		}
	}
}

func (c *Connection) send(ctx context.Context, msg protocol.ServerMsg) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, c.conn, msg)
}
