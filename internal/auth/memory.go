// Package auth provides the auth/permission collaborator (spec §6.2). The
// only implementation here is an in-memory reference one: session tokens
// and share tokens live for the process lifetime, which is enough to
// exercise the room against real PermissionCheck/GetSessionUser behavior
// without standing up an external identity provider.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/rbitr/altdocs/internal/collab"
)

// share is a single share-token grant, keyed by the blake2b hash of the
// raw token so the token itself never sits unhashed in memory (beyond the
// instant it's minted and handed to the caller).
type share struct {
	documentID string
	permission collab.Permission
}

// InMemory is a process-local reference implementation of collab.Auth.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[string]collab.SessionUser // bearer token -> user
	owners   map[string]string             // documentID -> ownerID, absent = no owner
	shares   map[[32]byte]share            // hash(shareToken) -> grant
}

// NewInMemory builds an empty in-memory auth collaborator.
func NewInMemory() *InMemory {
	return &InMemory{
		sessions: make(map[string]collab.SessionUser),
		owners:   make(map[string]string),
		shares:   make(map[[32]byte]share),
	}
}

// RegisterSession binds a bearer token to a resolved identity, as if an
// external session store had already authenticated it.
func (a *InMemory) RegisterSession(token string, user collab.SessionUser) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[token] = user
}

// SetOwner records documentID's owner. A document with no registered
// owner grants `edit` to anyone (spec §6.2 permission rules).
func (a *InMemory) SetOwner(documentID, ownerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.owners[documentID] = ownerID
}

// CreateShareToken mints a new random share token for documentID with the
// given permission (view or edit) and returns the raw token to hand to
// whoever is granted access. Only its hash is retained.
func (a *InMemory) CreateShareToken(documentID string, permission collab.Permission) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.shares[hashToken(token)] = share{documentID: documentID, permission: permission}
	return token, nil
}

// GetSessionUser implements collab.Auth.
func (a *InMemory) GetSessionUser(ctx context.Context, token string) (collab.SessionUser, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	user, ok := a.sessions[token]
	return user, ok
}

// PermissionCheck implements collab.Auth's rules (spec §6.2): the
// document owner gets `owner`; a document with no owner grants `edit` to
// anyone; a valid share token grants whatever permission it was minted
// with; otherwise `none`.
func (a *InMemory) PermissionCheck(ctx context.Context, userID, documentID, shareToken string) collab.Permission {
	a.mu.RLock()
	defer a.mu.RUnlock()

	owner, hasOwner := a.owners[documentID]
	if hasOwner && owner == userID {
		return collab.PermissionOwner
	}
	if !hasOwner {
		return collab.PermissionEdit
	}

	if shareToken != "" {
		if grant, ok := a.shares[hashToken(shareToken)]; ok && grant.documentID == documentID {
			return grant.permission
		}
	}
	return collab.PermissionNone
}

func hashToken(token string) [32]byte {
	return blake2b.Sum256([]byte(token))
}
