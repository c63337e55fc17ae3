package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbitr/altdocs/internal/collab"
)

func TestPermissionCheckNoOwnerGrantsEdit(t *testing.T) {
	a := NewInMemory()
	assert.Equal(t, collab.PermissionEdit, a.PermissionCheck(context.Background(), "anyone", "doc1", ""))
}

func TestPermissionCheckOwnerGetsOwner(t *testing.T) {
	a := NewInMemory()
	a.SetOwner("doc1", "alice")
	assert.Equal(t, collab.PermissionOwner, a.PermissionCheck(context.Background(), "alice", "doc1", ""))
}

func TestPermissionCheckNonOwnerWithoutShareTokenDenied(t *testing.T) {
	a := NewInMemory()
	a.SetOwner("doc1", "alice")
	assert.Equal(t, collab.PermissionNone, a.PermissionCheck(context.Background(), "bob", "doc1", ""))
}

func TestShareTokenGrantsItsPermission(t *testing.T) {
	a := NewInMemory()
	a.SetOwner("doc1", "alice")

	token, err := a.CreateShareToken("doc1", collab.PermissionView)
	require.NoError(t, err)

	got := a.PermissionCheck(context.Background(), "bob", "doc1", token)
	assert.Equal(t, collab.PermissionView, got)
}

func TestShareTokenScopedToItsDocument(t *testing.T) {
	a := NewInMemory()
	a.SetOwner("doc1", "alice")
	a.SetOwner("doc2", "alice")

	token, err := a.CreateShareToken("doc1", collab.PermissionEdit)
	require.NoError(t, err)

	got := a.PermissionCheck(context.Background(), "bob", "doc2", token)
	assert.Equal(t, collab.PermissionNone, got)
}

func TestInvalidShareTokenDenied(t *testing.T) {
	a := NewInMemory()
	a.SetOwner("doc1", "alice")
	assert.Equal(t, collab.PermissionNone, a.PermissionCheck(context.Background(), "bob", "doc1", "not-a-real-token"))
}

func TestGetSessionUser(t *testing.T) {
	a := NewInMemory()
	user := collab.SessionUser{UserID: "alice", DisplayName: "Alice", Color: "#fff"}
	a.RegisterSession("tok-123", user)

	got, ok := a.GetSessionUser(context.Background(), "tok-123")
	require.True(t, ok)
	assert.Equal(t, user, got)

	_, ok = a.GetSessionUser(context.Background(), "unknown")
	assert.False(t, ok)
}
