package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbitr/altdocs/internal/model"
	"github.com/rbitr/altdocs/internal/room"
)

func newRoom(id string) (*room.Room, error) {
	return room.New(id, model.NewDocument(id, "t")), nil
}

func TestGetOrCreateCreatesOnce(t *testing.T) {
	reg := New()
	calls := 0
	factory := func() (*room.Room, error) {
		calls++
		return newRoom("doc1")
	}

	rm1, created1, err := reg.GetOrCreate("doc1", factory)
	require.NoError(t, err)
	assert.True(t, created1)

	rm2, created2, err := reg.GetOrCreate("doc1", factory)
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Same(t, rm1, rm2)
	assert.Equal(t, 1, calls)
}

func TestGetOrCreateConcurrentSingleWinner(t *testing.T) {
	reg := New()
	var calls int
	var mu sync.Mutex
	factory := func() (*room.Room, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return newRoom("doc-race")
	}

	var wg sync.WaitGroup
	rooms := make([]*room.Room, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rm, _, err := reg.GetOrCreate("doc-race", factory)
			require.NoError(t, err)
			rooms[i] = rm
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(rooms); i++ {
		assert.Same(t, rooms[0], rooms[i])
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrCreatePropagatesFactoryError(t *testing.T) {
	reg := New()
	wantErr := assert.AnError
	_, _, err := reg.GetOrCreate("doc-err", func() (*room.Room, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// A failed create must not leave a room registered.
	_, found := reg.Get("doc-err")
	assert.False(t, found)
}

func TestGetAndRemove(t *testing.T) {
	reg := New()
	_, _, err := reg.GetOrCreate("doc2", func() (*room.Room, error) { return newRoom("doc2") })
	require.NoError(t, err)

	_, found := reg.Get("doc2")
	assert.True(t, found)
	assert.Equal(t, 1, reg.Count())

	reg.Remove("doc2")
	_, found = reg.Get("doc2")
	assert.False(t, found)
	assert.Equal(t, 0, reg.Count())
}

func TestShardsDistributeAcrossDocuments(t *testing.T) {
	reg := New()
	seen := make(map[*shard]bool)
	for i := 0; i < shardCount*4; i++ {
		id := "doc-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		seen[reg.shardFor(id)] = true
	}
	// Not a strict requirement of siphash, but with shardCount*4 distinct
	// keys we expect to have touched a good majority of the shards.
	assert.Greater(t, len(seen), shardCount/2)
}
