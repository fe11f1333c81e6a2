package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordmesh/core"
)

func TestInMemoryStoreLazyCreate(t *testing.T) {
	store := NewInMemoryStore()

	state, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "s1", state.ID)
	assert.Empty(t, state.Word)
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	state := core.NewSessionState("s1")
	state.Word = "ambulance"
	state.Mnemonic = "俺不能死"
	require.NoError(t, store.Put(ctx, "s1", state))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ambulance", got.Word)
	assert.Equal(t, "俺不能死", got.Mnemonic)
}

func TestInMemoryStoreCloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	state := core.NewSessionState("s1")
	state.Word = "ambulance"
	require.NoError(t, store.Put(ctx, "s1", state))

	// Mutating what the caller holds must not leak into the store.
	state.Word = "hospital"

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ambulance", got.Word)

	// Neither must mutating what Get handed out.
	got.Word = "clinic"
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ambulance", again.Word)
}

func TestInMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	state := core.NewSessionState("s1")
	state.Word = "ambulance"
	require.NoError(t, store.Put(ctx, "s1", state))
	require.NoError(t, store.Delete(ctx, "s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Word)

	require.NoError(t, store.Delete(ctx, "never-existed"))
}

func TestInMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%4)
			state, err := store.Get(ctx, id)
			assert.NoError(t, err)
			state.Word = fmt.Sprintf("word-%d", i)
			assert.NoError(t, store.Put(ctx, id, state))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, store.Len())
}
