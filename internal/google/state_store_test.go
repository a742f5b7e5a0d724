package google

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_IssueConsume(t *testing.T) {
	store := NewStateStore(time.Minute, nil)

	state := store.Issue()
	require.NotEmpty(t, state)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Consume(state))
	assert.Equal(t, 0, store.Len())

	// One-shot: replay is rejected.
	assert.ErrorIs(t, store.Consume(state), ErrInvalidState)
}

func TestStateStore_Unknown(t *testing.T) {
	store := NewStateStore(time.Minute, nil)
	assert.ErrorIs(t, store.Consume("never-issued"), ErrInvalidState)
}

func TestStateStore_Expired(t *testing.T) {
	store := NewStateStore(time.Minute, nil)
	now := time.Now()
	store.now = func() time.Time { return now }

	state := store.Issue()

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.ErrorIs(t, store.Consume(state), ErrInvalidState)
	assert.Equal(t, 0, store.Len(), "expired state must be removed on lookup")
}

func TestStateStore_CleanupOnIssue(t *testing.T) {
	store := NewStateStore(time.Minute, nil)
	now := time.Now()
	store.now = func() time.Time { return now }

	store.Issue()
	store.Issue()
	assert.Equal(t, 2, store.Len())

	store.now = func() time.Time { return now.Add(time.Hour) }
	store.Issue()
	assert.Equal(t, 1, store.Len())
}

func TestStateStore_DefaultTTL(t *testing.T) {
	store := NewStateStore(0, nil)
	assert.Equal(t, DefaultStateTTL, store.ttl)
}

func TestStateStore_Concurrent(t *testing.T) {
	store := NewStateStore(time.Minute, nil)

	var wg sync.WaitGroup
	states := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			states <- store.Issue()
		}()
	}
	wg.Wait()
	close(states)

	seen := make(map[string]bool)
	for s := range states {
		assert.False(t, seen[s], "states must be unique")
		seen[s] = true
		assert.NoError(t, store.Consume(s))
	}
}
