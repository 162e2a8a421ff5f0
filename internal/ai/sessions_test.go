package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Create("finance_session_1", map[string]any{"monthly_income": 100})
	require.NoError(t, err)
	assert.Equal(t, "finance_session_1", session.ID)

	require.NoError(t, store.Put("finance_session_1", "budget_analysis", "done"))

	loaded, ok := store.Get("finance_session_1")
	require.True(t, ok)
	value, ok := loaded.Value("budget_analysis")
	require.True(t, ok)
	assert.Equal(t, "done", value)
	assert.Len(t, loaded.Snapshot(), 2)

	require.NoError(t, store.Delete("finance_session_1"))
	_, ok = store.Get("finance_session_1")
	assert.False(t, ok)

	assert.ErrorIs(t, store.Delete("finance_session_1"), ErrSessionNotFound)
	assert.ErrorIs(t, store.Put("finance_session_1", "k", "v"), ErrSessionNotFound)
}

func TestSessionStoreCopiesInitialState(t *testing.T) {
	store := newTestStore(t)
	state := map[string]any{"dependants": 1}

	session, err := store.Create("s", state)
	require.NoError(t, err)
	state["dependants"] = 5

	value, _ := session.Value("dependants")
	assert.Equal(t, 1, value)
}

func TestSessionStoreExpiresSessions(t *testing.T) {
	store, err := NewSessionStore(10, 50*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = store.Create("short-lived", nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := store.Get("short-lived")
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}
