package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserStoreCreateAndLookup(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()
	name := "Demo User"

	user, err := store.Create(ctx, "  Demo@Example.com ", "hash", &name)
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", user.Email)
	assert.NotEqual(t, uuid.Nil, user.ID)

	byEmail, err := store.GetByEmail(ctx, "DEMO@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", byID.PasswordHash)
	require.NotNil(t, byID.Name)
	assert.Equal(t, "Demo User", *byID.Name)
}

func TestMemoryUserStoreConflict(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "a@b.c", "hash", nil)
	require.NoError(t, err)

	_, err = store.Create(ctx, "A@B.C", "other", nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryUserStoreNotFound(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	_, err := store.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserStoreConcurrentCreate(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(ctx, "same@example.com", "hash", nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var created, conflicts int
	for err := range errs {
		switch err {
		case nil:
			created++
		case ErrConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 9, conflicts)
}
