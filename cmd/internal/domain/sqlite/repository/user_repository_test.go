package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sharenotes/cmd/internal/testutil"
)

func TestUserRepository_FindActiveByEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	bob := testutil.CreateUser(t, db, "Bob@Example.com")

	found, err := repo.FindActiveByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, bob.ID, found.ID)

	exists, err := repo.ExistsActiveByEmail(ctx, "BOB@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	bob.Active = false
	require.NoError(t, repo.Save(ctx, bob))

	found, err = repo.FindActiveByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUserRepository_FindActiveBySub(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)

	alice := testutil.CreateUser(t, db, "alice@example.com")

	found, err := repo.FindActiveBySub(context.Background(), alice.SubUUID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, alice.Email, found.Email)

	missing, err := repo.FindActiveBySub(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
