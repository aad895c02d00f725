package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/testutil"
)

func TestNoteRepository_FindByOwnerOrdering(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")

	old := testutil.CreateNote(t, db, alice, "old", 1000)
	newest := testutil.CreateNote(t, db, alice, "newest", 3000)
	middle := testutil.CreateNote(t, db, alice, "middle", 2000)
	testutil.CreateNote(t, db, bob, "not mine", 5000)

	notes, err := repo.FindByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, []int64{newest.ID, middle.ID, old.ID}, ids(notes))
}

func TestNoteRepository_FindByOwnerEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNoteRepository(db)

	notes, err := repo.FindByOwner(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestNoteRepository_FindSharedWith(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")

	groceries := testutil.CreateNote(t, db, alice, "Groceries", 1000)
	todo := testutil.CreateNote(t, db, alice, "Todo", 2000)
	testutil.CreateNote(t, db, alice, "Private", 3000)

	testutil.CreateShare(t, db, groceries, bob, false)
	testutil.CreateShare(t, db, todo, bob, true)

	notes, err := repo.FindSharedWith(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{todo.ID, groceries.ID}, ids(notes))

	notes, err = repo.FindSharedWith(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNoteRepository_FindByIDMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNoteRepository(db)

	note, err := repo.FindByID(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, note)
}

func TestNoteRepository_DeleteWithShares(t *testing.T) {
	db := testutil.NewDB(t)
	notes := NewNoteRepository(db)
	shares := NewShareRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")
	note := testutil.CreateNote(t, db, alice, "Groceries", 1000)
	testutil.CreateShare(t, db, note, bob, false)

	require.NoError(t, notes.DeleteWithShares(ctx, note))

	found, err := notes.FindByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	remaining, err := shares.FindByNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestNoteRepository_CanceledContext(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNoteRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindByOwner(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func ids(notes []*entity.Note) []int64 {
	out := make([]int64, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}
