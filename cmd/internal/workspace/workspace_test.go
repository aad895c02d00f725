package workspace

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sharenotes/cmd/internal/contract"
)

type fakeSource struct {
	owned     []*contract.NoteResponse
	shared    []*contract.NoteResponse
	nextID    int64
	sharedErr error
	deleteErr error
}

func (f *fakeSource) ListOwnedNotes(context.Context) ([]*contract.NoteResponse, error) {
	return append([]*contract.NoteResponse(nil), f.owned...), nil
}

func (f *fakeSource) ListSharedNotes(context.Context) ([]*contract.NoteResponse, error) {
	if f.sharedErr != nil {
		return nil, f.sharedErr
	}
	return append([]*contract.NoteResponse(nil), f.shared...), nil
}

func (f *fakeSource) CreateNote(_ context.Context, title string) (*contract.NoteResponse, error) {
	f.nextID++
	note := &contract.NoteResponse{ID: f.nextID, Title: title}
	f.owned = append([]*contract.NoteResponse{note}, f.owned...)
	return note, nil
}

func (f *fakeSource) DeleteNote(_ context.Context, noteID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, note := range f.owned {
		if note.ID == noteID {
			f.owned = append(f.owned[:i], f.owned[i+1:]...)
			break
		}
	}
	return nil
}

func TestFilterNotes(t *testing.T) {
	notes := []*contract.NoteResponse{
		{ID: 1, Title: "Groceries"},
		{ID: 2, Title: "Work todo"},
		{ID: 3, Title: "grocery list v2"},
	}

	filtered := FilterNotes(notes, "GROC")
	require.Len(t, filtered, 2)
	assert.Equal(t, int64(1), filtered[0].ID)
	assert.Equal(t, int64(3), filtered[1].ID)

	assert.Len(t, FilterNotes(notes, ""), 3)
	assert.Empty(t, FilterNotes(notes, "nothing"))
}

func TestCreateSelectsNewNote(t *testing.T) {
	src := &fakeSource{nextID: 100}
	ws := New(src)
	ctx := context.Background()

	note, err := ws.Create(ctx, "Groceries")
	require.NoError(t, err)

	selected := ws.Selected()
	require.NotNil(t, selected)
	assert.Equal(t, note.ID, selected.ID)
	assert.Len(t, ws.Owned(), 1)
}

func TestDeleteClearsSelection(t *testing.T) {
	src := &fakeSource{}
	ws := New(src)
	ctx := context.Background()

	first, err := ws.Create(ctx, "first")
	require.NoError(t, err)
	second, err := ws.Create(ctx, "second")
	require.NoError(t, err)

	require.True(t, ws.Select(first.ID))
	require.NoError(t, ws.Delete(ctx, second.ID))
	require.NotNil(t, ws.Selected())
	assert.Equal(t, first.ID, ws.Selected().ID)

	require.NoError(t, ws.Delete(ctx, first.ID))
	assert.Nil(t, ws.Selected())
	assert.Empty(t, ws.Owned())
}

func TestDeleteFailureKeepsState(t *testing.T) {
	src := &fakeSource{}
	ws := New(src)
	ctx := context.Background()

	note, err := ws.Create(ctx, "keep")
	require.NoError(t, err)

	src.deleteErr = errors.New("forbidden")
	assert.Error(t, ws.Delete(ctx, note.ID))
	assert.NotNil(t, ws.Selected())
	assert.Len(t, ws.Owned(), 1)
}

func TestReloadListsAreIndependent(t *testing.T) {
	src := &fakeSource{
		owned:  []*contract.NoteResponse{{ID: 1, Title: "mine"}},
		shared: []*contract.NoteResponse{{ID: 2, Title: "theirs"}},
	}
	ws := New(src)
	ctx := context.Background()
	require.NoError(t, ws.Reload(ctx))

	src.owned = append(src.owned, &contract.NoteResponse{ID: 3, Title: "mine too"})
	src.sharedErr = errors.New("store timeout")

	err := ws.Reload(ctx)
	require.Error(t, err)
	assert.Len(t, ws.Owned(), 2)
	assert.Len(t, ws.Shared(), 1, "shared list keeps its previous copy")
}

func TestFilterAppliesToBothLists(t *testing.T) {
	src := &fakeSource{
		owned:  []*contract.NoteResponse{{ID: 1, Title: "Groceries"}, {ID: 2, Title: "Work"}},
		shared: []*contract.NoteResponse{{ID: 3, Title: "Shared groceries"}},
	}
	ws := New(src)
	require.NoError(t, ws.Reload(context.Background()))

	ws.SetFilter("groceries")
	assert.Len(t, ws.Owned(), 1)
	assert.Len(t, ws.Shared(), 1)

	assert.False(t, ws.Select(99))
	assert.True(t, ws.Select(3))
}
