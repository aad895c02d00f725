// Package workspace keeps the note lists a user browses: their own notes and
// the notes shared with them, a title filter and the current selection.
package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"

	"sharenotes/cmd/internal/contract"
)

// NoteSource is the remote side of the workspace.
type NoteSource interface {
	ListOwnedNotes(ctx context.Context) ([]*contract.NoteResponse, error)
	ListSharedNotes(ctx context.Context) ([]*contract.NoteResponse, error)
	CreateNote(ctx context.Context, title string) (*contract.NoteResponse, error)
	DeleteNote(ctx context.Context, noteID int64) error
}

type Workspace struct {
	source NoteSource

	mu       sync.RWMutex
	owned    []*contract.NoteResponse
	shared   []*contract.NoteResponse
	filter   string
	selected int64
}

func New(source NoteSource) *Workspace {
	return &Workspace{source: source}
}

// Reload fetches both lists. They load independently, so one failing
// keeps the previous copy of that list and the other still refreshes.
func (w *Workspace) Reload(ctx context.Context) error {
	owned, ownedErr := w.source.ListOwnedNotes(ctx)
	shared, sharedErr := w.source.ListSharedNotes(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	if ownedErr == nil {
		w.owned = owned
	}
	if sharedErr == nil {
		w.shared = shared
	}
	return errors.Join(ownedErr, sharedErr)
}

// Create inserts a note, reloads both lists and selects the new note.
// A failed reload is reported along with the created note.
func (w *Workspace) Create(ctx context.Context, title string) (*contract.NoteResponse, error) {
	note, err := w.source.CreateNote(ctx, title)
	if err != nil {
		return nil, err
	}

	reloadErr := w.Reload(ctx)

	w.mu.Lock()
	w.selected = note.ID
	w.mu.Unlock()
	return note, reloadErr
}

// Delete removes a note and reloads. The selection is cleared when it pointed at the deleted note.
func (w *Workspace) Delete(ctx context.Context, noteID int64) error {
	if err := w.source.DeleteNote(ctx, noteID); err != nil {
		return err
	}

	w.mu.Lock()
	if w.selected == noteID {
		w.selected = 0
	}
	w.mu.Unlock()

	return w.Reload(ctx)
}

func (w *Workspace) SetFilter(query string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filter = query
}

func (w *Workspace) Filter() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.filter
}

// Owned returns the user's notes matching the current filter.
func (w *Workspace) Owned() []*contract.NoteResponse {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return FilterNotes(w.owned, w.filter)
}

// Shared returns the notes shared with the user matching the current filter.
func (w *Workspace) Shared() []*contract.NoteResponse {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return FilterNotes(w.shared, w.filter)
}

// Select marks noteID as selected. It reports false when the note is in neither list.
func (w *Workspace) Select(noteID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.findLocked(noteID) == nil {
		return false
	}
	w.selected = noteID
	return true
}

func (w *Workspace) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected = 0
}

// Selected returns the selected note, or nil.
func (w *Workspace) Selected() *contract.NoteResponse {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.selected == 0 {
		return nil
	}
	return w.findLocked(w.selected)
}

func (w *Workspace) findLocked(noteID int64) *contract.NoteResponse {
	for _, list := range [][]*contract.NoteResponse{w.owned, w.shared} {
		for _, note := range list {
			if note.ID == noteID {
				return note
			}
		}
	}
	return nil
}

// FilterNotes keeps the notes whose title contains query, ignoring case.
// An empty query keeps everything. The input order is preserved.
func FilterNotes(notes []*contract.NoteResponse, query string) []*contract.NoteResponse {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]*contract.NoteResponse, 0, len(notes))
	for _, note := range notes {
		if query == "" || strings.Contains(strings.ToLower(note.Title), query) {
			out = append(out, note)
		}
	}
	return out
}
