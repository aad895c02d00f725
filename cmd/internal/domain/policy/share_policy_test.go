package policy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/utils/apierror"
)

var (
	owner    = &entity.User{ID: 1, Permissions: entity.DefaultPermissions}
	reader   = &entity.User{ID: 2, Permissions: entity.DefaultPermissions}
	stranger = &entity.User{ID: 3, Permissions: entity.DefaultPermissions}
)

func privateNote() *entity.Note {
	return &entity.Note{ID: 10, OwnerID: owner.ID}
}

func TestCanView_OwnerAlways(t *testing.T) {
	p := NewSharePolicy()

	for _, public := range []bool{false, true} {
		note := privateNote()
		note.IsPublic = public
		assert.True(t, p.CanView(owner, note, nil))
		assert.True(t, p.CanEdit(owner, note, nil))
		assert.True(t, p.CanManage(owner, note))
	}
}

func TestCanView_PrivateWithoutShare(t *testing.T) {
	p := NewSharePolicy()
	note := privateNote()

	assert.False(t, p.CanView(stranger, note, nil))
	assert.False(t, p.CanView(nil, note, nil))
}

func TestCanView_Public(t *testing.T) {
	p := NewSharePolicy()
	note := privateNote()
	note.IsPublic = true

	assert.True(t, p.CanView(stranger, note, nil))
	assert.True(t, p.CanView(nil, note, nil))
	assert.False(t, p.CanEdit(stranger, note, nil))
	assert.False(t, p.CanManage(stranger, note))
}

func TestShareGrants(t *testing.T) {
	p := NewSharePolicy()
	note := privateNote()

	viewOnly := &entity.Share{NoteID: note.ID, OwnerID: owner.ID, SharedWithID: reader.ID, CanEdit: false}
	assert.True(t, p.CanView(reader, note, viewOnly))
	assert.False(t, p.CanEdit(reader, note, viewOnly))

	editable := &entity.Share{NoteID: note.ID, OwnerID: owner.ID, SharedWithID: reader.ID, CanEdit: true}
	assert.True(t, p.CanView(reader, note, editable))
	assert.True(t, p.CanEdit(reader, note, editable))
	assert.False(t, p.CanManage(reader, note))
}

func TestForeignGrantIgnored(t *testing.T) {
	p := NewSharePolicy()
	note := privateNote()

	// The reader's grant presented on behalf of someone else.
	grant := &entity.Share{NoteID: note.ID, SharedWithID: reader.ID, CanEdit: true}
	assert.False(t, p.CanView(stranger, note, grant))
	assert.False(t, p.CanEdit(stranger, note, grant))

	// A grant on another note.
	other := &entity.Share{NoteID: 99, SharedWithID: reader.ID, CanEdit: true}
	assert.False(t, p.CanView(reader, note, other))
}

func TestCheckErrors(t *testing.T) {
	p := NewSharePolicy()
	note := privateNote()
	viewOnly := &entity.Share{NoteID: note.ID, SharedWithID: reader.ID}

	assert.Nil(t, p.CheckView(owner, note, nil))
	assert.Equal(t, http.StatusNotFound, p.CheckView(stranger, note, nil).Code())
	assert.Equal(t, http.StatusNotFound, p.CheckView(owner, nil, nil).Code())

	assert.Equal(t, http.StatusForbidden, p.CheckEdit(reader, note, viewOnly).Code())
	assert.Equal(t, http.StatusNotFound, p.CheckEdit(stranger, note, nil).Code())

	assert.Equal(t, http.StatusForbidden, p.CheckManage(reader, note, viewOnly).Code())
	assert.Equal(t, http.StatusNotFound, p.CheckManage(stranger, note, nil).Code())
	assert.Nil(t, p.CheckManage(owner, note, nil))
}

func TestAccountChecks(t *testing.T) {
	p := NewSharePolicy()

	assert.Same(t, apierror.UnauthorizedError, p.CheckCreate(nil))
	assert.Nil(t, p.CheckCreate(owner))
	assert.Nil(t, p.CheckShare(owner))

	muted := &entity.User{ID: 4, Permissions: entity.PermissionCreateNotes}
	assert.Equal(t, http.StatusForbidden, p.CheckShare(muted).Code())

	readOnly := &entity.User{ID: 5}
	assert.Equal(t, http.StatusForbidden, p.CheckCreate(readOnly).Code())

	admin := &entity.User{ID: 6, Permissions: entity.PermissionAdministrator}
	assert.Nil(t, p.CheckShare(admin))
}
