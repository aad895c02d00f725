package policy

import (
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/utils/apierror"
)

const (
	createNotes = entity.PermissionCreateNotes
	shareNotes  = entity.PermissionShareNotes
)

// SharePolicy decides who may see and mutate a note.
//
// Visibility has three tiers: private (owner only), shared with specific
// users through a Share, and public. The same rules back the read path and
// the write path.
//
// 'grant' is the actor's Share on the note, or nil when there is none. A grant
// that belongs to another user or another note is ignored.
type SharePolicy struct{}

func NewSharePolicy() *SharePolicy {
	return &SharePolicy{}
}

// CanView reports whether actor may read note. A nil actor is anonymous
// and only sees public notes.
func (p *SharePolicy) CanView(actor *entity.User, note *entity.Note, grant *entity.Share) bool {
	if note == nil {
		return false
	}
	return note.IsOwnedBy(actor) || note.IsPublic || grant.Grants(actor, note)
}

// CanEdit reports whether actor may change the title or content of note.
func (p *SharePolicy) CanEdit(actor *entity.User, note *entity.Note, grant *entity.Share) bool {
	if note == nil {
		return false
	}
	return note.IsOwnedBy(actor) || (grant.Grants(actor, note) && grant.CanEdit)
}

// CanManage reports whether actor may change visibility, manage shares or delete note.
func (p *SharePolicy) CanManage(actor *entity.User, note *entity.Note) bool {
	return note != nil && note.IsOwnedBy(actor)
}

// CheckView hides the existence of notes the actor cannot see.
func (p *SharePolicy) CheckView(actor *entity.User, note *entity.Note, grant *entity.Share) apierror.ErrorResponse {
	if !p.CanView(actor, note, grant) {
		return apierror.NotFoundError
	}
	return nil
}

func (p *SharePolicy) CheckEdit(actor *entity.User, note *entity.Note, grant *entity.Share) apierror.ErrorResponse {
	if apierr := p.CheckView(actor, note, grant); apierr != nil {
		return apierr
	}

	if !p.CanEdit(actor, note, grant) {
		return forbiddenError("you do not have edit access to this note")
	}
	return nil
}

// CheckManage is CheckView followed by the ownership check, so non-owners
// without any access still get a 404.
func (p *SharePolicy) CheckManage(actor *entity.User, note *entity.Note, grant *entity.Share) apierror.ErrorResponse {
	if apierr := p.CheckView(actor, note, grant); apierr != nil {
		return apierr
	}

	if !p.CanManage(actor, note) {
		return forbiddenError("only the owner can manage this note")
	}
	return nil
}

// CheckCreate checks the account-level capability to create notes.
func (p *SharePolicy) CheckCreate(actor *entity.User) apierror.ErrorResponse {
	if actor == nil {
		return apierror.UnauthorizedError
	}

	if !actor.Permissions.HasEffective(createNotes) {
		return permError(createNotes)
	}
	return nil
}

// CheckShare checks the account-level capability to grant access to others.
func (p *SharePolicy) CheckShare(actor *entity.User) apierror.ErrorResponse {
	if actor == nil {
		return apierror.UnauthorizedError
	}

	if !actor.Permissions.HasEffective(shareNotes) {
		return permError(shareNotes)
	}
	return nil
}
