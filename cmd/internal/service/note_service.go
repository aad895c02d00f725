package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/events"
	"sharenotes/cmd/internal/domain/policy"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
	"sharenotes/cmd/internal/utils/uid"
)

type NoteRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Note, error)
	FindByOwner(ctx context.Context, ownerID int64) ([]*entity.Note, error)
	FindSharedWith(ctx context.Context, userID int64) ([]*entity.Note, error)
	Save(ctx context.Context, note *entity.Note) error
	DeleteWithShares(ctx context.Context, note *entity.Note) error
}

type ShareRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Share, error)
	FindByNoteAndTarget(ctx context.Context, noteID, userID int64) (*entity.Share, error)
	FindByNote(ctx context.Context, noteID int64) ([]*entity.Share, error)
	FindRecipientIDs(ctx context.Context, noteID int64) ([]int64, error)
	Save(ctx context.Context, share *entity.Share) error
	Delete(ctx context.Context, share *entity.Share) error
}

// NoteService is the access layer for notes. Every call receives the acting
// user explicitly; a nil actor is an anonymous caller.
type NoteService struct {
	NoteRepo     NoteRepository
	ShareRepo    ShareRepository
	Policy       *policy.SharePolicy
	Events       EventDispatcher
	Validate     *validator.Validate
	StoreTimeout time.Duration

	// Now returns the current epoch millis, replaced in tests.
	Now func() int64
}

func NewNoteService(
	noteRepo NoteRepository,
	shareRepo ShareRepository,
	sharePolicy *policy.SharePolicy,
	dispatcher EventDispatcher,
	validate *validator.Validate,
	storeTimeout time.Duration,
) *NoteService {
	return &NoteService{
		NoteRepo:     noteRepo,
		ShareRepo:    shareRepo,
		Policy:       sharePolicy,
		Events:       dispatcher,
		Validate:     validate,
		StoreTimeout: storeTimeout,
		Now:          utils.NowUTC,
	}
}

// ListOwnedNotes returns the actor's notes, most recently updated first.
func (n *NoteService) ListOwnedNotes(ctx context.Context, actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	if actor == nil {
		return nil, apierror.UnauthorizedError
	}

	ctx, cancel := storeContext(ctx, n.StoreTimeout)
	defer cancel()

	notes, err := n.NoteRepo.FindByOwner(ctx, actor.ID)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to list notes of user %d", actor.ID)
	}
	return toNoteResponses(notes), nil
}

// ListSharedNotes returns the notes other users shared with the actor, most recently updated first.
func (n *NoteService) ListSharedNotes(ctx context.Context, actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	if actor == nil {
		return nil, apierror.UnauthorizedError
	}

	ctx, cancel := storeContext(ctx, n.StoreTimeout)
	defer cancel()

	notes, err := n.NoteRepo.FindSharedWith(ctx, actor.ID)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to list notes shared with user %d", actor.ID)
	}
	return toNoteResponses(notes), nil
}

// GetNote returns a single note. Notes the actor cannot see are reported as missing.
func (n *NoteService) GetNote(ctx context.Context, actor *entity.User, noteID int64) (*contract.NoteResponse, apierror.ErrorResponse) {
	ctx, cancel := storeContext(ctx, n.StoreTimeout)
	defer cancel()

	note, grant, apierr := n.loadNote(ctx, actor, noteID)
	if apierr != nil {
		return nil, apierr
	}

	if apierr := n.Policy.CheckView(actor, note, grant); apierr != nil {
		return nil, apierr
	}
	return toNoteResponse(note), nil
}

func (n *NoteService) CreateNote(ctx context.Context, actor *entity.User, req *contract.CreateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	if apierr := n.Policy.CheckCreate(actor); apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	title := req.Title
	if title == "" {
		title = entity.DefaultNoteTitle
	}

	now := n.Now()
	note := &entity.Note{
		ID:        uid.Generate(),
		OwnerID:   actor.ID,
		Title:     title,
		Content:   req.Content,
		IsPublic:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := storeContext(ctx, n.StoreTimeout)
	defer cancel()

	if err := n.NoteRepo.Save(ctx, note); err != nil {
		return nil, storeFailure(ctx, err, "failed to create note for user %d", actor.ID)
	}

	resp := toNoteResponse(note)
	dispatchAsync(n.Events, n.StoreTimeout, []int64{actor.ID}, &events.NoteCreated{NoteResponse: resp})
	return resp, nil
}

// UpdateNote applies the non-nil fields of req and always refreshes updated_at.
//
// Title and content need edit access (owner or an editable share),
// visibility can only be changed by the owner.
func (n *NoteService) UpdateNote(ctx context.Context, actor *entity.User, noteID int64, req *contract.UpdateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	if actor == nil {
		return nil, apierror.UnauthorizedError
	}

	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	ctx, cancel := storeContext(ctx, n.StoreTimeout)
	defer cancel()

	note, grant, apierr := n.loadNote(ctx, actor, noteID)
	if apierr != nil {
		return nil, apierr
	}

	if apierr := n.Policy.CheckEdit(actor, note, grant); apierr != nil {
		return nil, apierr
	}

	if req.IsPublic != nil {
		if apierr := n.Policy.CheckManage(actor, note, grant); apierr != nil {
			return nil, apierr
		}
	}

	if req.Title != nil {
		note.Title = *req.Title
		if note.Title == "" {
			note.Title = entity.DefaultNoteTitle
		}
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.IsPublic != nil {
		note.IsPublic = *req.IsPublic
	}

	note.UpdatedAt = n.Now()
	if err := n.NoteRepo.Save(ctx, note); err != nil {
		return nil, storeFailure(ctx, err, "user %d failed to update note %d", actor.ID, noteID)
	}

	resp := toNoteResponse(note)
	dispatchAsync(n.Events, n.StoreTimeout, n.audience(ctx, note), &events.NoteUpdated{NoteResponse: resp})
	return resp, nil
}

// ToggleVisibility sets is_public. Asking for the current value is a no-op
// that returns the note untouched.
func (n *NoteService) ToggleVisibility(ctx context.Context, actor *entity.User, noteID int64, isPublic bool) (*contract.NoteResponse, apierror.ErrorResponse) {
	if actor == nil {
		return nil, apierror.UnauthorizedError
	}

	storeCtx, cancel := storeContext(ctx, n.StoreTimeout)
	note, grant, apierr := n.loadNote(storeCtx, actor, noteID)
	cancel()
	if apierr != nil {
		return nil, apierr
	}

	if apierr := n.Policy.CheckManage(actor, note, grant); apierr != nil {
		return nil, apierr
	}

	if note.IsPublic == isPublic {
		return toNoteResponse(note), nil
	}
	return n.UpdateNote(ctx, actor, noteID, &contract.UpdateNoteRequest{IsPublic: &isPublic})
}

// DeleteNote removes the note together with all of its shares. Only the owner may delete.
func (n *NoteService) DeleteNote(ctx context.Context, actor *entity.User, noteID int64) apierror.ErrorResponse {
	if actor == nil {
		return apierror.UnauthorizedError
	}

	ctx, cancel := storeContext(ctx, n.StoreTimeout)
	defer cancel()

	note, grant, apierr := n.loadNote(ctx, actor, noteID)
	if apierr != nil {
		return apierr
	}

	if apierr := n.Policy.CheckManage(actor, note, grant); apierr != nil {
		return apierr
	}

	// Recipients must be collected before their shares are gone.
	audience := n.audience(ctx, note)
	if err := n.NoteRepo.DeleteWithShares(ctx, note); err != nil {
		return storeFailure(ctx, err, "user %d failed to delete note %d", actor.ID, noteID)
	}

	dispatchAsync(n.Events, n.StoreTimeout, audience, &events.NoteDeleted{NoteID: note.ID})
	return nil
}

// loadNote fetches the note and, for non-owners, the actor's grant on it.
// A missing note is returned as nil without an error, the policy turns it into a 404.
func (n *NoteService) loadNote(ctx context.Context, actor *entity.User, noteID int64) (*entity.Note, *entity.Share, apierror.ErrorResponse) {
	note, err := n.NoteRepo.FindByID(ctx, noteID)
	if err != nil {
		return nil, nil, storeFailure(ctx, err, "failed to fetch note %d", noteID)
	}

	grant, apierr := findGrant(ctx, n.ShareRepo, actor, note)
	if apierr != nil {
		return nil, nil, apierr
	}
	return note, grant, nil
}

// audience returns the owner and every recipient of note.
// Failing to resolve recipients only narrows the notification.
func (n *NoteService) audience(ctx context.Context, note *entity.Note) []int64 {
	recipients, err := n.ShareRepo.FindRecipientIDs(ctx, note.ID)
	if err != nil {
		log.Warnf("failed to resolve recipients of note %d: %v", note.ID, err)
	}
	return append([]int64{note.OwnerID}, recipients...)
}

func findGrant(ctx context.Context, repo ShareRepository, actor *entity.User, note *entity.Note) (*entity.Share, apierror.ErrorResponse) {
	if actor == nil || note == nil || note.IsOwnedBy(actor) {
		return nil, nil
	}

	grant, err := repo.FindByNoteAndTarget(ctx, note.ID, actor.ID)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to fetch grant of user %d on note %d", actor.ID, note.ID)
	}
	return grant, nil
}

func toNoteResponse(note *entity.Note) *contract.NoteResponse {
	return &contract.NoteResponse{
		ID:        note.ID,
		OwnerID:   note.OwnerID,
		Title:     note.Title,
		Content:   note.Content,
		IsPublic:  note.IsPublic,
		CreatedAt: utils.FormatEpoch(note.CreatedAt),
		UpdatedAt: utils.FormatEpoch(note.UpdatedAt),
	}
}

func toNoteResponses(notes []*entity.Note) []*contract.NoteResponse {
	resp := make([]*contract.NoteResponse, len(notes))
	for i, note := range notes {
		resp[i] = toNoteResponse(note)
	}
	return resp
}
