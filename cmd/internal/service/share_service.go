package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/events"
	"sharenotes/cmd/internal/domain/policy"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
	"sharenotes/cmd/internal/utils/uid"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Profile, error)
	FindAllInIDs(ctx context.Context, ids []int64) ([]*entity.Profile, error)
	Save(ctx context.Context, profile *entity.Profile) error
}

// ShareService grants and revokes per-user access to notes.
type ShareService struct {
	NoteRepo     NoteRepository
	ShareRepo    ShareRepository
	UserRepo     UserRepository
	ProfileRepo  ProfileRepository
	Policy       *policy.SharePolicy
	Events       EventDispatcher
	Validate     *validator.Validate
	StoreTimeout time.Duration

	Now func() int64
}

func NewShareService(
	noteRepo NoteRepository,
	shareRepo ShareRepository,
	userRepo UserRepository,
	profileRepo ProfileRepository,
	sharePolicy *policy.SharePolicy,
	dispatcher EventDispatcher,
	validate *validator.Validate,
	storeTimeout time.Duration,
) *ShareService {
	return &ShareService{
		NoteRepo:     noteRepo,
		ShareRepo:    shareRepo,
		UserRepo:     userRepo,
		ProfileRepo:  profileRepo,
		Policy:       sharePolicy,
		Events:       dispatcher,
		Validate:     validate,
		StoreTimeout: storeTimeout,
		Now:          utils.NowUTC,
	}
}

// ShareWith grants the user behind req.Email access to the note.
// Sharing again with the same user updates can_edit of the existing grant.
func (s *ShareService) ShareWith(ctx context.Context, actor *entity.User, noteID int64, req *contract.ShareRequest) (*contract.ShareResponse, apierror.ErrorResponse) {
	if apierr := s.Policy.CheckShare(actor); apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	ctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	note, apierr := s.findManagedNote(ctx, actor, noteID)
	if apierr != nil {
		return nil, apierr
	}

	target, err := s.UserRepo.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to look up share target")
	}

	if target == nil {
		return nil, apierror.UserEmailNotFoundError
	}

	if note.IsOwnedBy(target) {
		return nil, apierror.SelfShareError
	}

	share, err := s.ShareRepo.FindByNoteAndTarget(ctx, note.ID, target.ID)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to fetch existing share of note %d", note.ID)
	}

	if share == nil {
		share = &entity.Share{
			ID:           uid.Generate(),
			NoteID:       note.ID,
			OwnerID:      note.OwnerID,
			SharedWithID: target.ID,
			CreatedAt:    s.Now(),
		}
	}
	share.CanEdit = req.CanEdit

	if err := s.ShareRepo.Save(ctx, share); err != nil {
		return nil, storeFailure(ctx, err, "user %d failed to share note %d", actor.ID, note.ID)
	}

	profile, err := s.ProfileRepo.FindByID(ctx, target.ID)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to fetch profile %d", target.ID)
	}

	resp := toShareResponse(share, target, profile)
	dispatchAsync(s.Events, s.StoreTimeout, []int64{target.ID}, &events.NoteShared{
		Share: resp,
		Note:  toNoteResponse(note),
	})
	return resp, nil
}

// RevokeShare deletes a grant. Only the owner of the shared note may revoke it.
func (s *ShareService) RevokeShare(ctx context.Context, actor *entity.User, shareID int64) apierror.ErrorResponse {
	if actor == nil {
		return apierror.UnauthorizedError
	}

	ctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	share, err := s.ShareRepo.FindByID(ctx, shareID)
	if err != nil {
		return storeFailure(ctx, err, "failed to fetch share %d", shareID)
	}

	if share == nil {
		return apierror.NotFoundError
	}

	note, err := s.NoteRepo.FindByID(ctx, share.NoteID)
	if err != nil {
		return storeFailure(ctx, err, "failed to fetch note %d", share.NoteID)
	}

	switch {
	case note == nil && share.OwnerID != actor.ID:
		// Orphaned grants are only visible to whoever created them.
		return apierror.NotFoundError
	case note != nil && !s.Policy.CanManage(actor, note):
		return apierror.NewForbiddenError("only the owner can revoke shares of this note")
	}

	if err := s.ShareRepo.Delete(ctx, share); err != nil {
		return storeFailure(ctx, err, "user %d failed to revoke share %d", actor.ID, shareID)
	}

	dispatchAsync(s.Events, s.StoreTimeout, []int64{share.SharedWithID}, &events.ShareRevoked{
		ShareID: share.ID,
		NoteID:  share.NoteID,
	})
	return nil
}

// ListShares returns every grant on the note with the target's presentation fields.
func (s *ShareService) ListShares(ctx context.Context, actor *entity.User, noteID int64) ([]*contract.ShareResponse, apierror.ErrorResponse) {
	if actor == nil {
		return nil, apierror.UnauthorizedError
	}

	ctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	note, apierr := s.findManagedNote(ctx, actor, noteID)
	if apierr != nil {
		return nil, apierr
	}

	shares, err := s.ShareRepo.FindByNote(ctx, note.ID)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to list shares of note %d", note.ID)
	}

	targetIDs := make([]int64, len(shares))
	for i, share := range shares {
		targetIDs[i] = share.SharedWithID
	}

	users, err := s.UserRepo.FindAllInIDs(ctx, targetIDs)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to resolve share targets of note %d", note.ID)
	}

	profiles, err := s.ProfileRepo.FindAllInIDs(ctx, targetIDs)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to resolve share profiles of note %d", note.ID)
	}

	usersByID := make(map[int64]*entity.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	profilesByID := make(map[int64]*entity.Profile, len(profiles))
	for _, profile := range profiles {
		profilesByID[profile.ID] = profile
	}

	resp := make([]*contract.ShareResponse, len(shares))
	for i, share := range shares {
		resp[i] = toShareResponse(share, usersByID[share.SharedWithID], profilesByID[share.SharedWithID])
	}
	return resp, nil
}

// findManagedNote loads the note and checks the actor owns it.
func (s *ShareService) findManagedNote(ctx context.Context, actor *entity.User, noteID int64) (*entity.Note, apierror.ErrorResponse) {
	note, err := s.NoteRepo.FindByID(ctx, noteID)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to fetch note %d", noteID)
	}

	grant, apierr := findGrant(ctx, s.ShareRepo, actor, note)
	if apierr != nil {
		return nil, apierr
	}

	if apierr := s.Policy.CheckManage(actor, note, grant); apierr != nil {
		return nil, apierr
	}
	return note, nil
}

func toShareResponse(share *entity.Share, target *entity.User, profile *entity.Profile) *contract.ShareResponse {
	resp := &contract.ShareResponse{
		ID:        share.ID,
		NoteID:    share.NoteID,
		OwnerID:   share.OwnerID,
		CanEdit:   share.CanEdit,
		CreatedAt: utils.FormatEpoch(share.CreatedAt),
		SharedWith: &contract.ShareTarget{
			ID: share.SharedWithID,
		},
	}

	if target != nil {
		resp.SharedWith.Email = target.Email
	}
	if profile != nil {
		resp.SharedWith.DisplayName = profile.DisplayName
	}
	return resp
}
