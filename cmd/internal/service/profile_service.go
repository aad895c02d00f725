package service

import (
	"context"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/events"
	"sharenotes/cmd/internal/domain/policy"
	"sharenotes/cmd/internal/infrastructure/aws/storage"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
)

const SelfAlias = "@me"

type ProfileService struct {
	ProfileRepo  ProfileRepository
	UserRepo     UserRepository
	S3           storage.S3Client
	UserPolicy   *policy.UserPolicy
	Events       EventDispatcher
	Validate     *validator.Validate
	StoreTimeout time.Duration

	Now func() int64
}

func NewProfileService(
	profileRepo ProfileRepository,
	userRepo UserRepository,
	s3 storage.S3Client,
	userPolicy *policy.UserPolicy,
	dispatcher EventDispatcher,
	validate *validator.Validate,
	storeTimeout time.Duration,
) *ProfileService {
	return &ProfileService{
		ProfileRepo:  profileRepo,
		UserRepo:     userRepo,
		S3:           s3,
		UserPolicy:   userPolicy,
		Events:       dispatcher,
		Validate:     validate,
		StoreTimeout: storeTimeout,
		Now:          utils.NowUTC,
	}
}

// GetProfile resolves rawID ("@me" or a user ID) into a profile.
func (p *ProfileService) GetProfile(ctx context.Context, actor *entity.User, rawID string) (*contract.ProfileResponse, apierror.ErrorResponse) {
	ctx, cancel := storeContext(ctx, p.StoreTimeout)
	defer cancel()

	target, apierr := p.resolveUser(ctx, actor, rawID)
	if apierr != nil {
		return nil, apierr
	}

	profile, apierr := p.findProfile(ctx, target.ID)
	if apierr != nil {
		return nil, apierr
	}
	return p.toProfileResponse(profile), nil
}

func (p *ProfileService) UpdateProfile(ctx context.Context, actor *entity.User, rawID string, req *contract.UpdateProfileRequest) (*contract.ProfileResponse, apierror.ErrorResponse) {
	if actor == nil {
		return nil, apierror.UnauthorizedError
	}

	utils.Sanitize(req)
	if valerr := p.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	ctx, cancel := storeContext(ctx, p.StoreTimeout)
	defer cancel()

	target, apierr := p.resolveUser(ctx, actor, rawID)
	if apierr != nil {
		return nil, apierr
	}

	profile, apierr := p.findProfile(ctx, target.ID)
	if apierr != nil {
		return nil, apierr
	}

	updater := &profileUpdater{
		actor:   actor,
		target:  target,
		profile: profile,
		policy:  p.UserPolicy,
	}

	updater.setString(req.DisplayName, &profile.DisplayName)
	updater.setString(req.Bio, &profile.Bio)

	if updater.err != nil {
		return nil, updater.err
	}

	resp := p.toProfileResponse(profile)
	if updater.dirty {
		profile.UpdatedAt = p.Now()
		if err := p.ProfileRepo.Save(ctx, profile); err != nil {
			return nil, storeFailure(ctx, err, "actor %d failed to update profile %d", actor.ID, target.ID)
		}

		resp = p.toProfileResponse(profile)
		dispatchAsync(p.Events, p.StoreTimeout, []int64{target.ID}, &events.ProfileUpdated{ProfileResponse: resp})
	}
	return resp, nil
}

// UploadAvatar replaces the actor's avatar with the uploaded image.
func (p *ProfileService) UploadAvatar(ctx context.Context, actor *entity.User, fileHeader *multipart.FileHeader) (*contract.ProfileResponse, apierror.ErrorResponse) {
	if actor == nil {
		return nil, apierror.UnauthorizedError
	}

	if p.S3 == nil {
		return nil, apierror.StorageDisabledError
	}

	ext, apierr := checkAvatarFile(fileHeader)
	if apierr != nil {
		return nil, apierr
	}

	data, apierr := readUploadedFile(fileHeader)
	if apierr != nil {
		return nil, apierr
	}

	ctx, cancel := storeContext(ctx, p.StoreTimeout)
	defer cancel()

	profile, apierr := p.findProfile(ctx, actor.ID)
	if apierr != nil {
		return nil, apierr
	}

	key, err := p.S3.UploadFile(ctx, data, storage.PathAvatars+uuid.NewString()+ext)
	if err != nil {
		log.Errorf("failed to upload avatar of user %d: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}

	oldKey := profile.AvatarKey
	profile.AvatarKey = &key
	profile.UpdatedAt = p.Now()
	if err := p.ProfileRepo.Save(ctx, profile); err != nil {
		// Do not leave the fresh object behind when the row still points at the old one.
		if derr := p.S3.DeleteFile(context.Background(), key); derr != nil {
			log.Warnf("failed to clean up avatar %s: %v", key, derr)
		}
		return nil, storeFailure(ctx, err, "failed to save avatar of user %d", actor.ID)
	}

	if oldKey != nil {
		go p.deleteAvatar(*oldKey)
	}

	resp := p.toProfileResponse(profile)
	dispatchAsync(p.Events, p.StoreTimeout, []int64{actor.ID}, &events.ProfileUpdated{ProfileResponse: resp})
	return resp, nil
}

func (p *ProfileService) deleteAvatar(key string) {
	ctx, cancel := storeContext(context.Background(), p.StoreTimeout)
	defer cancel()

	if err := p.S3.DeleteFile(ctx, key); err != nil {
		log.Warnf("failed to delete previous avatar %s: %v", key, err)
	}
}

// resolveUser turns "@me" or an ID into an active user.
func (p *ProfileService) resolveUser(ctx context.Context, actor *entity.User, rawID string) (*entity.User, apierror.ErrorResponse) {
	if rawID == SelfAlias {
		if actor == nil {
			return nil, apierror.UnauthorizedError
		}
		return actor, nil
	}

	id, apierr := utils.ParseID(rawID)
	if apierr != nil {
		return nil, apierr
	}

	user, err := p.UserRepo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to find user %d", id)
	}

	if user == nil {
		return nil, apierror.NotFoundError
	}
	return user, nil
}

func (p *ProfileService) findProfile(ctx context.Context, id int64) (*entity.Profile, apierror.ErrorResponse) {
	profile, err := p.ProfileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to find profile %d", id)
	}

	if profile == nil {
		return nil, apierror.NotFoundError
	}
	return profile, nil
}

func (p *ProfileService) toProfileResponse(profile *entity.Profile) *contract.ProfileResponse {
	resp := &contract.ProfileResponse{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		CreatedAt:   utils.FormatEpoch(profile.CreatedAt),
		UpdatedAt:   utils.FormatEpoch(profile.UpdatedAt),
	}

	if profile.AvatarKey != nil && p.S3 != nil {
		url := p.S3.URL(*profile.AvatarKey)
		resp.AvatarURL = &url
	}
	return resp
}

func checkAvatarFile(fileHeader *multipart.FileHeader) (string, apierror.ErrorResponse) {
	if fileHeader == nil {
		return "", apierror.MissingFileError
	}

	if fileHeader.Size > contract.MaxAvatarSizeBytes {
		return "", apierror.NewFileTooLargeError(contract.MaxAvatarSizeBytes)
	}

	if strings.TrimSpace(fileHeader.Filename) == "" {
		return "", apierror.MissingFileNameError
	}

	ext, ok := utils.CheckFileExt(fileHeader.Filename, contract.ValidAvatarFileTypes)
	if !ok {
		return "", apierror.NewInvalidFileExtError(ext)
	}
	return ext, nil
}

func readUploadedFile(fileHeader *multipart.FileHeader) ([]byte, apierror.ErrorResponse) {
	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("failed to open file: %v", err)
		return nil, apierror.InternalServerError
	}
	defer file.Close()

	// The header size comes from the client, the read limit does not.
	bytes, err := io.ReadAll(io.LimitReader(file, contract.MaxAvatarSizeBytes+1))
	if err != nil {
		log.Errorf("failed to read file: %v", err)
		return nil, apierror.InternalServerError
	}

	if len(bytes) > contract.MaxAvatarSizeBytes {
		return nil, apierror.NewFileTooLargeError(contract.MaxAvatarSizeBytes)
	}
	return bytes, nil
}
