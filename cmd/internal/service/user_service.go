package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	cognitoclient "sharenotes/cmd/internal/infrastructure/aws/cognito"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
	"sharenotes/cmd/internal/utils/uid"
)

type UserRepository interface {
	FindActiveBySub(ctx context.Context, sub string) (*entity.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*entity.User, error)
	FindActiveByID(ctx context.Context, id int64) (*entity.User, error)
	FindAllInIDs(ctx context.Context, ids []int64) ([]*entity.User, error)
	ExistsActiveByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *entity.User) error
}

type UserService struct {
	UserRepo     UserRepository
	ProfileRepo  ProfileRepository
	Validate     *validator.Validate
	Cognito      cognitoclient.CognitoInterface
	StoreTimeout time.Duration
}

func NewUserService(
	userRepo UserRepository,
	profileRepo ProfileRepository,
	validate *validator.Validate,
	cogClient cognitoclient.CognitoInterface,
	storeTimeout time.Duration,
) *UserService {
	return &UserService{
		UserRepo:     userRepo,
		ProfileRepo:  profileRepo,
		Validate:     validate,
		Cognito:      cogClient,
		StoreTimeout: storeTimeout,
	}
}

// GetCurrentUser describes the authenticated account.
func (u *UserService) GetCurrentUser(actor *entity.User) (*contract.UserResponse, apierror.ErrorResponse) {
	if actor == nil {
		return nil, apierror.UnauthorizedError
	}
	return toUserResponse(actor), nil
}

func (u *UserService) CheckEmail(ctx context.Context, req *contract.UserStatusRequest) (*contract.UserStatusResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	ctx, cancel := storeContext(ctx, u.StoreTimeout)
	defer cancel()

	user, err := u.UserRepo.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to check if user (%s) exists", req.Email)
	}

	var status contract.EmailStatus
	switch {
	case user == nil:
		status = contract.EmailStatusAvailable
	case !user.EmailVerified:
		status = contract.EmailStatusVerifying
	default:
		status = contract.EmailStatusExists
	}
	return &contract.UserStatusResponse{Status: status}, nil
}

// CreateUser creates a new user on Cognito (as well as in our database),
// and sends a verification code to the user's email address.
func (u *UserService) CreateUser(ctx context.Context, req *contract.CreateUserRequest) apierror.ErrorResponse {
	if u.Cognito == nil {
		return apierror.IDPDisabledError
	}

	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	storeCtx, cancel := storeContext(ctx, u.StoreTimeout)
	defer cancel()

	found, err := u.UserRepo.ExistsActiveByEmail(storeCtx, req.Email)
	if err != nil {
		return storeFailure(storeCtx, err, "failed to check if user already exists")
	}

	if found {
		return apierror.UserAlreadyExistsError
	}

	cogUser := &cognitoclient.User{Email: req.Email, Password: req.Password}
	sub, apierr, revert := handleUserSignup(ctx, u.Cognito, cogUser)
	if apierr != nil {
		return apierr
	}

	// This is our user, in our database <3
	now := utils.NowUTC()
	user := &entity.User{
		ID:            uid.Generate(),
		SubUUID:       sub,
		Email:         req.Email,
		EmailVerified: false,
		Permissions:   entity.DefaultPermissions,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	username := req.Username
	profile := &entity.Profile{
		ID:          user.ID,
		DisplayName: &username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.UserRepo.Save(storeCtx, user); err != nil {
		revert()
		return storeFailure(storeCtx, err, "failed to create user")
	}

	if err := u.ProfileRepo.Save(storeCtx, profile); err != nil {
		// The account is usable without a profile row, GetProfile just reports it missing.
		log.Errorf("failed to create profile of user %d: %v", user.ID, err)
	}
	return nil
}

func (u *UserService) Login(ctx context.Context, req *contract.UserLoginRequest) (*contract.UserLoginResponse, apierror.ErrorResponse) {
	if u.Cognito == nil {
		return nil, apierror.IDPDisabledError
	}

	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	storeCtx, cancel := storeContext(ctx, u.StoreTimeout)
	defer cancel()

	user, err := u.UserRepo.FindActiveByEmail(storeCtx, req.Email)
	if err != nil {
		return nil, storeFailure(storeCtx, err, "failed to fetch user from database")
	}

	if user == nil {
		return nil, apierror.IDPUserNotFoundError
	}

	if user.Suspended {
		return nil, apierror.MissingAccessError
	}

	credentials := &cognitoclient.UserLogin{
		Email:    req.Email,
		Password: req.Password,
	}

	auth, err := u.Cognito.SignIn(ctx, credentials)
	if err != nil {
		return nil, utils.MapCognitoError(err)
	}
	return &contract.UserLoginResponse{AccessToken: auth.AccessToken, IDToken: auth.IDToken}, nil
}

func (u *UserService) ConfirmSignup(ctx context.Context, req *contract.ConfirmSignupRequest) apierror.ErrorResponse {
	if u.Cognito == nil {
		return apierror.IDPDisabledError
	}

	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	user, apierr := u.findUnconfirmed(ctx, req.Email)
	if apierr != nil {
		return apierr
	}

	confirms := &cognitoclient.UserConfirmation{
		Email: req.Email,
		Code:  req.Code,
	}

	if err := u.Cognito.ConfirmAccount(ctx, confirms); err != nil {
		return utils.MapCognitoError(err)
	}

	storeCtx, cancel := storeContext(ctx, u.StoreTimeout)
	defer cancel()

	user.EmailVerified = true
	user.UpdatedAt = utils.NowUTC()
	if err := u.UserRepo.Save(storeCtx, user); err != nil {
		log.Errorf("failed to update user (%d) verified status: %v", user.ID, err)
	}
	return nil
}

// ResendConfirmation sends a new verification code. The account stays unverified.
func (u *UserService) ResendConfirmation(ctx context.Context, req *contract.ResendConfirmRequest) apierror.ErrorResponse {
	if u.Cognito == nil {
		return apierror.IDPDisabledError
	}

	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	if _, apierr := u.findUnconfirmed(ctx, req.Email); apierr != nil {
		return apierr
	}

	if err := u.Cognito.ResendConfirmation(ctx, req.Email); err != nil {
		return utils.MapCognitoError(err)
	}
	return nil
}

func (u *UserService) findUnconfirmed(ctx context.Context, email string) (*entity.User, apierror.ErrorResponse) {
	ctx, cancel := storeContext(ctx, u.StoreTimeout)
	defer cancel()

	user, err := u.UserRepo.FindActiveByEmail(ctx, email)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to find user (%s) by email", email)
	}

	if user == nil {
		return nil, apierror.IDPUserNotFoundError
	}

	if user.EmailVerified {
		return nil, apierror.UserAlreadyConfirmedError
	}
	return user, nil
}

func handleUserSignup(ctx context.Context, cogClient cognitoclient.CognitoInterface, req *cognitoclient.User) (string, apierror.ErrorResponse, func()) {
	revert := func() {
		if err := cogClient.AdminDeleteUser(context.Background(), req.Email); err != nil {
			log.Errorf("failed to roll back cognito user %s: %v", req.Email, err)
		}
	}

	sub, err := cogClient.SignUp(ctx, req)
	if err != nil {
		return "", utils.MapCognitoError(err), revert
	}
	return sub, nil, revert
}

func toUserResponse(user *entity.User) *contract.UserResponse {
	return &contract.UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Perms:      int64(user.Permissions),
		IsVerified: user.EmailVerified,
		CreatedAt:  utils.FormatEpoch(user.CreatedAt),
	}
}
