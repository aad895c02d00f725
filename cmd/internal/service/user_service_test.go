package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/sqlite/repository"
	"sharenotes/cmd/internal/testutil"
	"sharenotes/cmd/internal/utils/apierror"
)

func signupRequest(email string) *contract.CreateUserRequest {
	return &contract.CreateUserRequest{
		Username: "Dana",
		Email:    email,
		Password: "Str0ng!Pass",
	}
}

func TestUserService_CreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.Nil(t, f.users.CreateUser(ctx, signupRequest("dana@example.com")))
	assert.Equal(t, []string{"dana@example.com"}, f.cognito.signedUp)

	user, err := repository.NewUserRepository(f.db).FindActiveByEmail(ctx, "dana@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "sub-dana@example.com", user.SubUUID)
	assert.Equal(t, entity.DefaultPermissions, user.Permissions)
	assert.False(t, user.EmailVerified)

	profile, apierr := f.profiles.GetProfile(ctx, user, SelfAlias)
	require.Nil(t, apierr)
	assert.Equal(t, "Dana", *profile.DisplayName)

	status, apierr := f.users.CheckEmail(ctx, &contract.UserStatusRequest{Email: "dana@example.com"})
	require.Nil(t, apierr)
	assert.Equal(t, contract.EmailStatusVerifying, status.Status)

	apierr = f.users.CreateUser(ctx, signupRequest("dana@example.com"))
	assert.Equal(t, apierror.UserAlreadyExistsError, apierr)
}

func TestUserService_CreateUserValidation(t *testing.T) {
	f := newFixture(t)

	req := signupRequest("dana@example.com")
	req.Password = "weakpassword"

	apierr := f.users.CreateUser(context.Background(), req)
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusBadRequest, apierr.Code())
	assert.Empty(t, f.cognito.signedUp)
}

func TestUserService_CreateUserMapsProviderErrors(t *testing.T) {
	f := newFixture(t)
	f.cognito.signUpErr = &types.UsernameExistsException{}

	apierr := f.users.CreateUser(context.Background(), signupRequest("dana@example.com"))
	assert.Equal(t, apierror.IDPExistingEmailError, apierr)
}

func TestUserService_ConfirmAndResend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.Nil(t, f.users.CreateUser(ctx, signupRequest("dana@example.com")))

	require.Nil(t, f.users.ResendConfirmation(ctx, &contract.ResendConfirmRequest{Email: "dana@example.com"}))
	assert.Equal(t, []string{"dana@example.com"}, f.cognito.resent)

	status, apierr := f.users.CheckEmail(ctx, &contract.UserStatusRequest{Email: "dana@example.com"})
	require.Nil(t, apierr)
	assert.Equal(t, contract.EmailStatusVerifying, status.Status)

	f.cognito.confirmErr = &types.CodeMismatchException{}
	apierr = f.users.ConfirmSignup(ctx, &contract.ConfirmSignupRequest{Email: "dana@example.com", Code: "000000"})
	assert.Equal(t, apierror.IDPConfirmCodeMismatchError, apierr)

	f.cognito.confirmErr = nil
	require.Nil(t, f.users.ConfirmSignup(ctx, &contract.ConfirmSignupRequest{Email: "dana@example.com", Code: "123456"}))

	status, apierr = f.users.CheckEmail(ctx, &contract.UserStatusRequest{Email: "dana@example.com"})
	require.Nil(t, apierr)
	assert.Equal(t, contract.EmailStatusExists, status.Status)

	apierr = f.users.ResendConfirmation(ctx, &contract.ResendConfirmRequest{Email: "dana@example.com"})
	assert.Equal(t, apierror.UserAlreadyConfirmedError, apierr)
}

func TestUserService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "erin@example.com")

	resp, apierr := f.users.Login(ctx, &contract.UserLoginRequest{Email: "erin@example.com", Password: "whatever1"})
	require.Nil(t, apierr)
	assert.Equal(t, "access-erin@example.com", resp.AccessToken)

	_, apierr = f.users.Login(ctx, &contract.UserLoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	assert.Equal(t, apierror.IDPUserNotFoundError, apierr)

	user.Suspended = true
	require.NoError(t, repository.NewUserRepository(f.db).Save(ctx, user))

	_, apierr = f.users.Login(ctx, &contract.UserLoginRequest{Email: "erin@example.com", Password: "whatever1"})
	assert.Equal(t, apierror.MissingAccessError, apierr)
}

func TestUserService_GetCurrentUser(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "erin@example.com")

	resp, apierr := f.users.GetCurrentUser(user)
	require.Nil(t, apierr)
	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, int64(entity.DefaultPermissions), resp.Perms)
	assert.True(t, resp.IsVerified)

	_, apierr = f.users.GetCurrentUser(nil)
	assert.Equal(t, apierror.UnauthorizedError, apierr)
}
