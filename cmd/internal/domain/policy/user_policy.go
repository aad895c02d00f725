package policy

import (
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/utils/apierror"
)

const (
	admin    = entity.PermissionAdministrator
	mngUsers = entity.PermissionManageUsers
)

// UserPolicy encapsulates all business rules for user manipulation.
// It returns apierror.ErrorResponse directly for seamless integration with handlers.
type UserPolicy struct{}

func NewUserPolicy() *UserPolicy {
	return &UserPolicy{}
}

// CanUpdateProfile checks if 'actor' can update mutable fields of 'target'
func (p *UserPolicy) CanUpdateProfile(actor, target *entity.User) apierror.ErrorResponse {
	if actor == nil {
		return apierror.UnauthorizedError
	}

	if actor.ID == target.ID {
		return nil
	}

	if target.Permissions.Has(admin) {
		return forbiddenError("administrators cannot be modified")
	}

	if !actor.Permissions.HasEffective(mngUsers) {
		return permError(mngUsers)
	}
	return nil
}

func permError(perm entity.Permission) *apierror.APIError {
	return apierror.NewPermissionError(int64(perm))
}

func forbiddenError(msg string) *apierror.APIError {
	return apierror.NewForbiddenError(msg)
}
