package service

import (
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/policy"
	"sharenotes/cmd/internal/utils/apierror"
)

// profileUpdater acts as a "Change Set" context.
// It accumulates errors and tracks if a save is actually needed.
type profileUpdater struct {
	actor   *entity.User
	target  *entity.User
	profile *entity.Profile
	policy  *policy.UserPolicy

	// State
	err   apierror.ErrorResponse
	dirty bool
}

// setString handles optional string fields (DisplayName, Bio).
// An empty value clears the field.
func (u *profileUpdater) setString(newVal *string, targetField **string) {
	if u.err != nil || newVal == nil {
		return
	}

	current := *targetField
	if current != nil && *current == *newVal {
		return
	}

	if current == nil && *newVal == "" {
		return
	}

	// Policy Check: Can we modify the profile?
	if err := u.policy.CanUpdateProfile(u.actor, u.target); err != nil {
		u.err = err
		return
	}

	if *newVal == "" {
		*targetField = nil
	} else {
		val := *newVal
		*targetField = &val
	}
	u.dirty = true
}
