package entity

// Permission is a custom type for bitwise flags.
//
// Permissions gate account-level capabilities (creating, sharing). Access to
// a specific note is decided by ownership and shares, never by these flags.
type Permission int64

const (
	// PermissionAdministrator grants every capability below.
	// Administrators cannot be modified via API.
	PermissionAdministrator Permission = 1 << iota

	// PermissionCreateNotes allows creating new notes.
	PermissionCreateNotes

	// PermissionShareNotes allows granting other users access to owned notes.
	PermissionShareNotes

	// PermissionManageUsers allows modifying the profile of other users.
	PermissionManageUsers
)

// DefaultPermissions is what every new account starts with.
const DefaultPermissions = PermissionCreateNotes | PermissionShareNotes

// Has checks if the permission bitmask contains ALL bits
// requested in 'target'. It ignores Administrator status.
func (p Permission) Has(target Permission) bool {
	return (p & target) == target
}

// Add appends a permission to the bitmask
func (p Permission) Add(perm Permission) Permission {
	return p | perm
}

// Remove clears a permission from the bitmask
func (p Permission) Remove(perm Permission) Permission {
	return p &^ perm
}

// HasEffective checks if the permission bitmask contains the target bits
// OR if the permission includes Administrator
func (p Permission) HasEffective(target Permission) bool {
	return p.Has(PermissionAdministrator) || p.Has(target)
}
