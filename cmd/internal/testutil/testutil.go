// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/sqlite"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/uid"
)

// NewDB opens a fresh in-memory database with the full schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := sqlite.Init(sqlite.InMemory)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an active user with default permissions and a matching profile.
// The display name is the local part of the email.
func CreateUser(t *testing.T, db *gorm.DB, email string) *entity.User {
	t.Helper()

	now := utils.NowUTC()
	user := &entity.User{
		ID:            uid.Generate(),
		SubUUID:       "sub-" + email,
		Email:         email,
		EmailVerified: true,
		Permissions:   entity.DefaultPermissions,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)

	name := strings.SplitN(email, "@", 2)[0]
	profile := &entity.Profile{
		ID:          user.ID,
		DisplayName: &name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(profile).Error)
	return user
}

// CreateNote inserts a note owned by owner, stamped at updatedAt.
func CreateNote(t *testing.T, db *gorm.DB, owner *entity.User, title string, updatedAt int64) *entity.Note {
	t.Helper()

	note := &entity.Note{
		ID:        uid.Generate(),
		OwnerID:   owner.ID,
		Title:     title,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	require.NoError(t, db.Create(note).Error)
	return note
}

// CreateShare grants target access to note.
func CreateShare(t *testing.T, db *gorm.DB, note *entity.Note, target *entity.User, canEdit bool) *entity.Share {
	t.Helper()

	share := &entity.Share{
		ID:           uid.Generate(),
		NoteID:       note.ID,
		OwnerID:      note.OwnerID,
		SharedWithID: target.ID,
		CanEdit:      canEdit,
		CreatedAt:    utils.NowUTC(),
	}
	require.NoError(t, db.Create(share).Error)
	return share
}

// TokenSecret signs the tokens produced by BearerToken.
var TokenSecret = []byte("test-secret")

// BearerToken returns an Authorization header value for user, valid for an hour.
// Callers must have run utils.InitHMAC(TokenSecret).
func BearerToken(t *testing.T, user *entity.User) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.SubUUID,
		"email": user.Email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(TokenSecret)
	require.NoError(t, err)
	return "Bearer " + signed
}
