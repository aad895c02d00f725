package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"sharenotes/cmd/internal/domain/entity"
)

type DefaultUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{db: db}
}

func (u *DefaultUserRepository) FindAllInIDs(ctx context.Context, ids []int64) ([]*entity.User, error) {
	if len(ids) == 0 {
		return []*entity.User{}, nil
	}

	var users []*entity.User
	err := u.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing users by id")
	}
	return users, nil
}

func (u *DefaultUserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return u.first(ctx, u.db.Where("id = ?", id))
}

func (u *DefaultUserRepository) FindActiveByID(ctx context.Context, id int64) (*entity.User, error) {
	return u.first(ctx, u.db.Where("id = ? AND active = ?", id, true))
}

func (u *DefaultUserRepository) FindActiveBySub(ctx context.Context, sub string) (*entity.User, error) {
	return u.first(ctx, u.db.Where("sub_uuid = ? AND active = ?", sub, true))
}

// FindActiveByEmail matches emails case-insensitively.
func (u *DefaultUserRepository) FindActiveByEmail(ctx context.Context, email string) (*entity.User, error) {
	return u.first(ctx, u.db.Where("LOWER(email) = ? AND active = ?", strings.ToLower(email), true))
}

func (u *DefaultUserRepository) ExistsActiveByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	err := u.db.WithContext(ctx).
		Raw("SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = ? AND active = ?)", strings.ToLower(email), true).
		Scan(&exists).Error
	if err != nil {
		return false, errors.Wrap(err, "checking email")
	}
	return exists == 1, nil
}

func (u *DefaultUserRepository) Save(ctx context.Context, user *entity.User) error {
	return errors.Wrapf(u.db.WithContext(ctx).Save(user).Error, "saving user %d", user.ID)
}

func (u *DefaultUserRepository) first(ctx context.Context, query *gorm.DB) (*entity.User, error) {
	var user entity.User
	err := query.WithContext(ctx).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "finding user")
	}
	return &user, nil
}
