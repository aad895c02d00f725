package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"sharenotes/cmd/internal/domain/entity"
)

type DefaultProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *DefaultProfileRepository {
	return &DefaultProfileRepository{db: db}
}

func (p *DefaultProfileRepository) FindByID(ctx context.Context, id int64) (*entity.Profile, error) {
	var profile entity.Profile
	err := p.db.WithContext(ctx).First(&profile, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "finding profile %d", id)
	}
	return &profile, nil
}

func (p *DefaultProfileRepository) FindAllInIDs(ctx context.Context, ids []int64) ([]*entity.Profile, error) {
	if len(ids) == 0 {
		return []*entity.Profile{}, nil
	}

	var profiles []*entity.Profile
	err := p.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing profiles by id")
	}
	return profiles, nil
}

func (p *DefaultProfileRepository) Save(ctx context.Context, profile *entity.Profile) error {
	return errors.Wrapf(p.db.WithContext(ctx).Save(profile).Error, "saving profile %d", profile.ID)
}
