package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"sharenotes/cmd/internal/domain/entity"
)

type DefaultShareRepository struct {
	db *gorm.DB
}

func NewShareRepository(db *gorm.DB) *DefaultShareRepository {
	return &DefaultShareRepository{db: db}
}

func (s *DefaultShareRepository) FindByID(ctx context.Context, id int64) (*entity.Share, error) {
	var share entity.Share
	err := s.db.WithContext(ctx).First(&share, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "finding share %d", id)
	}
	return &share, nil
}

// FindByNoteAndTarget returns the grant of userID on noteID, if any.
func (s *DefaultShareRepository) FindByNoteAndTarget(ctx context.Context, noteID, userID int64) (*entity.Share, error) {
	var share entity.Share
	err := s.db.WithContext(ctx).
		Where("note_id = ? AND shared_with_id = ?", noteID, userID).
		First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "finding share of note %d with user %d", noteID, userID)
	}
	return &share, nil
}

func (s *DefaultShareRepository) FindByNote(ctx context.Context, noteID int64) ([]*entity.Share, error) {
	shares := []*entity.Share{}
	err := s.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("created_at ASC, id ASC").
		Find(&shares).Error
	if err != nil {
		return nil, errors.Wrapf(err, "listing shares of note %d", noteID)
	}
	return shares, nil
}

// FindRecipientIDs returns the ids of every user the note is shared with.
func (s *DefaultShareRepository) FindRecipientIDs(ctx context.Context, noteID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&entity.Share{}).
		Where("note_id = ?", noteID).
		Pluck("shared_with_id", &ids).Error
	if err != nil {
		return nil, errors.Wrapf(err, "listing recipients of note %d", noteID)
	}
	return ids, nil
}

func (s *DefaultShareRepository) Save(ctx context.Context, share *entity.Share) error {
	return errors.Wrapf(s.db.WithContext(ctx).Save(share).Error, "saving share %d", share.ID)
}

func (s *DefaultShareRepository) Delete(ctx context.Context, share *entity.Share) error {
	return errors.Wrapf(s.db.WithContext(ctx).Delete(share).Error, "deleting share %d", share.ID)
}

// DeleteOrphaned removes shares whose note no longer exists and reports how many were removed.
func (s *DefaultShareRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("note_id NOT IN (?)", s.db.Model(&entity.Note{}).Select("id")).
		Delete(&entity.Share{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "deleting orphaned shares")
	}
	return res.RowsAffected, nil
}
