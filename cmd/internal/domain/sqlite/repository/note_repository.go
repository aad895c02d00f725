package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"sharenotes/cmd/internal/domain/entity"
)

const noteOrder = "notes.updated_at DESC, notes.id DESC"

type DefaultNoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *DefaultNoteRepository {
	return &DefaultNoteRepository{db: db}
}

func (d *DefaultNoteRepository) FindByID(ctx context.Context, id int64) (*entity.Note, error) {
	var note entity.Note
	err := d.db.WithContext(ctx).First(&note, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "finding note %d", id)
	}
	return &note, nil
}

// FindByOwner returns every note created by ownerID, most recently updated first.
func (d *DefaultNoteRepository) FindByOwner(ctx context.Context, ownerID int64) ([]*entity.Note, error) {
	notes := []*entity.Note{}
	err := d.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order(noteOrder).
		Find(&notes).Error
	if err != nil {
		return nil, errors.Wrapf(err, "listing notes of user %d", ownerID)
	}
	return notes, nil
}

// FindSharedWith returns the notes some other user shared with userID, most recently updated first.
func (d *DefaultNoteRepository) FindSharedWith(ctx context.Context, userID int64) ([]*entity.Note, error) {
	notes := []*entity.Note{}
	err := d.db.WithContext(ctx).
		Joins("JOIN shares ON shares.note_id = notes.id").
		Where("shares.shared_with_id = ?", userID).
		Order(noteOrder).
		Find(&notes).Error
	if err != nil {
		return nil, errors.Wrapf(err, "listing notes shared with user %d", userID)
	}
	return notes, nil
}

func (d *DefaultNoteRepository) Save(ctx context.Context, note *entity.Note) error {
	return errors.Wrapf(d.db.WithContext(ctx).Save(note).Error, "saving note %d", note.ID)
}

// DeleteWithShares removes the note and every share pointing at it in a single transaction.
func (d *DefaultNoteRepository) DeleteWithShares(ctx context.Context, note *entity.Note) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", note.ID).Delete(&entity.Share{}).Error; err != nil {
			return err
		}
		return tx.Delete(note).Error
	})
	return errors.Wrapf(err, "deleting note %d", note.ID)
}
