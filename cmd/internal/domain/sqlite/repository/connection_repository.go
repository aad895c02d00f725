package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"sharenotes/cmd/internal/domain/entity"
)

type DefaultConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *DefaultConnectionRepository {
	return &DefaultConnectionRepository{db: db}
}

func (c *DefaultConnectionRepository) Save(ctx context.Context, conn *entity.Connection) error {
	return errors.Wrapf(c.db.WithContext(ctx).Save(conn).Error, "saving connection %s", conn.ConnectionID)
}

func (c *DefaultConnectionRepository) Delete(ctx context.Context, connID string) error {
	err := c.db.WithContext(ctx).
		Where("connection_id = ?", connID).
		Delete(&entity.Connection{}).Error
	return errors.Wrapf(err, "deleting connection %s", connID)
}

func (c *DefaultConnectionRepository) FindByID(ctx context.Context, connID string) (*entity.Connection, error) {
	var conn entity.Connection
	err := c.db.WithContext(ctx).Where("connection_id = ?", connID).First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "finding connection %s", connID)
	}
	return &conn, nil
}

// FindByUserIDs returns the ids of every open connection owned by one of userIDs.
func (c *DefaultConnectionRepository) FindByUserIDs(ctx context.Context, userIDs []int64) ([]string, error) {
	if len(userIDs) == 0 {
		return []string{}, nil
	}

	var ids []string
	err := c.db.WithContext(ctx).
		Model(&entity.Connection{}).
		Where("user_id IN ?", userIDs).
		Pluck("connection_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing connections")
	}
	return ids, nil
}

// FindExpired returns connections that outlived their maximum duration.
func (c *DefaultConnectionRepository) FindExpired(ctx context.Context, now int64) ([]string, error) {
	var ids []string
	err := c.db.WithContext(ctx).
		Model(&entity.Connection{}).
		Where("expires_at < ?", now).
		Pluck("connection_id", &ids).Error
	return ids, errors.Wrap(err, "listing expired connections")
}

// FindStale returns connections whose last heartbeat happened before 'before'.
func (c *DefaultConnectionRepository) FindStale(ctx context.Context, before int64) ([]string, error) {
	var ids []string
	err := c.db.WithContext(ctx).
		Model(&entity.Connection{}).
		Where("last_heartbeat_at < ?", before).
		Pluck("connection_id", &ids).Error
	return ids, errors.Wrap(err, "listing stale connections")
}

// UpdateHeartbeat reports false when the connection is unknown.
func (c *DefaultConnectionRepository) UpdateHeartbeat(ctx context.Context, connID string, at int64) (bool, error) {
	res := c.db.WithContext(ctx).
		Model(&entity.Connection{}).
		Where("connection_id = ?", connID).
		Update("last_heartbeat_at", at)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "updating heartbeat of %s", connID)
	}
	return res.RowsAffected > 0, nil
}
