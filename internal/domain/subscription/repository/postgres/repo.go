package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Subscription{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", suberrors.ErrStorageFailure, err)
	}
	return count > 0, nil
}

func (r *Repository) Get(ctx context.Context, userID int64) (*entities.Subscription, error) {
	var sub entities.Subscription

	err := r.db.WithContext(ctx).
		Preload("Creatures", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Raids", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.NewSubscription(userID), nil
		}
		return nil, fmt.Errorf("%w: %v", suberrors.ErrStorageFailure, err)
	}

	return &sub, nil
}

// Save upserts the root row and replaces every child row in one transaction.
// notifications_today is written on insert only; the matcher owns it afterwards.
func (r *Repository) Save(ctx context.Context, sub *entities.Subscription) error {
	root := entities.Subscription{
		UserID:             sub.UserID,
		Enabled:            sub.Enabled,
		NotificationsToday: sub.NotificationsToday,
		CreatedAt:          sub.CreatedAt,
	}

	creatures := make([]entities.CreatureSubscription, 0, len(sub.Creatures))
	for _, c := range sub.Creatures {
		c.ID = 0
		c.UserID = sub.UserID
		creatures = append(creatures, c)
	}

	raids := make([]entities.RaidSubscription, 0, len(sub.Raids))
	for _, rd := range sub.Raids {
		rd.ID = 0
		rd.UserID = sub.UserID
		raids = append(raids, rd)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
			}).
			Create(&root).Error
		if err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}

		if err := tx.Where("user_id = ?", sub.UserID).Delete(&entities.CreatureSubscription{}).Error; err != nil {
			return fmt.Errorf("clear creature filters: %w", err)
		}
		if err := tx.Where("user_id = ?", sub.UserID).Delete(&entities.RaidSubscription{}).Error; err != nil {
			return fmt.Errorf("clear raid filters: %w", err)
		}

		if len(creatures) > 0 {
			if err := tx.CreateInBatches(&creatures, 100).Error; err != nil {
				return fmt.Errorf("insert creature filters: %w", err)
			}
		}
		if len(raids) > 0 {
			if err := tx.CreateInBatches(&raids, 100).Error; err != nil {
				return fmt.Errorf("insert raid filters: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", suberrors.ErrStorageFailure, err)
	}

	return nil
}
