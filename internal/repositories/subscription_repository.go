package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"koreafit/internal/models/db_models"
)

// SubscriptionMutation receives the current row (nil when the user never
// subscribed) and returns the row to persist. Returning nil, nil leaves the
// row untouched.
type SubscriptionMutation func(current *db_models.Subscription) (*db_models.Subscription, error)

type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*db_models.Subscription, error)
	Mutate(ctx context.Context, userID string, fn SubscriptionMutation) (*db_models.Subscription, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := r.db.WithContext(ctx).First(&sub, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Mutate runs fn inside a transaction holding the user's row lock, so two
// concurrent subscribe/cancel calls for one user serialize. A user's first
// row has nothing to lock yet; if a concurrent insert wins the unique index,
// the row is read back under lock and fn runs again against it.
func (r *subscriptionRepository) Mutate(ctx context.Context, userID string, fn SubscriptionMutation) (*db_models.Subscription, error) {
	var result *db_models.Subscription

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for attempt := 0; attempt < 2; attempt++ {
			current, err := lockSubscription(tx, userID)
			if err != nil {
				return err
			}

			next, err := fn(current)
			if err != nil {
				return err
			}
			if next == nil {
				result = current
				return nil
			}
			if current != nil {
				if err := tx.Save(next).Error; err != nil {
					return err
				}
				result = next
				return nil
			}

			res := insertSubscription(tx, next)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				result = next
				return nil
			}
		}
		return errors.New("subscription row contended by concurrent inserts")
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func lockSubscription(tx *gorm.DB, userID string) (*db_models.Subscription, error) {
	var row db_models.Subscription
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "user_id = ?", userID).Error
	switch {
	case err == nil:
		return &row, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, err
	}
}

// insertSubscription reports RowsAffected 0 when another transaction already
// holds the user_id.
func insertSubscription(tx *gorm.DB, sub *db_models.Subscription) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(sub)
}
