package repositories

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"koreafit/internal/models/db_models"
)

type NewsletterSubscriberRepository interface {
	Subscribe(ctx context.Context, email string, userID *string, industries []string) (*db_models.NewsletterSubscriber, error)
	Deactivate(ctx context.Context, email, reason string) (bool, error)
	ListActive(ctx context.Context) ([]db_models.NewsletterSubscriber, error)
}

type newsletterSubscriberRepository struct {
	db *gorm.DB
}

func NewNewsletterSubscriberRepository(db *gorm.DB) NewsletterSubscriberRepository {
	return &newsletterSubscriberRepository{db: db}
}

// Subscribe inserts or reactivates the subscriber keyed by email.
func (r *newsletterSubscriberRepository) Subscribe(ctx context.Context, email string, userID *string, industries []string) (*db_models.NewsletterSubscriber, error) {
	sub := &db_models.NewsletterSubscriber{
		Email:      email,
		UserID:     userID,
		Active:     true,
		Industries: pq.StringArray(industries),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]any{
				"active":             true,
				"industries":         pq.StringArray(industries),
				"deactivated_reason": "",
			}),
		}).
		Create(sub).Error
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *newsletterSubscriberRepository) Deactivate(ctx context.Context, email, reason string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.NewsletterSubscriber{}).
		Where("email = ? AND active = ?", email, true).
		Updates(map[string]any{"active": false, "deactivated_reason": reason})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *newsletterSubscriberRepository) ListActive(ctx context.Context) ([]db_models.NewsletterSubscriber, error) {
	var subs []db_models.NewsletterSubscriber
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
