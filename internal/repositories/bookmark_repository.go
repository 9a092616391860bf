package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"koreafit/internal/models/db_models"
)

type BookmarkRepository interface {
	Toggle(ctx context.Context, ideaID uuid.UUID, userID string) (bool, error)
	ListIdeaIDs(ctx context.Context, userID string) ([]uuid.UUID, error)
}

type bookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

// Toggle removes the bookmark when present and creates it otherwise. It
// returns whether the idea is bookmarked afterwards.
func (r *bookmarkRepository) Toggle(ctx context.Context, ideaID uuid.UUID, userID string) (bool, error) {
	key := db_models.BookmarkKey(ideaID, userID)
	bookmarked := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing db_models.Bookmark
		err := tx.First(&existing, "id = ?", key).Error
		switch {
		case err == nil:
			return tx.Delete(&db_models.Bookmark{}, "id = ?", key).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			bookmarked = true
			return insertBookmark(tx, &db_models.Bookmark{ID: key, IdeaID: ideaID, UserID: userID}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}
	return bookmarked, nil
}

// insertBookmark ignores a row a concurrent toggle created first; the idea
// is bookmarked either way.
func insertBookmark(tx *gorm.DB, b *db_models.Bookmark) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(b)
}

func (r *bookmarkRepository) ListIdeaIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&db_models.Bookmark{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("idea_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
