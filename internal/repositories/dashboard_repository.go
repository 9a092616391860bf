package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	dbm "koreafit/internal/models/db_models"
)

type DashboardRepository interface {
	CountIdeas(ctx context.Context) (int64, error)
	CountEnhancedIdeas(ctx context.Context) (int64, error)
	CountNewIdeas(ctx context.Context, since time.Time) (int64, error)
	CountBookmarks(ctx context.Context) (int64, error)
	CountSubscriptionsByStatus(ctx context.Context, status dbm.SubscriptionStatus) (int64, error)
	CountActiveSubscribers(ctx context.Context) (int64, error)

	PlanMix(ctx context.Context) ([]PlanMixRow, error)
	TopCategories(ctx context.Context, limit int) ([]GroupCountRow, error)
	TopBookmarkedIdeas(ctx context.Context, limit int) ([]GroupCountRow, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// ---------- Row helpers ----------
type PlanMixRow struct {
	PlanID string `gorm:"column:plan_id"`
	Count  int64  `gorm:"column:count"`
}

type GroupCountRow struct {
	Label string `gorm:"column:label"`
	Count int64  `gorm:"column:count"`
}

// ---------- Counts ----------
func (r *dashboardRepository) CountIdeas(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&dbm.Idea{}).Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountEnhancedIdeas(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Idea{}).
		Where("korea_fit IS NOT NULL OR trend_data->>'trend_score' IS NOT NULL").
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountNewIdeas(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Idea{}).
		Where("created_at >= ?", since.Unix()).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountBookmarks(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&dbm.Bookmark{}).Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountSubscriptionsByStatus(ctx context.Context, status dbm.SubscriptionStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Subscription{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountActiveSubscribers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.NewsletterSubscriber{}).
		Where("active = ?", true).
		Count(&n).Error
	return n, err
}

// ---------- Plan mix ----------
func (r *dashboardRepository) PlanMix(ctx context.Context) ([]PlanMixRow, error) {
	var rows []PlanMixRow
	now := time.Now().Unix()
	err := r.db.WithContext(ctx).
		Model(&dbm.Subscription{}).
		Select("plan_id, COUNT(*) AS count").
		Where("status = ?", dbm.SubStatusActive).
		Where("current_period_end = 0 OR current_period_end > ?", now).
		Group("plan_id").
		Order("count DESC").
		Find(&rows).Error
	return rows, err
}

// ---------- Rankings ----------
func (r *dashboardRepository) TopCategories(ctx context.Context, limit int) ([]GroupCountRow, error) {
	var rows []GroupCountRow
	err := r.db.WithContext(ctx).
		Model(&dbm.Idea{}).
		Select("category AS label, COUNT(*) AS count").
		Where("category <> ''").
		Group("category").
		Order("count DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *dashboardRepository) TopBookmarkedIdeas(ctx context.Context, limit int) ([]GroupCountRow, error) {
	var rows []GroupCountRow
	err := r.db.WithContext(ctx).
		Table("bookmarks b").
		Select("i.title AS label, COUNT(*) AS count").
		Joins("JOIN ideas i ON i.id = b.idea_id").
		Group("i.title").
		Order("count DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
