package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"koreafit/internal/models/db_models"
)

type IdeaRepository interface {
	ListAll(ctx context.Context) ([]db_models.Idea, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Idea, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]db_models.Idea, error)
	Create(ctx context.Context, idea *db_models.Idea) error
	Upsert(ctx context.Context, idea *db_models.Idea) error
	UpdateScores(ctx context.Context, id uuid.UUID, koreaFit float64, trendData datatypes.JSON) error
}

type ideaRepository struct {
	db *gorm.DB
}

func NewIdeaRepository(db *gorm.DB) IdeaRepository {
	return &ideaRepository{db: db}
}

func (r *ideaRepository) ListAll(ctx context.Context) ([]db_models.Idea, error) {
	var ideas []db_models.Idea
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&ideas).Error
	if err != nil {
		return nil, err
	}
	return ideas, nil
}

func (r *ideaRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Idea, error) {
	var idea db_models.Idea
	err := r.db.WithContext(ctx).First(&idea, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &idea, nil
}

// GetByIDs returns ideas in the order of ids; unknown ids are dropped.
func (r *ideaRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]db_models.Idea, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []db_models.Idea
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]db_models.Idea, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]db_models.Idea, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

func (r *ideaRepository) Create(ctx context.Context, idea *db_models.Idea) error {
	return r.db.WithContext(ctx).Create(idea).Error
}

func (r *ideaRepository) Upsert(ctx context.Context, idea *db_models.Idea) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(idea).Error
}

// UpdateScores writes both scores together so an idea is never half enhanced.
func (r *ideaRepository) UpdateScores(ctx context.Context, id uuid.UUID, koreaFit float64, trendData datatypes.JSON) error {
	res := r.db.WithContext(ctx).
		Model(&db_models.Idea{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"korea_fit":  koreaFit,
			"trend_data": trendData,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
