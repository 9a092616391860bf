package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"koreafit/internal/models/request_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
	"koreafit/pkg/utils"
)

type IdeaService interface {
	ListIdeas(ctx context.Context, f IdeaFilter, key SortKey, page int) (*resp.IdeaPage, error)
	AllIdeas(ctx context.Context) ([]resp.Idea, error)
	GetIdea(ctx context.Context, id string) (*resp.Idea, error)
	GetIdeasByIDs(ctx context.Context, ids []string) ([]resp.Idea, error)
	CreateIdea(ctx context.Context, req request_models.CreateIdeaRequest) (*resp.Idea, error)
	EnhanceIdeas(ctx context.Context, ideas []resp.Idea) ([]resp.Idea, resp.EnhanceSummary)
	EnhanceAll(ctx context.Context) (*resp.EnhanceSummary, error)
}

type ideaService struct {
	repo    repositories.IdeaRepository
	scoring ScoringService
	log     *zap.Logger
}

func NewIdeaService(repo repositories.IdeaRepository, scoring ScoringService, log *zap.Logger) IdeaService {
	return &ideaService{repo: repo, scoring: scoring, log: log}
}

// AllIdeas loads the catalog and lazily scores anything not yet enhanced.
func (s *ideaService) AllIdeas(ctx context.Context) ([]resp.Idea, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list ideas: %v", utils.ErrDatabaseError, err)
	}
	ideas, _ := s.EnhanceIdeas(ctx, toIdeaViews(rows))
	return ideas, nil
}

func (s *ideaService) ListIdeas(ctx context.Context, f IdeaFilter, key SortKey, page int) (*resp.IdeaPage, error) {
	if page < 1 {
		return nil, utils.ErrInvalidPage
	}

	ideas, err := s.AllIdeas(ctx)
	if err != nil {
		return nil, err
	}

	filtered := FilterIdeas(ideas, f, key)
	total := len(filtered)
	return &resp.IdeaPage{
		Items:      Paginate(filtered, page, IdeasPageSize),
		Page:       page,
		PageSize:   IdeasPageSize,
		Total:      total,
		TotalPages: (total + IdeasPageSize - 1) / IdeasPageSize,
	}, nil
}

func (s *ideaService) GetIdea(ctx context.Context, id string) (*resp.Idea, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, utils.ErrIdeaNotFound
	}
	row, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: get idea: %v", utils.ErrDatabaseError, err)
	}
	if row == nil {
		return nil, utils.ErrIdeaNotFound
	}

	ideas, _ := s.EnhanceIdeas(ctx, []resp.Idea{toIdeaView(*row)})
	return &ideas[0], nil
}

// GetIdeasByIDs keeps the caller's order and fails on the first unknown id.
func (s *ideaService) GetIdeasByIDs(ctx context.Context, ids []string) ([]resp.Idea, error) {
	uids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		uid, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", utils.ErrIdeaNotFound, id)
		}
		uids = append(uids, uid)
	}

	rows, err := s.repo.GetByIDs(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("%w: get ideas: %v", utils.ErrDatabaseError, err)
	}
	if len(rows) != len(uids) {
		return nil, fmt.Errorf("%w: %d of %d ideas missing", utils.ErrIdeaNotFound, len(uids)-len(rows), len(uids))
	}
	return toIdeaViews(rows), nil
}

func (s *ideaService) CreateIdea(ctx context.Context, req request_models.CreateIdeaRequest) (*resp.Idea, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Summary) == "" {
		return nil, fmt.Errorf("%w: title and summary are required", utils.ErrInvalidIdea)
	}
	if req.Effort != nil && (*req.Effort < 1 || *req.Effort > 5) {
		return nil, fmt.Errorf("%w: effort must be between 1 and 5", utils.ErrInvalidIdea)
	}

	row := toIdeaModel(req)
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("%w: create idea: %v", utils.ErrDatabaseError, err)
	}

	view := toIdeaView(*row)
	return &view, nil
}

// EnhanceIdeas scores every idea that lacks scores and persists the result.
// A failure on one idea is logged and that idea is returned unscored; the
// batch always completes.
func (s *ideaService) EnhanceIdeas(ctx context.Context, ideas []resp.Idea) ([]resp.Idea, resp.EnhanceSummary) {
	summary := resp.EnhanceSummary{Total: len(ideas)}
	out := make([]resp.Idea, len(ideas))
	copy(out, ideas)

	for i, idea := range out {
		if idea.Enhanced() {
			summary.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			s.log.Warn("enhancement interrupted", zap.Error(err), zap.Int("remaining", len(out)-i))
			summary.Failed += len(out) - i
			break
		}

		enhanced, err := s.enhanceOne(ctx, idea)
		if err != nil {
			s.log.Warn("failed to enhance idea", zap.String("idea_id", idea.ID), zap.Error(err))
			summary.Failed++
			continue
		}
		out[i] = enhanced
		summary.Enhanced++
	}

	return out, summary
}

func (s *ideaService) enhanceOne(ctx context.Context, idea resp.Idea) (resp.Idea, error) {
	uid, err := uuid.Parse(idea.ID)
	if err != nil {
		return idea, fmt.Errorf("bad idea id: %w", err)
	}

	score, err := s.scoring.Score(ctx, idea)
	if err != nil {
		return idea, err
	}

	trend := score.TrendData
	if err := s.repo.UpdateScores(ctx, uid, score.KoreaFit, encodeJSON(trend)); err != nil {
		return idea, fmt.Errorf("persist scores: %w", err)
	}

	fit := score.KoreaFit
	idea.KoreaFit = &fit
	idea.TrendData = &trend
	return idea, nil
}

func (s *ideaService) EnhanceAll(ctx context.Context) (*resp.EnhanceSummary, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list ideas: %v", utils.ErrDatabaseError, err)
	}
	_, summary := s.EnhanceIdeas(ctx, toIdeaViews(rows))
	s.log.Info("idea enhancement finished",
		zap.Int("total", summary.Total),
		zap.Int("enhanced", summary.Enhanced),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	if summary.Failed > 0 && summary.Enhanced == 0 && summary.Skipped == 0 {
		return &summary, errors.New("every idea failed to enhance")
	}
	return &summary, nil
}
