package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
	"koreafit/pkg/utils"
)

type BookmarkService interface {
	Toggle(ctx context.Context, userID, ideaID string) (*resp.BookmarkToggle, error)
	List(ctx context.Context, userID string) ([]resp.Idea, error)
}

type bookmarkService struct {
	bookmarks repositories.BookmarkRepository
	ideas     repositories.IdeaRepository
}

func NewBookmarkService(bookmarks repositories.BookmarkRepository, ideas repositories.IdeaRepository) BookmarkService {
	return &bookmarkService{bookmarks: bookmarks, ideas: ideas}
}

func (s *bookmarkService) Toggle(ctx context.Context, userID, ideaID string) (*resp.BookmarkToggle, error) {
	uid, err := uuid.Parse(ideaID)
	if err != nil {
		return nil, utils.ErrIdeaNotFound
	}
	idea, err := s.ideas.GetByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if idea == nil {
		return nil, utils.ErrIdeaNotFound
	}

	on, err := s.bookmarks.Toggle(ctx, uid, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: toggle bookmark: %v", utils.ErrDatabaseError, err)
	}
	return &resp.BookmarkToggle{IdeaID: ideaID, Bookmarked: on}, nil
}

func (s *bookmarkService) List(ctx context.Context, userID string) ([]resp.Idea, error) {
	ids, err := s.bookmarks.ListIdeaIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list bookmarks: %v", utils.ErrDatabaseError, err)
	}
	rows, err := s.ideas.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	ideas := toIdeaViews(rows)
	for i := range ideas {
		ideas[i].Bookmarked = true
	}
	return ideas, nil
}
