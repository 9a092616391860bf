package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"koreafit/internal/models/db_models"
	"koreafit/pkg/utils"
)

// memBookmarkRepo keeps bookmark keys in insertion order.
type memBookmarkRepo struct {
	keys      []string
	ideaIDs   map[string]uuid.UUID
	toggleErr error
}

func newMemBookmarkRepo() *memBookmarkRepo {
	return &memBookmarkRepo{ideaIDs: map[string]uuid.UUID{}}
}

func (r *memBookmarkRepo) Toggle(_ context.Context, ideaID uuid.UUID, userID string) (bool, error) {
	if r.toggleErr != nil {
		return false, r.toggleErr
	}
	key := db_models.BookmarkKey(ideaID, userID)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			delete(r.ideaIDs, key)
			return false, nil
		}
	}
	r.keys = append(r.keys, key)
	r.ideaIDs[key] = ideaID
	return true, nil
}

func (r *memBookmarkRepo) ListIdeaIDs(_ context.Context, userID string) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, k := range r.keys {
		if k == db_models.BookmarkKey(r.ideaIDs[k], userID) {
			out = append(out, r.ideaIDs[k])
		}
	}
	return out, nil
}

func TestBookmarkToggle_AddThenRemove(t *testing.T) {
	ideas := new(mockIdeaRepo)
	row := ideaRow("반려동물 구독 커머스", fptr(8.4))
	ideas.On("GetByID", mock.Anything, row.ID).Return(&row, nil)
	bookmarks := newMemBookmarkRepo()
	svc := NewBookmarkService(bookmarks, ideas)
	ctx := context.Background()

	res, err := svc.Toggle(ctx, "user-1", row.ID.String())
	require.NoError(t, err)
	assert.True(t, res.Bookmarked)
	assert.Equal(t, row.ID.String(), res.IdeaID)
	assert.Len(t, bookmarks.keys, 1)

	res, err = svc.Toggle(ctx, "user-1", row.ID.String())
	require.NoError(t, err)
	assert.False(t, res.Bookmarked)
	assert.Empty(t, bookmarks.keys)
}

func TestBookmarkToggle_PerUser(t *testing.T) {
	ideas := new(mockIdeaRepo)
	row := ideaRow("B2B 협업 SaaS", nil)
	ideas.On("GetByID", mock.Anything, row.ID).Return(&row, nil)
	bookmarks := newMemBookmarkRepo()
	svc := NewBookmarkService(bookmarks, ideas)
	ctx := context.Background()

	first, err := svc.Toggle(ctx, "user-1", row.ID.String())
	require.NoError(t, err)
	second, err := svc.Toggle(ctx, "user-2", row.ID.String())
	require.NoError(t, err)

	assert.True(t, first.Bookmarked)
	assert.True(t, second.Bookmarked, "another user's bookmark does not flip this one")
	assert.Len(t, bookmarks.keys, 2)
}

func TestBookmarkToggle_Errors(t *testing.T) {
	ideas := new(mockIdeaRepo)
	missing := uuid.New()
	broken := uuid.New()
	row := ideaRow("공유 주방", nil)
	ideas.On("GetByID", mock.Anything, missing).Return(nil, nil)
	ideas.On("GetByID", mock.Anything, broken).Return(nil, errors.New("connection reset"))
	ideas.On("GetByID", mock.Anything, row.ID).Return(&row, nil)
	bookmarks := newMemBookmarkRepo()
	svc := NewBookmarkService(bookmarks, ideas)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "user-1", "not-a-uuid")
	assert.ErrorIs(t, err, utils.ErrIdeaNotFound)

	_, err = svc.Toggle(ctx, "user-1", missing.String())
	assert.ErrorIs(t, err, utils.ErrIdeaNotFound)

	_, err = svc.Toggle(ctx, "user-1", broken.String())
	assert.ErrorIs(t, err, utils.ErrDatabaseError)

	bookmarks.toggleErr = errors.New("duplicate key")
	_, err = svc.Toggle(ctx, "user-1", row.ID.String())
	assert.ErrorIs(t, err, utils.ErrDatabaseError)
	assert.Empty(t, bookmarks.keys)
}

func TestBookmarkList_MarksEveryIdea(t *testing.T) {
	ideas := new(mockIdeaRepo)
	a := ideaRow("K-뷰티 리셀", fptr(7.9))
	b := ideaRow("시니어 돌봄 로봇", fptr(6.1))
	ideas.On("GetByID", mock.Anything, a.ID).Return(&a, nil)
	ideas.On("GetByID", mock.Anything, b.ID).Return(&b, nil)
	ideas.On("GetByIDs", mock.Anything, []uuid.UUID{a.ID, b.ID}).Return([]db_models.Idea{a, b}, nil)
	svc := NewBookmarkService(newMemBookmarkRepo(), ideas)
	ctx := context.Background()

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		_, err := svc.Toggle(ctx, "user-1", id.String())
		require.NoError(t, err)
	}
	_, err := svc.Toggle(ctx, "user-2", a.ID.String())
	require.NoError(t, err)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, idea := range list {
		assert.True(t, idea.Bookmarked, idea.Title)
	}
	assert.Equal(t, a.ID.String(), list[0].ID)
	ideas.AssertExpectations(t)
}

func TestBookmarkList_RepoError(t *testing.T) {
	ideas := new(mockIdeaRepo)
	ideas.On("GetByIDs", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	svc := NewBookmarkService(newMemBookmarkRepo(), ideas)

	_, err := svc.List(context.Background(), "user-1")
	assert.ErrorIs(t, err, utils.ErrDatabaseError)
}
