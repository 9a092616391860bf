package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"koreafit/internal/models/db_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
	"koreafit/pkg/utils"
)

var entitlementNow = time.Date(2026, 10, 17, 10, 0, 0, 0, utils.KST())

func newTestEntitlements(usage *mockUsageRepo, active map[string]string) *entitlementService {
	repo := newMemSubscriptionRepo()
	for userID, planID := range active {
		repo.rows[userID] = &db_models.Subscription{
			UserID:             userID,
			PlanID:             planID,
			Status:             db_models.SubStatusActive,
			CurrentPeriodStart: entitlementNow.Unix(),
			CurrentPeriodEnd:   entitlementNow.AddDate(0, 1, 0).Unix(),
		}
	}
	subs := newTestSubscriptionService(repo, entitlementNow)
	svc := NewEntitlementService(subs, usage, zap.NewNop()).(*entitlementService)
	svc.now = func() time.Time { return entitlementNow }
	return svc
}

func packedIdeas() []resp.Idea {
	return []resp.Idea{
		{ID: "a", Title: "K-뷰티 리셀", ExecutionPack: &resp.ExecutionPack{BudgetGuide: "초기 300만원"}},
		{ID: "b", Title: "공유 주방"},
	}
}

func TestRedactIdeas_ByPlan(t *testing.T) {
	svc := newTestEntitlements(new(mockUsageRepo), map[string]string{"premium-1": PlanPremium})
	ctx := context.Background()

	for name, caller := range map[string]Caller{
		"anonymous": {ClientIP: "203.0.113.7"},
		"free":      {UserID: "free-1"},
	} {
		t.Run(name, func(t *testing.T) {
			in := packedIdeas()
			out := svc.RedactIdeas(ctx, caller, in)
			require.Len(t, out, 2)
			assert.Nil(t, out[0].ExecutionPack)
			assert.True(t, out[0].PackLocked)
			assert.False(t, out[1].PackLocked, "ideas without a pack are not marked")
			assert.NotNil(t, in[0].ExecutionPack, "input slice is left alone")
		})
	}

	out := svc.RedactIdeas(ctx, Caller{UserID: "premium-1"}, packedIdeas())
	require.NotNil(t, out[0].ExecutionPack)
	assert.Equal(t, "초기 300만원", out[0].ExecutionPack.BudgetGuide)
	assert.False(t, out[0].PackLocked)

	out = svc.RedactIdeas(ctx, Caller{UserID: "free-1", IsAdmin: true}, packedIdeas())
	assert.NotNil(t, out[0].ExecutionPack)
}

func TestRequire(t *testing.T) {
	svc := newTestEntitlements(new(mockUsageRepo), map[string]string{"premium-1": PlanPremium})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Require(ctx, Caller{}, FeatureRegulatoryAlerts), utils.ErrUnauthorized)
	assert.ErrorIs(t, svc.Require(ctx, Caller{UserID: "free-1"}, FeatureRegulatoryAlerts), utils.ErrFeatureLocked)
	assert.NoError(t, svc.Require(ctx, Caller{UserID: "premium-1"}, FeatureRegulatoryAlerts))
	assert.NoError(t, svc.Require(ctx, Caller{UserID: "free-1", IsAdmin: true}, FeatureRegulatoryAlerts))
	assert.NoError(t, svc.Require(ctx, Caller{UserID: "free-1"}, FeatureBookmark))
}

func TestConsumeIdeaView_FreeLimit(t *testing.T) {
	usage := new(mockUsageRepo)
	usage.On("IncrementMonthly", mock.Anything, "free-1", repositories.UsageIdeas, entitlementNow).Return(int64(30), nil).Once()
	usage.On("IncrementMonthly", mock.Anything, "free-1", repositories.UsageIdeas, entitlementNow).Return(int64(31), nil).Once()
	svc := newTestEntitlements(usage, nil)
	ctx := context.Background()

	assert.NoError(t, svc.ConsumeIdeaView(ctx, Caller{UserID: "free-1"}), "the 30th view is allowed")
	err := svc.ConsumeIdeaView(ctx, Caller{UserID: "free-1"})
	assert.ErrorIs(t, err, utils.ErrUsageLimit)
	usage.AssertExpectations(t)
}

func TestConsumeIdeaView_AnonymousMeteredByIP(t *testing.T) {
	usage := new(mockUsageRepo)
	usage.On("IncrementMonthly", mock.Anything, "anon:203.0.113.7", repositories.UsageIdeas, entitlementNow).Return(int64(31), nil)
	svc := newTestEntitlements(usage, nil)

	err := svc.ConsumeIdeaView(context.Background(), Caller{ClientIP: "203.0.113.7"})
	assert.ErrorIs(t, err, utils.ErrUsageLimit)
}

func TestConsumeIdeaView_PaidPlanUnmetered(t *testing.T) {
	usage := new(mockUsageRepo)
	svc := newTestEntitlements(usage, map[string]string{"premium-1": PlanPremium})

	assert.NoError(t, svc.ConsumeIdeaView(context.Background(), Caller{UserID: "premium-1"}))
	usage.AssertNotCalled(t, "IncrementMonthly", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConsumeIdeaView_CounterFailureLetsViewThrough(t *testing.T) {
	usage := new(mockUsageRepo)
	usage.On("IncrementMonthly", mock.Anything, "free-1", repositories.UsageIdeas, entitlementNow).Return(int64(0), errors.New("redis down"))
	svc := newTestEntitlements(usage, nil)

	assert.NoError(t, svc.ConsumeIdeaView(context.Background(), Caller{UserID: "free-1"}))
}
