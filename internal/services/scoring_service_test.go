package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/utils"
)

func TestScore_WeightedAndRounded(t *testing.T) {
	svc := NewScoringService(NewHashTrendAnalyzer())
	idea := resp.Idea{
		ID:         "1",
		Title:      "한국 소상공인 결제 정산 앱",
		Summary:    "국내 카드 정산 자동화",
		Category:   "fintech",
		TargetUser: "소상공인",
		Effort:     iptr(3),
	}

	res, err := svc.Score(context.Background(), idea)
	require.NoError(t, err)

	f := res.Factors
	assert.Equal(t, 9.0, f.MarketDemand)
	assert.Equal(t, 3.0, f.RegulatoryEase)
	assert.Equal(t, 8.0, f.CulturalFit)
	assert.Equal(t, 6.0, f.Timing)
	assert.Equal(t, 6.0, f.ExecutionEase)

	// .3*9 + .2*3 + .2*8 + .15*6 + .15*6
	assert.InDelta(t, 6.7, res.KoreaFit, 0.001)
	require.NotNil(t, res.TrendData.TrendScore)
	assert.GreaterOrEqual(t, *res.TrendData.TrendScore, 0.0)
	assert.LessOrEqual(t, *res.TrendData.TrendScore, 10.0)
}

func TestScore_ClampedToTen(t *testing.T) {
	svc := NewScoringService(NewHashTrendAnalyzer())
	idea := resp.Idea{
		ID:       "1",
		Title:    "Korean K-beauty for Seoul via Kakao, Naver and Coupang",
		Category: "fintech",
		Effort:   iptr(1),
		Metrics:  &resp.IdeaMetrics{MarketOpportunity: 10, RegulatoryRisk: 0, TimingScore: 10},
	}
	res, err := svc.Score(context.Background(), idea)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.KoreaFit, 10.0)
	assert.Equal(t, 10.0, res.Factors.CulturalFit)
}

func TestScore_RejectsUntitled(t *testing.T) {
	svc := NewScoringService(NewHashTrendAnalyzer())
	_, err := svc.Score(context.Background(), resp.Idea{ID: "x"})
	assert.ErrorIs(t, err, utils.ErrInvalidIdea)
}

func TestScore_TrendAnalyzerFailure(t *testing.T) {
	trends := new(mockTrendAnalyzer)
	trends.On("Analyze", mock.Anything, mock.Anything).Return(resp.TrendData{}, errors.New("quota"))

	_, err := NewScoringService(trends).Score(context.Background(), resp.Idea{ID: "1", Title: "x"})
	assert.Error(t, err)
}

func TestHashTrendAnalyzer_Deterministic(t *testing.T) {
	a := NewHashTrendAnalyzer()
	idea := resp.Idea{Title: "Pet Care Subscription"}

	first, err := a.Analyze(context.Background(), idea)
	require.NoError(t, err)
	second, _ := a.Analyze(context.Background(), idea)

	assert.Equal(t, first.GrowthRate, second.GrowthRate)
	assert.Equal(t, first.SearchVolume, second.SearchVolume)
	assert.Equal(t, *first.TrendScore, *second.TrendScore)
	assert.Regexp(t, `^\+\d+%$`, first.GrowthRate)
	assert.Greater(t, ParseGrowth(first.GrowthRate), 0.0)
}
