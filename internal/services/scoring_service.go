package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	resp "koreafit/internal/models/response_models"
	"koreafit/pkg/utils"
)

// TrendAnalyzer supplies trend data for an idea. The default implementation
// is a deterministic stand-in that makes no network calls.
type TrendAnalyzer interface {
	Analyze(ctx context.Context, idea resp.Idea) (resp.TrendData, error)
}

type ScoringService interface {
	Score(ctx context.Context, idea resp.Idea) (*resp.ScoreResult, error)
}

type scoringService struct {
	trends TrendAnalyzer
}

func NewScoringService(trends TrendAnalyzer) ScoringService {
	return &scoringService{trends: trends}
}

var (
	categoryDemand = map[string]float64{
		"fintech":    8,
		"healthtech": 7,
		"edtech":     7,
		"ecommerce":  7,
		"content":    7,
		"foodtech":   6,
		"saas":       6,
		"mobility":   6,
		"proptech":   5,
	}
	categoryRegulatoryEase = map[string]float64{
		"fintech":    3,
		"healthtech": 3,
		"mobility":   4,
		"proptech":   5,
		"foodtech":   6,
	}
	koreaSignals = []string{"korea", "korean", "한국", "국내", "k-", "seoul", "서울", "카카오", "kakao", "네이버", "naver", "쿠팡", "coupang"}
)

const (
	weightDemand     = 0.30
	weightRegulatory = 0.20
	weightCultural   = 0.20
	weightTiming     = 0.15
	weightExecution  = 0.15
)

func (s *scoringService) Score(ctx context.Context, idea resp.Idea) (*resp.ScoreResult, error) {
	if strings.TrimSpace(idea.Title) == "" {
		return nil, fmt.Errorf("%w: idea %s has no title", utils.ErrInvalidIdea, idea.ID)
	}

	f := scoreFactors(idea)
	fit := weightDemand*f.MarketDemand +
		weightRegulatory*f.RegulatoryEase +
		weightCultural*f.CulturalFit +
		weightTiming*f.Timing +
		weightExecution*f.ExecutionEase

	trend, err := s.trends.Analyze(ctx, idea)
	if err != nil {
		return nil, fmt.Errorf("trend analysis for %s: %w", idea.ID, err)
	}

	return &resp.ScoreResult{
		KoreaFit:  round1(clamp(fit, 0, 10)),
		Factors:   f,
		TrendData: trend,
	}, nil
}

func scoreFactors(idea resp.Idea) resp.ScoreFactors {
	category := strings.ToLower(idea.Category)

	demand, ok := categoryDemand[category]
	if !ok {
		demand = 5
	}
	if idea.TargetUser != "" {
		demand++
	}
	if idea.Metrics != nil {
		demand = (demand + idea.Metrics.MarketOpportunity) / 2
	}

	regEase, ok := categoryRegulatoryEase[category]
	if !ok {
		regEase = 7
	}
	if idea.Metrics != nil {
		regEase = 10 - idea.Metrics.RegulatoryRisk
	}

	text := strings.ToLower(strings.Join(append([]string{idea.Title, idea.Summary, idea.TargetUser}, idea.Tags...), " "))
	cultural := 5.0
	for _, sig := range koreaSignals {
		if strings.Contains(text, sig) {
			cultural += 1.5
		}
	}

	timing := 6.0
	if idea.WhyNow != "" {
		timing = 7
	}
	if idea.Metrics != nil {
		timing = idea.Metrics.TimingScore
	}

	execution := 5.0
	switch {
	case idea.Effort != nil:
		execution = 10 - float64(*idea.Effort-1)*2
	case idea.Metrics != nil:
		execution = 10 - idea.Metrics.ExecutionDifficulty
	}

	return resp.ScoreFactors{
		MarketDemand:   round1(clamp(demand, 0, 10)),
		RegulatoryEase: round1(clamp(regEase, 0, 10)),
		CulturalFit:    round1(clamp(cultural, 0, 10)),
		Timing:         round1(clamp(timing, 0, 10)),
		ExecutionEase:  round1(clamp(execution, 0, 10)),
	}
}

// hashTrendAnalyzer derives stable pseudo trend numbers from the title.
type hashTrendAnalyzer struct {
	now     func() time.Time
	printer *message.Printer
}

func NewHashTrendAnalyzer() TrendAnalyzer {
	return &hashTrendAnalyzer{now: time.Now, printer: message.NewPrinter(language.Korean)}
}

func (a *hashTrendAnalyzer) Analyze(_ context.Context, idea resp.Idea) (resp.TrendData, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(idea.Title))))
	sum := h.Sum32()

	growth := 5 + int(sum%60)
	volume := 1000 + int((sum>>8)%49000)
	score := round1(clamp(float64(growth)/8+2, 0, 10))

	return resp.TrendData{
		GrowthRate:   fmt.Sprintf("+%d%%", growth),
		SearchVolume: a.printer.Sprintf("%d", volume),
		TrendScore:   &score,
		LastUpdated:  a.now().UTC(),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
