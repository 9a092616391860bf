package response_models

import "time"

type TrendData struct {
	GrowthRate   string    `json:"growth_rate"`
	SearchVolume string    `json:"search_volume"`
	TrendScore   *float64  `json:"trend_score,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

type IdeaMetrics struct {
	MarketOpportunity   float64 `json:"market_opportunity" yaml:"market_opportunity"`
	ExecutionDifficulty float64 `json:"execution_difficulty" yaml:"execution_difficulty"`
	RevenuePotential    float64 `json:"revenue_potential" yaml:"revenue_potential"`
	TimingScore         float64 `json:"timing_score" yaml:"timing_score"`
	RegulatoryRisk      float64 `json:"regulatory_risk" yaml:"regulatory_risk"`
}

type RoadmapStep struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Priority    string `json:"priority" yaml:"priority"`
	Timeframe   string `json:"timeframe" yaml:"timeframe"`
}

type ExecutionPack struct {
	Templates     []string `json:"templates,omitempty" yaml:"templates"`
	Scripts       []string `json:"scripts,omitempty" yaml:"scripts"`
	BudgetGuide   string   `json:"budget_guide,omitempty" yaml:"budget_guide"`
	TimelineGuide string   `json:"timeline_guide,omitempty" yaml:"timeline_guide"`
}

type ExecutionMetrics struct {
	ActiveExecutors       int     `json:"active_executors" yaml:"active_executors"`
	FirstRevenueAchievers int     `json:"first_revenue_achievers" yaml:"first_revenue_achievers"`
	AvgHoursToRevenue     float64 `json:"avg_hours_to_revenue" yaml:"avg_hours_to_revenue"`
}

// Idea is the view every service works with. Optional blocks stay nil when
// the stored document lacks them.
type Idea struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Summary          string            `json:"summary"`
	LongSummary      string            `json:"long_summary,omitempty"`
	Category         string            `json:"category"`
	Tags             []string          `json:"tags"`
	KoreaFit         *float64          `json:"korea_fit,omitempty"`
	TrendData        *TrendData        `json:"trend_data,omitempty"`
	Metrics          *IdeaMetrics      `json:"metrics,omitempty"`
	Effort           *int              `json:"effort,omitempty"`
	TargetUser       string            `json:"target_user,omitempty"`
	BusinessModel    string            `json:"business_model,omitempty"`
	WhyNow           string            `json:"why_now,omitempty"`
	Risks            []string          `json:"risks,omitempty"`
	ExecutionRoadmap []RoadmapStep     `json:"execution_roadmap,omitempty"`
	ExecutionPack    *ExecutionPack    `json:"execution_pack,omitempty"`
	PackLocked       bool              `json:"execution_pack_locked,omitempty"`
	ExecutionMetrics *ExecutionMetrics `json:"execution_metrics,omitempty"`
	SourceURL        string            `json:"source_url,omitempty"`
	SourceName       string            `json:"source_name,omitempty"`
	PublishedAt      *time.Time        `json:"published_at,omitempty"`
	CreatedAt        *time.Time        `json:"created_at,omitempty"`
	Upvotes          int               `json:"upvotes"`
	Downvotes        int               `json:"downvotes"`
	Bookmarked       bool              `json:"bookmarked,omitempty"`
}

// Enhanced reports whether scores were already computed; either score
// counts.
func (i Idea) Enhanced() bool {
	return i.KoreaFit != nil || (i.TrendData != nil && i.TrendData.TrendScore != nil)
}

type ScoreFactors struct {
	MarketDemand   float64 `json:"market_demand"`
	RegulatoryEase float64 `json:"regulatory_ease"`
	CulturalFit    float64 `json:"cultural_fit"`
	Timing         float64 `json:"timing"`
	ExecutionEase  float64 `json:"execution_ease"`
}

type ScoreResult struct {
	KoreaFit  float64      `json:"korea_fit"`
	Factors   ScoreFactors `json:"factors"`
	TrendData TrendData    `json:"trend_data"`
}

type IdeaPage struct {
	Items      []Idea `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

type EnhanceSummary struct {
	Total    int `json:"total"`
	Skipped  int `json:"skipped"`
	Enhanced int `json:"enhanced"`
	Failed   int `json:"failed"`
}

type BookmarkToggle struct {
	IdeaID     string `json:"idea_id"`
	Bookmarked bool   `json:"bookmarked"`
}
